// internal/ancestry/auth.go
package ancestry

import (
	"context"
	"strings"
	"time"

	"github.com/valpere/parishscraper/internal/errors"
)

const cookieBannerTimeout = 10 * time.Second

// Authenticate signs in through the login page's embedded sign-in frame and
// checks for the welcome heading.
func (s *Scraper) Authenticate(ctx context.Context, creds Credentials) error {
	if creds.Username == "" || creds.Password == "" {
		return errors.Authentication("ancestry sign in", "username and password are required (ANC_USERNAME, ANC_PASSWORD)")
	}
	l := s.locators

	if err := s.navigate(ctx, s.opts.LoginURL); err != nil {
		return err
	}
	s.acceptCookies(ctx)

	frames, err := s.session.WaitForAll(ctx, l.SignInFrame, nil, s.opts.ElementTimeout)
	if err != nil {
		return errors.Authentication("ancestry sign in", "could not find sign-in box: %v", err)
	}
	frame := frames[0]
	if shown, err := s.session.Displayed(ctx, frame); err != nil || !shown {
		return errors.Authentication("ancestry sign in", "sign-in box is not displayed")
	}

	user, err := s.session.WaitFor(ctx, l.Username, frame, s.opts.ElementTimeout)
	if err != nil {
		return errors.Authentication("ancestry sign in", "username field missing: %v", err)
	}
	if err := s.session.Type(ctx, user, creds.Username); err != nil {
		return errors.Authentication("ancestry sign in", "enter username: %v", err)
	}
	pass, err := s.session.WaitFor(ctx, l.Password, frame, s.opts.ElementTimeout)
	if err != nil {
		return errors.Authentication("ancestry sign in", "password field missing: %v", err)
	}
	if err := s.session.Type(ctx, pass, creds.Password); err != nil {
		return errors.Authentication("ancestry sign in", "enter password: %v", err)
	}
	button, err := s.session.WaitFor(ctx, l.SignInButton, frame, s.opts.ElementTimeout)
	if err != nil {
		return errors.Authentication("ancestry sign in", "sign-in button missing: %v", err)
	}
	if err := s.session.Click(ctx, button); err != nil {
		return errors.Authentication("ancestry sign in", "submit: %v", err)
	}

	welcome, err := s.session.WaitFor(ctx, l.WelcomeHeading, nil, s.opts.ElementTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Authentication("ancestry sign in", "welcome page did not load: %v", err)
	}
	text, err := s.session.Text(ctx, welcome)
	if err != nil || !strings.Contains(text, l.WelcomeText) {
		return errors.Authentication("ancestry sign in", "unexpected landing page %q", text)
	}

	s.authenticated = true
	s.logger.Info("signed in")
	return nil
}

// acceptCookies dismisses the consent banner when it is shown.
func (s *Scraper) acceptCookies(ctx context.Context) {
	button, err := s.session.WaitFor(ctx, s.locators.CookieAccept, nil, cookieBannerTimeout)
	if err != nil {
		s.logger.Debugf("no cookie banner: %v", err)
		return
	}
	if err := s.session.Click(ctx, button); err != nil {
		s.logger.Warnf("could not accept cookies: %v", err)
	}
}
