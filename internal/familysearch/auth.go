// internal/familysearch/auth.go
package familysearch

import (
	"context"

	"github.com/valpere/parishscraper/internal/browser"
	"github.com/valpere/parishscraper/internal/errors"
	"github.com/valpere/parishscraper/internal/utils"
)

// Authenticate submits the sign-in form and expects to land on the home page.
// The survey prompt and cookie consent that may follow are dismissed.
func (s *Scraper) Authenticate(ctx context.Context, creds Credentials) error {
	if creds.Username == "" || creds.Password == "" {
		return errors.Authentication("familysearch sign in", "username and password are required (FS_USERNAME, FS_PASSWORD)")
	}
	l := s.locators

	if err := s.navigate(ctx, s.opts.LoginURL); err != nil {
		return err
	}

	fields := []struct {
		loc  browser.Locator
		text string
	}{
		{l.Username, creds.Username},
		{l.Password, creds.Password},
	}
	for _, f := range fields {
		el, err := s.session.WaitFor(ctx, f.loc, nil, s.opts.ElementTimeout)
		if err != nil {
			return errors.Authentication("familysearch sign in", "sign-in form incomplete: %v", err)
		}
		if err := s.session.Type(ctx, el, f.text); err != nil {
			return errors.Authentication("familysearch sign in", "enter %s: %v", f.loc, err)
		}
	}
	button, err := s.session.WaitFor(ctx, l.SignInButton, nil, s.opts.ElementTimeout)
	if err != nil {
		return errors.Authentication("familysearch sign in", "sign-in button missing: %v", err)
	}
	if err := s.session.Click(ctx, button); err != nil {
		return errors.Authentication("familysearch sign in", "submit: %v", err)
	}

	var landed string
	err = browser.WaitUntil(ctx, s.opts.SignInTimeout, s.opts.PollInterval, func(ctx context.Context) (bool, error) {
		current, err := s.session.CurrentURL(ctx)
		if err != nil {
			return false, err
		}
		landed = current
		return utils.SameURL(landed, s.opts.HomeURL), nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Authentication("familysearch sign in", "sign-in failed, landed on %q; check username and password", landed)
	}

	s.dismissSurvey(ctx)
	s.acceptCookies(ctx)

	s.authenticated = true
	s.logger.Info("signed in")
	return nil
}

func (s *Scraper) dismissSurvey(ctx context.Context) {
	button, err := s.session.WaitFor(ctx, s.locators.SurveyDismiss, nil, s.opts.SurveyTimeout)
	if err != nil {
		return
	}
	if err := s.session.Click(ctx, button); err != nil {
		s.logger.Debugf("could not dismiss survey: %v", err)
	}
}

// acceptCookies clicks the consent link, inside the consent frame when the
// frame is shown.
func (s *Scraper) acceptCookies(ctx context.Context) {
	l := s.locators
	var scope browser.Element
	if frame, err := s.session.WaitFor(ctx, l.CookieFrame, nil, s.opts.CookieTimeout); err == nil {
		if shown, err := s.session.Displayed(ctx, frame); err == nil && shown {
			scope = frame
		}
	}

	agree, err := s.session.WaitFor(ctx, l.CookieAgree, scope, s.opts.CookieTimeout)
	if err != nil {
		s.logger.Debugf("no cookie banner: %v", err)
		return
	}
	if err := s.session.Click(ctx, agree); err != nil {
		s.logger.Warnf("could not accept cookies: %v", err)
	}
}
