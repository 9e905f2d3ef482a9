// internal/browser/wait.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultPollInterval is how often WaitUntil re-checks its condition.
const DefaultPollInterval = 250 * time.Millisecond

// Condition reports whether a wait is over. Temporary errors count as "not yet".
type Condition func(ctx context.Context) (bool, error)

// WaitUntil polls cond until it holds, returns a non-temporary error, or
// timeout elapses. Timing out yields ErrWaitTimeout.
func WaitUntil(ctx context.Context, timeout, poll time.Duration, cond Condition) error {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	deadline := time.Now().Add(timeout)

	var lastErr error
	for {
		ok, err := cond(ctx)
		if err == nil && ok {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var se *Error
			if !errors.As(err, &se) || !se.Temporary() {
				return err
			}
			lastErr = err
		}

		if time.Now().Add(poll).After(deadline) {
			if lastErr != nil {
				return fmt.Errorf("%w after %s: %v", ErrWaitTimeout, timeout, lastErr)
			}
			return fmt.Errorf("%w after %s", ErrWaitTimeout, timeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(poll):
		}
	}
}

// deepQueryJS collects matches from the document and all open shadow roots.
const deepQueryJS = `(sel) => {
	const out = [];
	const walk = (root) => {
		root.querySelectorAll(sel).forEach((el) => out.push(el));
		root.querySelectorAll('*').forEach((el) => {
			if (el.shadowRoot) walk(el.shadowRoot);
		});
	};
	walk(document);
	return out;
}`
