// internal/browser/errors.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error is a session failure that may clear up once the page settles.
type Error struct {
	msg       string
	temporary bool
}

func (e *Error) Error() string   { return e.msg }
func (e *Error) Temporary() bool { return e.temporary }

var (
	ErrElementNotFound = &Error{msg: "element not found", temporary: true}
	ErrStaleElement    = &Error{msg: "stale element reference", temporary: true}
	ErrWaitTimeout     = &Error{msg: "wait timed out", temporary: true}
	ErrNoShadowRoot    = &Error{msg: "element has no open shadow root", temporary: true}
	ErrScopedXPath     = &Error{msg: "xpath locators cannot be scoped to an element"}
	ErrForeignElement  = &Error{msg: "element belongs to another session backend"}
)

// staleMarkers are protocol error fragments Chrome returns for nodes that were
// removed or re-rendered.
var staleMarkers = []string{
	"could not find node with given id",
	"no node with given id",
	"node is detached",
	"node with given id does not belong to the document",
	"cannot find context with specified id",
	"object reference chain is too long",
}

// classify maps backend errors onto the session error set.
func classify(err error, what string) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrWaitTimeout, what)
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range staleMarkers {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %s: %v", ErrStaleElement, what, err)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}
