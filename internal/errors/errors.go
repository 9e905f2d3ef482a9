// internal/errors/errors.go - error taxonomy for scraping runs
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
)

// Kind classifies failures by how the caller should react to them.
type Kind int

const (
	KindUnknown Kind = iota
	// KindAuthentication means the site session could not be established.
	KindAuthentication
	// KindNotFound means a requested collection or page does not exist.
	KindNotFound
	// KindTransientRender means the page did not render in time and the
	// retry budget was exhausted.
	KindTransientRender
	KindConfig
	KindOutput
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindNotFound:
		return "not found"
	case KindTransientRender:
		return "transient render"
	case KindConfig:
		return "configuration"
	case KindOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Error is a classified failure raised by an operation.
type Error struct {
	Kind     Kind
	Op       string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	msg := e.Kind.String() + " failure"
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Attempts > 0 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Authentication builds a KindAuthentication error.
func Authentication(op, format string, args ...interface{}) error {
	return &Error{Kind: KindAuthentication, Op: op, Err: fmt.Errorf(format, args...)}
}

// NotFound builds a KindNotFound error.
func NotFound(op, format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Op: op, Err: fmt.Errorf(format, args...)}
}

// Config builds a KindConfig error.
func Config(op string, err error) error {
	return &Error{Kind: KindConfig, Op: op, Err: err}
}

// Output builds a KindOutput error.
func Output(op string, err error) error {
	return &Error{Kind: KindOutput, Op: op, Err: err}
}

// Exhausted wraps the last error of a retry loop that ran out of attempts.
func Exhausted(op string, attempts int, err error) error {
	return &Error{Kind: KindTransientRender, Op: op, Attempts: attempts, Err: err}
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// temporary is implemented by errors that are worth retrying after the page
// has had time to settle (missing elements, stale handles).
type temporary interface {
	Temporary() bool
}

// IsTransient reports whether err is a rendering hiccup that a retry may fix.
// Per-wait deadlines count as transient; cancellation does not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) {
		return false
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t temporary
	if stderrors.As(err, &t) {
		return t.Temporary()
	}
	return false
}

// Is, As and New mirror the standard library so callers need a single import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target interface{}) bool { return stderrors.As(err, target) }

func New(text string) error { return stderrors.New(text) }

type retryable struct{ err error }

func (r retryable) Error() string   { return r.err.Error() }
func (r retryable) Unwrap() error   { return r.err }
func (r retryable) Temporary() bool { return true }

// Retryable marks err as transient so a RetryPolicy tries again. Cancellation
// is never marked.
func Retryable(err error) error {
	if err == nil || stderrors.Is(err, context.Canceled) {
		return err
	}
	return retryable{err: err}
}
