package models

import (
	"errors"
	"fmt"
)

// Kind classifies run outcomes so the process can exit with a distinct code
// per class. Each invocation is independent: every kind is local to one run
// and "recovery" is the next scheduled run.
type Kind string

const (
	KindConfig       Kind = "config"
	KindFetch        Kind = "fetch"
	KindTrigger      Kind = "trigger"
	KindStateCorrupt Kind = "state-corrupt"
	KindStatePersist Kind = "state-persist"
	// KindNoEligibleItems is not a failure: everything is in cooldown or both
	// pools are empty. The run exits cleanly with a no-action status.
	KindNoEligibleItems Kind = "no-eligible-items"
)

// Error wraps a cause with the outcome kind it belongs to.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Kind, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// E wraps err with the given kind.
func E(kind Kind, err error) error {
	return &Error{Kind: kind, Err: err}
}

// Errorf wraps a formatted error with the given kind.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the outcome kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
