package domain

import "errors"

var (
	// Error kinds. Every error leaving a use case wraps exactly one of these.
	ErrValidation  = errors.New("validation failed")
	ErrConflict    = errors.New("conflict")
	ErrAuth        = errors.New("authentication failed")
	ErrNotFound    = errors.New("entity not found")
	ErrForbidden   = errors.New("forbidden")
	ErrUpstream    = errors.New("upstream failure")
	ErrRateLimited = errors.New("rate limited")

	// Storage level errors, mapped onto kinds by the use cases.
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrLockBusy           = errors.New("resource is locked")
)

// Error pairs an error kind with a short message that is safe to show to callers.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

// NewError builds an *Error of the given kind.
func NewError(kind error, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Message returns the caller-facing message of err, or fallback when err carries none.
func Message(err error, fallback string) string {
	var de *Error
	if errors.As(err, &de) && de.Msg != "" {
		return de.Msg
	}
	return fallback
}
