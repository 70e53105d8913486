package room

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a rejected command.
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation"
	KindConflict    ErrorKind = "conflict"
	KindNotJoined   ErrorKind = "not_joined"
	KindUpstream    ErrorKind = "upstream"
	KindRateLimited ErrorKind = "rate_limited"
)

// Error is a command rejection. Reason is the text returned to the
// originating connection in its acknowledgment.
type Error struct {
	Kind   ErrorKind
	Reason string
	Cause  error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Reason + ": " + e.Cause.Error()
	}
	return e.Reason
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error of the same kind. A target with an empty
// Reason matches every error of that kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Reason == "" || t.Reason == e.Reason)
}

var (
	ErrNotJoined      = &Error{Kind: KindNotJoined, Reason: "not joined"}
	ErrInvalidRoom    = &Error{Kind: KindValidation, Reason: "invalid room"}
	ErrInvalidMessage = &Error{Kind: KindValidation, Reason: "invalid message"}

	ErrMissingRoom      = &Error{Kind: KindValidation, Reason: "room is required"}
	ErrMissingUsername  = &Error{Kind: KindValidation, Reason: "username is required"}
	ErrRoomTooLong      = &Error{Kind: KindValidation, Reason: "room is too long"}
	ErrUsernameTooLong  = &Error{Kind: KindValidation, Reason: "username is too long"}
	ErrReservedUsername = &Error{Kind: KindValidation, Reason: "username is reserved"}
	ErrMalformedCommand = &Error{Kind: KindValidation, Reason: "malformed payload"}
	ErrUnknownCommand   = &Error{Kind: KindValidation, Reason: "unknown event"}
	ErrRateLimited      = &Error{Kind: KindRateLimited, Reason: "too many requests"}
	ErrUpstreamFailure  = &Error{Kind: KindUpstream, Reason: "upstream failure"}

	// ErrUsernameTaken matches every conflict, whatever username it names.
	ErrUsernameTaken = &Error{Kind: KindConflict}
)

func usernameTaken(username string) *Error {
	return &Error{
		Kind:   KindConflict,
		Reason: fmt.Sprintf("username %q is already taken in this room", username),
	}
}

// Upstream wraps a failure of an external backend.
func Upstream(cause error) *Error {
	return &Error{Kind: KindUpstream, Reason: ErrUpstreamFailure.Reason, Cause: cause}
}

// KindOf reports the kind of err, or "" when err is not a rejection.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Reason returns the client-facing text for err.
func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	if err == nil {
		return ""
	}
	return "internal error"
}
