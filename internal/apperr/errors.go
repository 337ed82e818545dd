// Package apperr defines the error taxonomy shared by all domain operations.
//
// Every failure a domain operation can return is one of five kinds; the HTTP
// layer maps kinds to status codes and never inspects messages.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindUnexpected covers anything not classified below. Surfaced as an
	// opaque failure, internal detail stays in the logs.
	KindUnexpected Kind = iota
	// KindFormat means the input was syntactically invalid (bad id, date,
	// enum value, tag containing the delimiter).
	KindFormat
	// KindNotFound means a referenced entity does not exist.
	KindNotFound
	// KindArgument means a structurally valid but out-of-range input
	// (non-positive page, too-short search term, non-positive copy number).
	KindArgument
	// KindConflict means the mutation would violate a cross-entity invariant.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindFormat:
		return "format"
	case KindNotFound:
		return "not_found"
	case KindArgument:
		return "argument"
	case KindConflict:
		return "conflict"
	default:
		return "unexpected"
	}
}

// Error is a kinded domain error with a fully formed, human-readable message.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func Format(format string, args ...any) *Error {
	return &Error{Kind: KindFormat, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Argument(format string, args ...any) *Error {
	return &Error{Kind: KindArgument, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Unexpected wraps an infrastructure error. The message shown to callers is
// generic; the cause is preserved for logging via errors.Unwrap.
func Unexpected(cause error) *Error {
	return &Error{Kind: KindUnexpected, Message: "internal error", cause: cause}
}

// KindOf returns the kind of err, or KindUnexpected for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
