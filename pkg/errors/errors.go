package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an application error so handlers can map it to a
// response without string matching.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindNotOwner
	KindDuplicateOffer
	KindIllegalTransition
	KindTerminalState
	KindTooEarly
	KindConflict
	KindNotEditable
	KindInvalidPayload
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindNotFound:
		return "not_found"
	case KindNotOwner:
		return "not_owner"
	case KindDuplicateOffer:
		return "duplicate_offer"
	case KindIllegalTransition:
		return "illegal_transition"
	case KindTerminalState:
		return "terminal_state"
	case KindTooEarly:
		return "too_early"
	case KindConflict:
		return "conflict"
	case KindNotEditable:
		return "not_editable"
	case KindInvalidPayload:
		return "invalid_payload"
	default:
		return "internal_error"
	}
}

// Error is the application error type. Field names the offending input
// field or state detail when one exists.
type Error struct {
	Kind    Kind   `json:"-"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err if it is (or wraps) an *Error,
// KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// AsError extracts the *Error wrapped in err, if any.
func AsError(err error, target **Error) bool {
	return errors.As(err, target)
}

func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Message: message, Field: field}
}

func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

func NotOwner(resource string) *Error {
	return &Error{Kind: KindNotOwner, Message: fmt.Sprintf("actor does not own this %s", resource)}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindNotOwner, Message: message}
}

func DuplicateOffer() *Error {
	return &Error{Kind: KindDuplicateOffer, Message: "an offer for this request already exists, edit it instead"}
}

func IllegalTransition(from, to string) *Error {
	return &Error{
		Kind:    KindIllegalTransition,
		Message: fmt.Sprintf("transition from %s to %s is not allowed", from, to),
		Field:   "status",
	}
}

func TerminalState(status string) *Error {
	return &Error{
		Kind:    KindTerminalState,
		Message: fmt.Sprintf("booking is in terminal status %s", status),
		Field:   "status",
	}
}

func TooEarly(message string) *Error {
	return &Error{Kind: KindTooEarly, Message: message, Field: "scheduled_at"}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func NotEditable(message string) *Error {
	return &Error{Kind: KindNotEditable, Message: message}
}

func InvalidPayload(message string) *Error {
	return &Error{Kind: KindInvalidPayload, Message: message, Field: "payload"}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}
