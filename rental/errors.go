package rental

import (
	"errors"
	"fmt"

	"rentbook-backend/models"
)

// Error classes returned by the booking engine. Callers match them with
// errors.Is; the HTTP layer maps them to status codes.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidState      = errors.New("invalid state")
	ErrValidation        = errors.New("validation failed")
)

type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindInvalidTransition Kind = "invalid_transition"
	KindInvalidState      Kind = "invalid_state"
	KindValidation        Kind = "validation_failed"
	KindInternal          Kind = "internal"
)

// KindOf classifies err. Unclassified errors are internal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	case errors.Is(err, ErrValidation):
		return KindValidation
	}
	return KindInternal
}

type classified struct {
	class error
	msg   string
}

func (e *classified) Error() string { return e.msg }
func (e *classified) Unwrap() error { return e.class }

func NotFound(format string, args ...any) error {
	return &classified{class: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &classified{class: ErrConflict, msg: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...any) error {
	return &classified{class: ErrInvalidState, msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error {
	return &classified{class: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

// TransitionError names the rejected edge.
type TransitionError struct {
	From models.BookingStatus
	To   models.BookingStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
