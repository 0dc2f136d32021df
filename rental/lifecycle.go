package rental

import (
	"time"

	"rentbook-backend/models"
)

var transitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingDraft:          {models.BookingPendingPayment, models.BookingCanceled},
	models.BookingPendingPayment: {models.BookingConfirmed, models.BookingCanceled},
	models.BookingConfirmed:      {models.BookingCheckedIn, models.BookingCanceled},
	models.BookingCheckedIn:      {models.BookingCheckedOut},
	models.BookingCheckedOut:     {models.BookingCompleted},
	models.BookingCanceled:       nil,
	models.BookingCompleted:      nil,
}

// AllowedTransitions lists the statuses reachable from from in one step.
func AllowedTransitions(from models.BookingStatus) []models.BookingStatus {
	next := transitions[from]
	out := make([]models.BookingStatus, len(next))
	copy(out, next)
	return out
}

func CanTransition(from, to models.BookingStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func IsTerminal(s models.BookingStatus) bool {
	return s == models.BookingCanceled || s == models.BookingCompleted
}

type TransitionOptions struct {
	// At overrides the check-in / check-out timestamp.
	At     *time.Time
	Reason string
	Now    time.Time
}

// ApplyTransition moves b to status to, stamping the lifecycle timestamps.
// b is left untouched when the edge is illegal.
func ApplyTransition(b *models.Booking, to models.BookingStatus, opts TransitionOptions) error {
	if !to.Valid() {
		return Validation("unknown booking status %q", to)
	}
	if !CanTransition(b.Status, to) {
		return &TransitionError{From: b.Status, To: to}
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	stamp := now
	if opts.At != nil {
		stamp = *opts.At
	}
	switch to {
	case models.BookingCheckedIn:
		b.CheckInAt = &stamp
	case models.BookingCheckedOut:
		b.CheckOutAt = &stamp
	case models.BookingCanceled:
		b.CanceledAt = &now
		b.CancellationReason = opts.Reason
	}
	b.Status = to
	return nil
}
