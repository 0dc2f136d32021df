package rental

import (
	"errors"
	"testing"
	"time"

	"rentbook-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	allowed := [][2]models.BookingStatus{
		{models.BookingDraft, models.BookingPendingPayment},
		{models.BookingDraft, models.BookingCanceled},
		{models.BookingPendingPayment, models.BookingConfirmed},
		{models.BookingPendingPayment, models.BookingCanceled},
		{models.BookingConfirmed, models.BookingCheckedIn},
		{models.BookingConfirmed, models.BookingCanceled},
		{models.BookingCheckedIn, models.BookingCheckedOut},
		{models.BookingCheckedOut, models.BookingCompleted},
	}
	for _, e := range allowed {
		assert.True(t, CanTransition(e[0], e[1]), "%s -> %s", e[0], e[1])
	}

	denied := [][2]models.BookingStatus{
		{models.BookingDraft, models.BookingConfirmed},
		{models.BookingPendingPayment, models.BookingCheckedIn},
		{models.BookingCheckedIn, models.BookingCanceled},
		{models.BookingCompleted, models.BookingCanceled},
		{models.BookingCanceled, models.BookingPendingPayment},
		{models.BookingConfirmed, models.BookingConfirmed},
	}
	for _, e := range denied {
		assert.False(t, CanTransition(e[0], e[1]), "%s -> %s", e[0], e[1])
	}

	assert.True(t, IsTerminal(models.BookingCanceled))
	assert.True(t, IsTerminal(models.BookingCompleted))
	assert.Empty(t, AllowedTransitions(models.BookingCompleted))
}

func TestApplyTransitionStampsTimes(t *testing.T) {
	now := time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC)
	b := &models.Booking{Status: models.BookingConfirmed}

	require.NoError(t, ApplyTransition(b, models.BookingCheckedIn, TransitionOptions{Now: now}))
	require.NotNil(t, b.CheckInAt)
	assert.Equal(t, now, *b.CheckInAt)

	out := now.Add(48 * time.Hour)
	require.NoError(t, ApplyTransition(b, models.BookingCheckedOut, TransitionOptions{Now: now, At: &out}))
	assert.Equal(t, out, *b.CheckOutAt)
	assert.Equal(t, models.BookingCheckedOut, b.Status)
}

func TestApplyTransitionCancel(t *testing.T) {
	now := time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC)
	b := &models.Booking{Status: models.BookingPendingPayment}

	require.NoError(t, ApplyTransition(b, models.BookingCanceled, TransitionOptions{Now: now, Reason: "plans changed"}))
	assert.Equal(t, models.BookingCanceled, b.Status)
	assert.Equal(t, "plans changed", b.CancellationReason)
	assert.Equal(t, now, *b.CanceledAt)
}

func TestApplyTransitionRejectsIllegalEdge(t *testing.T) {
	b := &models.Booking{Status: models.BookingDraft}

	err := ApplyTransition(b, models.BookingCheckedIn, TransitionOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, models.BookingDraft, te.From)
	assert.Equal(t, models.BookingCheckedIn, te.To)
	assert.Equal(t, models.BookingDraft, b.Status)
	assert.Nil(t, b.CheckInAt)

	err = ApplyTransition(b, "archived", TransitionOptions{})
	assert.ErrorIs(t, err, ErrValidation)
}
