package rental

import (
	"testing"
	"time"

	"rentbook-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day, hour int) time.Time {
	return time.Date(2025, time.March, day, hour, 0, 0, 0, time.UTC)
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	// back-to-back windows share no instant
	assert.False(t, Overlaps(at(1, 14), at(3, 12), at(3, 12), at(5, 12)))
	assert.False(t, Overlaps(at(3, 12), at(5, 12), at(1, 14), at(3, 12)))

	assert.True(t, Overlaps(at(1, 14), at(3, 13), at(3, 12), at(5, 12)))
	// containment
	assert.True(t, Overlaps(at(1, 0), at(10, 0), at(3, 0), at(4, 0)))
	assert.True(t, Overlaps(at(3, 0), at(4, 0), at(1, 0), at(10, 0)))
}

func TestFirstConflictIgnoresNonBlockingAndExcluded(t *testing.T) {
	existing := []models.Booking{
		{ID: 1, Status: models.BookingCanceled, StartAt: at(1, 0), EndAt: at(5, 0)},
		{ID: 2, Status: models.BookingDraft, StartAt: at(1, 0), EndAt: at(5, 0)},
		{ID: 3, Status: models.BookingConfirmed, StartAt: at(2, 0), EndAt: at(4, 0)},
	}

	c := FirstConflict(existing, at(3, 0), at(6, 0), 0)
	require.NotNil(t, c)
	assert.Equal(t, uint(3), c.ID)

	assert.Nil(t, FirstConflict(existing, at(3, 0), at(6, 0), 3))
	assert.True(t, IsAvailable(existing, at(4, 0), at(6, 0), 0))
	assert.False(t, IsAvailable(existing, at(1, 0), at(2, 1), 0))
}

func TestValidateWindow(t *testing.T) {
	assert.NoError(t, ValidateWindow(at(1, 0), at(1, 1)))

	err := ValidateWindow(at(1, 1), at(1, 1))
	assert.ErrorIs(t, err, ErrValidation)

	err = ValidateWindow(time.Time{}, at(1, 1))
	assert.Equal(t, KindValidation, KindOf(err))
}
