package rental

import (
	"time"

	"rentbook-backend/models"
)

// ValidateWindow checks a requested [start, end) window.
func ValidateWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return Validation("start and end datetime are required")
	}
	if !end.After(start) {
		return Validation("end datetime must be after start datetime")
	}
	return nil
}

// Overlaps is the half-open interval test used for every booking conflict:
// [aStart, aEnd) and [bStart, bEnd) share at least one instant.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// FirstConflict returns the first booking in existing that holds the unit
// during [start, end), ignoring excludeID (0 excludes nothing).
func FirstConflict(existing []models.Booking, start, end time.Time, excludeID uint) *models.Booking {
	for i := range existing {
		b := &existing[i]
		if excludeID != 0 && b.ID == excludeID {
			continue
		}
		if !b.Status.HoldsUnit() {
			continue
		}
		if Overlaps(b.StartAt, b.EndAt, start, end) {
			return b
		}
	}
	return nil
}

// IsAvailable is FirstConflict as a predicate.
func IsAvailable(existing []models.Booking, start, end time.Time, excludeID uint) bool {
	return FirstConflict(existing, start, end, excludeID) == nil
}
