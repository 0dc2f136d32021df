package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"rentbook-backend/models"
	"rentbook-backend/rental"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var staffOf1 = rental.Scope{TenantID: 1, UserID: "staff", Role: models.RoleStaff}

func day(d int) time.Time {
	return time.Date(2025, time.July, d, 14, 0, 0, 0, time.UTC)
}

func seedBooking(t *testing.T, s *MemoryStore, b models.Booking) models.Booking {
	t.Helper()
	err := s.Atomic(context.Background(), func(tx Tx) error {
		return tx.CreateBooking(context.Background(), &b)
	})
	require.NoError(t, err)
	return b
}

func TestMemoryStoreRollsBackOnError(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Atomic(ctx, func(tx Tx) error {
		if err := tx.CreateProperty(ctx, &models.Property{TenantID: 1, Name: "Villa"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_ = s.Atomic(ctx, func(tx Tx) error {
		props, err := tx.ListProperties(ctx, staffOf1)
		require.NoError(t, err)
		assert.Empty(t, props)
		return nil
	})
}

func TestMemoryStoreRejectsOverlappingHolds(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedBooking(t, s, models.Booking{TenantID: 1, UnitID: 7, BookingNumber: "BK-1", Status: models.BookingConfirmed, StartAt: day(1), EndAt: day(5)})

	err := s.Atomic(ctx, func(tx Tx) error {
		return tx.CreateBooking(ctx, &models.Booking{TenantID: 1, UnitID: 7, BookingNumber: "BK-2",
			Status: models.BookingPendingPayment, StartAt: day(4), EndAt: day(6)})
	})
	assert.Equal(t, rental.KindConflict, rental.KindOf(err))

	// drafts and back-to-back windows do not collide
	seedBooking(t, s, models.Booking{TenantID: 1, UnitID: 7, BookingNumber: "BK-3", Status: models.BookingDraft, StartAt: day(2), EndAt: day(3)})
	seedBooking(t, s, models.Booking{TenantID: 1, UnitID: 7, BookingNumber: "BK-4", Status: models.BookingConfirmed, StartAt: day(5), EndAt: day(8)})

	_ = s.Atomic(ctx, func(tx Tx) error {
		blocking, err := tx.FindBlockingBookings(ctx, 7, day(1), day(30), 0)
		require.NoError(t, err)
		require.Len(t, blocking, 2)
		assert.Equal(t, "BK-1", blocking[0].BookingNumber)
		assert.Equal(t, "BK-4", blocking[1].BookingNumber)
		return nil
	})
}

func TestMemoryStoreBookingNumberUniquePerTenant(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedBooking(t, s, models.Booking{TenantID: 1, UnitID: 1, BookingNumber: "BK-1", Status: models.BookingConfirmed, StartAt: day(1), EndAt: day(2)})
	seedBooking(t, s, models.Booking{TenantID: 2, UnitID: 2, BookingNumber: "BK-1", Status: models.BookingConfirmed, StartAt: day(1), EndAt: day(2)})

	err := s.Atomic(ctx, func(tx Tx) error {
		return tx.CreateBooking(ctx, &models.Booking{TenantID: 1, UnitID: 3, BookingNumber: "BK-1",
			Status: models.BookingConfirmed, StartAt: day(1), EndAt: day(2)})
	})
	assert.ErrorIs(t, err, rental.ErrConflict)
}

func TestMemoryStoreScopesBookings(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	mine := seedBooking(t, s, models.Booking{TenantID: 1, UnitID: 1, CustomerID: "cust-a", BookingNumber: "BK-1",
		Status: models.BookingConfirmed, StartAt: day(1), EndAt: day(2)})
	other := seedBooking(t, s, models.Booking{TenantID: 1, UnitID: 2, CustomerID: "cust-b", BookingNumber: "BK-2",
		Status: models.BookingConfirmed, StartAt: day(1), EndAt: day(2)})

	customer := rental.Scope{TenantID: 1, UserID: "cust-a", Role: models.RoleCustomer}
	otherTenant := rental.Scope{TenantID: 2, UserID: "x", Role: models.RoleOwner}

	_ = s.Atomic(ctx, func(tx Tx) error {
		_, err := tx.GetBooking(ctx, customer, mine.ID, false)
		assert.NoError(t, err)
		_, err = tx.GetBooking(ctx, customer, other.ID, false)
		assert.ErrorIs(t, err, rental.ErrNotFound)
		_, err = tx.GetBooking(ctx, otherTenant, mine.ID, false)
		assert.ErrorIs(t, err, rental.ErrNotFound)

		list, total, err := tx.ListBookings(ctx, staffOf1, BookingFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, list, 2)
		return nil
	})
}

func TestMemoryStoreListBookingsPaginates(t *testing.T) {
	s := NewMemoryStore()
	for i := 1; i <= 5; i++ {
		seedBooking(t, s, models.Booking{TenantID: 1, UnitID: uint(i), BookingNumber: string(rune('A' + i)),
			Status: models.BookingConfirmed, StartAt: day(i), EndAt: day(i + 1)})
	}
	ctx := context.Background()
	_ = s.Atomic(ctx, func(tx Tx) error {
		page, total, err := tx.ListBookings(ctx, staffOf1, BookingFilter{Page: 2, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		require.Len(t, page, 2)
		// newest first
		assert.Equal(t, day(3), page[0].StartAt)
		assert.Equal(t, day(2), page[1].StartAt)

		page, _, err = tx.ListBookings(ctx, staffOf1, BookingFilter{Page: 9, Limit: 2})
		require.NoError(t, err)
		assert.Empty(t, page)
		return nil
	})
}

func TestMemoryStoreSequencesAndPaymentTotals(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.Atomic(ctx, func(tx Tx) error {
		a, _ := tx.NextSequence(ctx, 1, "booking", "20250701")
		b, _ := tx.NextSequence(ctx, 1, "booking", "20250701")
		c, _ := tx.NextSequence(ctx, 1, "booking", "20250702")
		d, _ := tx.NextSequence(ctx, 2, "booking", "20250701")
		assert.Equal(t, []int64{1, 2, 1, 1}, []int64{a, b, c, d})

		orig := &models.Payment{TenantID: 1, InvoiceID: 5, PaymentNumber: "PAY-1", Amount: 100, Status: models.PaymentSuccess}
		require.NoError(t, tx.CreatePayment(ctx, orig))
		require.NoError(t, tx.CreatePayment(ctx, &models.Payment{TenantID: 1, InvoiceID: 5, PaymentNumber: "PAY-2", Amount: 50, Status: models.PaymentFailed}))
		require.NoError(t, tx.CreatePayment(ctx, &models.Payment{TenantID: 1, InvoiceID: 5, PaymentNumber: "PAY-3", Amount: 30,
			Status: models.PaymentRefunded, RefundOf: &orig.ID}))

		totals, err := tx.PaymentTotals(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, 100.0, totals.Succeeded)
		assert.Equal(t, 30.0, totals.Refunded)
		assert.Equal(t, 70.0, totals.Net())

		refunded, err := tx.RefundedAmount(ctx, orig.ID)
		require.NoError(t, err)
		assert.Equal(t, 30.0, refunded)
		return nil
	})
}

func TestMemoryStoreIdempotencyKeys(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.Atomic(ctx, func(tx Tx) error {
		k, err := tx.FindIdempotencyKey(ctx, 1, "abc")
		require.NoError(t, err)
		assert.Nil(t, k)

		require.NoError(t, tx.CreateIdempotencyKey(ctx, &models.IdempotencyKey{TenantID: 1, Key: "abc", RequestHash: "h"}))
		err = tx.CreateIdempotencyKey(ctx, &models.IdempotencyKey{TenantID: 1, Key: "abc"})
		assert.ErrorIs(t, err, rental.ErrConflict)
		// same key in another tenant is independent
		require.NoError(t, tx.CreateIdempotencyKey(ctx, &models.IdempotencyKey{TenantID: 2, Key: "abc"}))

		require.NoError(t, tx.CompleteIdempotencyKey(ctx, 1, "abc", 201, []byte(`{"id":1}`), day(1)))
		k, err = tx.FindIdempotencyKey(ctx, 1, "abc")
		require.NoError(t, err)
		require.NotNil(t, k)
		assert.Equal(t, 201, k.ResponseStatus)
		assert.JSONEq(t, `{"id":1}`, string(k.ResponseBody))
		return nil
	})
}
