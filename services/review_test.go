package services

import (
	"context"
	"testing"

	"rentbook-backend/models"
	"rentbook-backend/rental"
	"rentbook-backend/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkOut walks a booking to checked_out.
func (f *fixture) checkOut(t *testing.T, id uint) {
	t.Helper()
	for _, to := range []models.BookingStatus{models.BookingConfirmed, models.BookingCheckedIn, models.BookingCheckedOut} {
		_, err := f.svc.Bookings.ChangeStatus(context.Background(), f.staff, id, to, StatusInput{})
		require.NoError(t, err)
	}
}

func TestCreateReviewRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, july(10, 14), july(12, 14))
	in := ReviewInput{BookingID: b.ID, Rating: 5, Comment: "  Great stay  "}

	_, err := f.svc.Reviews.CreateReview(ctx, f.customer, in)
	assert.ErrorIs(t, err, rental.ErrInvalidState)

	f.checkOut(t, b.ID)

	_, err = f.svc.Reviews.CreateReview(ctx, f.staff, in)
	assert.ErrorIs(t, err, rental.ErrValidation)
	_, err = f.svc.Reviews.CreateReview(ctx, f.customer, ReviewInput{BookingID: b.ID, Rating: 0, Comment: "meh"})
	assert.ErrorIs(t, err, rental.ErrValidation)
	_, err = f.svc.Reviews.CreateReview(ctx, f.customer, ReviewInput{BookingID: b.ID, Rating: 3, Comment: "   "})
	assert.ErrorIs(t, err, rental.ErrValidation)

	stranger := rental.Scope{TenantID: f.tenantID, UserID: "someone-else", Role: models.RoleCustomer}
	_, err = f.svc.Reviews.CreateReview(ctx, stranger, in)
	assert.ErrorIs(t, err, rental.ErrNotFound)

	r, err := f.svc.Reviews.CreateReview(ctx, f.customer, in)
	require.NoError(t, err)
	assert.Equal(t, "Great stay", r.Comment)
	assert.Equal(t, f.daily.PropertyID, r.PropertyID)
	assert.Equal(t, f.daily.ID, r.UnitID)
	assert.Equal(t, f.customer.UserID, r.CustomerID)
	assert.True(t, r.IsApproved)

	_, err = f.svc.Reviews.CreateReview(ctx, f.customer, in)
	assert.ErrorIs(t, err, rental.ErrConflict)

	last := f.store.Activity()[len(f.store.Activity())-1]
	assert.Equal(t, "create_review", last.Action)
	assert.Equal(t, "review", last.EntityType)
	assert.Equal(t, r.ID, last.EntityID)
}

func TestListReviewsFiltersAndAverages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i, rating := range []int{5, 4, 2} {
		start := july(1+3*i, 14)
		b := f.book(t, start, start.AddDate(0, 0, 2))
		f.checkOut(t, b.ID)
		_, err := f.svc.Reviews.CreateReview(ctx, f.customer, ReviewInput{BookingID: b.ID, Rating: rating, Comment: "ok"})
		require.NoError(t, err)
	}

	page, err := f.svc.Reviews.ListReviews(ctx, f.staff, repository.ReviewFilter{UnitID: f.daily.ID, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Len(t, page.Reviews, 2)
	assert.InDelta(t, 3.67, page.AverageRating, 0.001)

	page, err = f.svc.Reviews.ListReviews(ctx, f.customer, repository.ReviewFilter{Rating: 4})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, 4.0, page.AverageRating)

	page, err = f.svc.Reviews.ListReviews(ctx, f.staff, repository.ReviewFilter{UnitID: f.monthly.ID})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Zero(t, page.AverageRating)

	other, _, _ := f.otherTenant(t)
	page, err = f.svc.Reviews.ListReviews(ctx, other, repository.ReviewFilter{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestMeReturnsCallerAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.Auth.Me(ctx, f.customer)
	require.NoError(t, err)
	assert.Equal(t, "cleo@example.test", u.Email)

	var adminID string
	require.NoError(t, f.store.Atomic(ctx, func(tx repository.Tx) error {
		admin := &models.User{Name: "Root", Email: "root@rentbook.test", Role: models.RoleSuperAdmin, Password: []byte("x")}
		err := tx.CreateUser(ctx, admin)
		adminID = admin.Id
		return err
	}))
	pinned := rental.Scope{TenantID: f.tenantID, UserID: adminID, Role: models.RoleSuperAdmin}
	u, err = f.svc.Auth.Me(ctx, pinned)
	require.NoError(t, err)
	assert.Equal(t, "root@rentbook.test", u.Email)

	_, err = f.svc.Auth.Me(ctx, rental.Scope{TenantID: f.tenantID, UserID: "gone", Role: models.RoleStaff})
	assert.ErrorIs(t, err, rental.ErrNotFound)
}
