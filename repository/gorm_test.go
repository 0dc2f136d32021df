package repository

import (
	"context"
	"errors"
	"testing"

	"rentbook-backend/models"
	"rentbook-backend/rental"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupMockStore(t *testing.T) (sqlmock.Sqlmock, *GormStore) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return mock, NewGormStore(gdb)
}

func TestTranslate(t *testing.T) {
	assert.Nil(t, translate(nil, "x"))
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound, "booking"), rental.ErrNotFound)
	assert.ErrorIs(t, translate(&pgconn.PgError{Code: "23P01"}, "booking"), rental.ErrConflict)
	assert.ErrorIs(t, translate(&pgconn.PgError{Code: "23505"}, "invoice"), rental.ErrConflict)

	other := errors.New("connection reset")
	err := translate(other, "booking")
	assert.ErrorIs(t, err, other)
	assert.Equal(t, rental.KindInternal, rental.KindOf(err))
}

func TestGormNextSequence(t *testing.T) {
	mock, store := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO sequences`).
		WithArgs(uint(1), "booking", "20250701").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(3))
	mock.ExpectCommit()

	var got int64
	err := store.Atomic(context.Background(), func(tx Tx) error {
		var err error
		got, err = tx.NextSequence(context.Background(), 1, "booking", "20250701")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormGetBookingNotFound(t *testing.T) {
	mock, store := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := store.Atomic(context.Background(), func(tx Tx) error {
		_, err := tx.GetBooking(context.Background(), staffOf1, 42, true)
		return err
	})
	assert.ErrorIs(t, err, rental.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCreateBookingExclusionViolation(t *testing.T) {
	mock, store := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "bookings"`).
		WillReturnError(&pgconn.PgError{Code: "23P01", ConstraintName: "excl_bookings_unit_window"})
	mock.ExpectRollback()

	err := store.Atomic(context.Background(), func(tx Tx) error {
		return tx.CreateBooking(context.Background(), &models.Booking{
			TenantID: 1, UnitID: 7, BookingNumber: "BK-20250701-0001",
			Status: models.BookingPendingPayment, StartAt: day(1), EndAt: day(3),
		})
	})
	assert.Equal(t, rental.KindConflict, rental.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormMarkOverdue(t *testing.T) {
	mock, store := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "invoices" SET "status"=.*WHERE .*status IN .*due_date <.*tenant_id = `).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	var n int64
	err := store.Atomic(context.Background(), func(tx Tx) error {
		var err error
		n, err = tx.MarkOverdue(context.Background(), staffOf1, day(10))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormMarkOverdueSuperAdminScopes(t *testing.T) {
	mock, store := setupMockStore(t)
	pinned := rental.Scope{TenantID: 2, UserID: "root", Role: models.RoleSuperAdmin}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "invoices" SET .*tenant_id = `).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "invoices" SET .* WHERE status IN \(.*\) AND due_date < \$\d+$`).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	for _, scope := range []rental.Scope{pinned, rental.SystemScope()} {
		err := store.Atomic(context.Background(), func(tx Tx) error {
			_, err := tx.MarkOverdue(context.Background(), scope, day(10))
			return err
		})
		require.NoError(t, err)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormListReviews(t *testing.T) {
	mock, store := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "reviews" WHERE is_approved = .* AND unit_id = .*tenant_id = `).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT \* FROM "reviews" WHERE is_approved = .* AND unit_id = .*tenant_id = .*ORDER BY created_at DESC, id DESC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "booking_id", "unit_id", "rating", "is_approved"}).
			AddRow(4, 1, 9, 3, 5, true))
	mock.ExpectCommit()

	scope := rental.Scope{TenantID: 1, Role: models.RoleStaff}
	var (
		out   []models.Review
		total int64
	)
	err := store.Atomic(context.Background(), func(tx Tx) error {
		var err error
		out, total, err = tx.ListReviews(context.Background(), scope, ReviewFilter{UnitID: 3})
		return err
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, out, 1)
	assert.Equal(t, 5, out[0].Rating)
	assert.NoError(t, mock.ExpectationsWereMet())
}
