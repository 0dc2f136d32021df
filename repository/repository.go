package repository

import (
	"context"
	"time"

	"rentbook-backend/models"
	"rentbook-backend/rental"
)

// Store is the single entry point to persistence. Every read and write runs
// inside Atomic; a non-nil error from fn rolls back everything fn wrote.
type Store interface {
	Atomic(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of operations available inside one transaction. Lookups
// taking a Scope return rental.ErrNotFound for rows outside it.
type Tx interface {
	// Tenants & users
	CreateTenant(ctx context.Context, t *models.Tenant) error
	FindTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, scope rental.Scope, id string) (*models.User, error)

	// Catalog
	CreateProperty(ctx context.Context, p *models.Property) error
	GetProperty(ctx context.Context, scope rental.Scope, id uint) (*models.Property, error)
	ListProperties(ctx context.Context, scope rental.Scope) ([]models.Property, error)
	CreateUnit(ctx context.Context, u *models.Unit) error
	// GetUnit with lock=true holds a row lock until the transaction ends.
	GetUnit(ctx context.Context, scope rental.Scope, id uint, lock bool) (*models.Unit, error)
	ListUnits(ctx context.Context, scope rental.Scope, propertyID uint) ([]models.Unit, error)
	SaveUnit(ctx context.Context, u *models.Unit) error
	CreateAddOn(ctx context.Context, a *models.AddOn) error
	GetAddOn(ctx context.Context, scope rental.Scope, id uint) (*models.AddOn, error)
	ListAddOns(ctx context.Context, scope rental.Scope, activeOnly bool) ([]models.AddOn, error)
	FindAddOns(ctx context.Context, tenantID uint, ids []uint) ([]models.AddOn, error)
	SaveAddOn(ctx context.Context, a *models.AddOn) error

	// Bookings
	// FindBlockingBookings returns bookings of unitID that hold the unit and
	// overlap [start, end), excluding excludeID.
	FindBlockingBookings(ctx context.Context, unitID uint, start, end time.Time, excludeID uint) ([]models.Booking, error)
	CreateBooking(ctx context.Context, b *models.Booking) error
	GetBooking(ctx context.Context, scope rental.Scope, id uint, lock bool) (*models.Booking, error)
	ListBookings(ctx context.Context, scope rental.Scope, f BookingFilter) ([]models.Booking, int64, error)
	SaveBooking(ctx context.Context, b *models.Booking) error

	// Invoices & payments
	CreateInvoice(ctx context.Context, inv *models.Invoice) error
	GetInvoice(ctx context.Context, scope rental.Scope, id uint, lock bool) (*models.Invoice, error)
	ListInvoices(ctx context.Context, scope rental.Scope, f InvoiceFilter) ([]models.Invoice, error)
	InvoiceExistsForPeriod(ctx context.Context, bookingID uint, month, year int) (bool, error)
	SaveInvoice(ctx context.Context, inv *models.Invoice) error
	// MarkOverdue flips unpaid/partial invoices due before today.
	MarkOverdue(ctx context.Context, scope rental.Scope, today time.Time) (int64, error)
	CreatePayment(ctx context.Context, p *models.Payment) error
	GetPayment(ctx context.Context, scope rental.Scope, id uint) (*models.Payment, error)
	ListPayments(ctx context.Context, scope rental.Scope, invoiceID uint) ([]models.Payment, error)
	PaymentTotals(ctx context.Context, invoiceID uint) (PaymentTotals, error)
	RefundedAmount(ctx context.Context, paymentID uint) (float64, error)

	// Reviews
	CreateReview(ctx context.Context, r *models.Review) error
	ListReviews(ctx context.Context, scope rental.Scope, f ReviewFilter) ([]models.Review, int64, error)

	// Numbering, settings, audit, idempotency
	NextSequence(ctx context.Context, tenantID uint, scope, period string) (int64, error)
	GetSetting(ctx context.Context, tenantID uint, key string) (string, bool, error)
	ListSettings(ctx context.Context, tenantID uint) ([]models.Setting, error)
	PutSetting(ctx context.Context, tenantID uint, key, value string) error
	RecordActivity(ctx context.Context, a *models.ActivityLog) error
	FindIdempotencyKey(ctx context.Context, tenantID uint, key string) (*models.IdempotencyKey, error)
	CreateIdempotencyKey(ctx context.Context, k *models.IdempotencyKey) error
	CompleteIdempotencyKey(ctx context.Context, tenantID uint, key string, status int, body []byte, at time.Time) error
	DeleteIdempotencyKey(ctx context.Context, tenantID uint, key string) error
}

type BookingFilter struct {
	Status     models.BookingStatus
	UnitID     uint
	CustomerID string
	// From/To select bookings overlapping [From, To) when both are set.
	From  time.Time
	To    time.Time
	Page  int
	Limit int
}

func (f BookingFilter) offset() int { return pageOffset(f.Page, f.Limit) }
func (f BookingFilter) limit() int { return pageLimit(f.Limit) }

func pageOffset(page, limit int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * pageLimit(limit)
}

func pageLimit(limit int) int {
	switch {
	case limit <= 0:
		return 20
	case limit > 100:
		return 100
	}
	return limit
}

// ReviewFilter selects approved reviews, newest first.
type ReviewFilter struct {
	PropertyID uint
	UnitID     uint
	Rating     int
	Page       int
	Limit      int
}

func (f ReviewFilter) offset() int { return pageOffset(f.Page, f.Limit) }
func (f ReviewFilter) limit() int { return pageLimit(f.Limit) }

type InvoiceFilter struct {
	BookingID uint
	Status    models.InvoiceStatus
}

// PaymentTotals aggregates the ledger of one invoice.
type PaymentTotals struct {
	Succeeded float64
	Refunded  float64
}

// Net is what counts towards the invoice's paid amount.
func (t PaymentTotals) Net() float64 { return t.Succeeded - t.Refunded }
