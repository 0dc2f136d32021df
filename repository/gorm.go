package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentbook-backend/database"
	"rentbook-backend/models"
	"rentbook-backend/rental"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Postgres SQLSTATE codes translated into rental errors.
const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

// GormStore runs every Atomic call in one Postgres transaction.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

type gormTx struct {
	db *gorm.DB
}

// translate maps driver errors onto the rental error classes.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rental.NotFound("%s not found", what)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgExclusionViolation:
			return rental.Conflict("unit is already booked for the requested period")
		case pgUniqueViolation:
			return rental.Conflict("%s already exists", what)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

func (t *gormTx) q(ctx context.Context) *gorm.DB {
	return t.db.WithContext(ctx)
}

func lockIf(db *gorm.DB, lock bool) *gorm.DB {
	if lock {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

// ---- tenants & users

func (t *gormTx) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	return translate(t.q(ctx).Create(tenant).Error, "tenant")
}

func (t *gormTx) FindTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := t.q(ctx).Where("slug = ?", slug).First(&tenant).Error; err != nil {
		return nil, translate(err, "tenant")
	}
	return &tenant, nil
}

func (t *gormTx) CreateUser(ctx context.Context, u *models.User) error {
	return translate(t.q(ctx).Create(u).Error, "user")
}

func (t *gormTx) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := t.q(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

func (t *gormTx) GetUser(ctx context.Context, scope rental.Scope, id string) (*models.User, error) {
	var u models.User
	if err := t.q(ctx).Scopes(database.ForTenant(scope)).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

// ---- catalog

func (t *gormTx) CreateProperty(ctx context.Context, p *models.Property) error {
	return translate(t.q(ctx).Create(p).Error, "property")
}

func (t *gormTx) GetProperty(ctx context.Context, scope rental.Scope, id uint) (*models.Property, error) {
	var p models.Property
	if err := t.q(ctx).Scopes(database.ForTenant(scope)).First(&p, id).Error; err != nil {
		return nil, translate(err, "property")
	}
	return &p, nil
}

func (t *gormTx) ListProperties(ctx context.Context, scope rental.Scope) ([]models.Property, error) {
	var out []models.Property
	err := t.q(ctx).Scopes(database.ForTenant(scope)).Order("id").Find(&out).Error
	return out, translate(err, "properties")
}

func (t *gormTx) CreateUnit(ctx context.Context, u *models.Unit) error {
	return translate(t.q(ctx).Create(u).Error, "unit")
}

func (t *gormTx) GetUnit(ctx context.Context, scope rental.Scope, id uint, lock bool) (*models.Unit, error) {
	var u models.Unit
	db := lockIf(t.q(ctx).Scopes(database.ForTenant(scope)), lock)
	if err := db.First(&u, id).Error; err != nil {
		return nil, translate(err, "unit")
	}
	return &u, nil
}

func (t *gormTx) ListUnits(ctx context.Context, scope rental.Scope, propertyID uint) ([]models.Unit, error) {
	var out []models.Unit
	db := t.q(ctx).Scopes(database.ForTenant(scope))
	if propertyID != 0 {
		db = db.Where("property_id = ?", propertyID)
	}
	err := db.Order("id").Find(&out).Error
	return out, translate(err, "units")
}

func (t *gormTx) SaveUnit(ctx context.Context, u *models.Unit) error {
	return translate(t.q(ctx).Save(u).Error, "unit")
}

func (t *gormTx) CreateAddOn(ctx context.Context, a *models.AddOn) error {
	return translate(t.q(ctx).Create(a).Error, "add-on")
}

func (t *gormTx) GetAddOn(ctx context.Context, scope rental.Scope, id uint) (*models.AddOn, error) {
	var a models.AddOn
	if err := t.q(ctx).Scopes(database.ForTenant(scope)).First(&a, id).Error; err != nil {
		return nil, translate(err, "add-on")
	}
	return &a, nil
}

func (t *gormTx) ListAddOns(ctx context.Context, scope rental.Scope, activeOnly bool) ([]models.AddOn, error) {
	var out []models.AddOn
	db := t.q(ctx).Scopes(database.ForTenant(scope))
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("id").Find(&out).Error
	return out, translate(err, "add-ons")
}

func (t *gormTx) FindAddOns(ctx context.Context, tenantID uint, ids []uint) ([]models.AddOn, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []models.AddOn
	err := t.q(ctx).Where("tenant_id = ? AND id IN ?", tenantID, ids).Find(&out).Error
	return out, translate(err, "add-ons")
}

func (t *gormTx) SaveAddOn(ctx context.Context, a *models.AddOn) error {
	return translate(t.q(ctx).Save(a).Error, "add-on")
}

// ---- bookings

func (t *gormTx) FindBlockingBookings(ctx context.Context, unitID uint, start, end time.Time, excludeID uint) ([]models.Booking, error) {
	var out []models.Booking
	db := t.q(ctx).
		Where("unit_id = ?", unitID).
		Where("status NOT IN ?", models.NonBlockingBookingStatuses).
		Where("start_at < ? AND end_at > ?", end, start)
	if excludeID != 0 {
		db = db.Where("id <> ?", excludeID)
	}
	err := db.Order("start_at").Find(&out).Error
	return out, translate(err, "bookings")
}

func (t *gormTx) CreateBooking(ctx context.Context, b *models.Booking) error {
	return translate(t.q(ctx).Create(b).Error, "booking")
}

func (t *gormTx) GetBooking(ctx context.Context, scope rental.Scope, id uint, lock bool) (*models.Booking, error) {
	var b models.Booking
	db := lockIf(t.q(ctx).Scopes(database.ForCustomer(scope)), lock)
	if err := db.First(&b, id).Error; err != nil {
		return nil, translate(err, "booking")
	}
	// Loaded separately so the row lock does not spread to the snapshots.
	if err := t.q(ctx).Where("booking_id = ?", b.ID).Order("id").Find(&b.AddOns).Error; err != nil {
		return nil, translate(err, "booking add-ons")
	}
	return &b, nil
}

func (t *gormTx) ListBookings(ctx context.Context, scope rental.Scope, f BookingFilter) ([]models.Booking, int64, error) {
	db := t.q(ctx).Model(&models.Booking{}).Scopes(database.ForCustomer(scope))
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.UnitID != 0 {
		db = db.Where("unit_id = ?", f.UnitID)
	}
	if f.CustomerID != "" {
		db = db.Where("customer_id = ?", f.CustomerID)
	}
	if !f.From.IsZero() && !f.To.IsZero() {
		db = db.Where("start_at < ? AND end_at > ?", f.To, f.From)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "bookings")
	}
	var out []models.Booking
	err := db.Preload("AddOns").
		Order("start_at DESC").
		Offset(f.offset()).
		Limit(f.limit()).
		Find(&out).Error
	return out, total, translate(err, "bookings")
}

func (t *gormTx) SaveBooking(ctx context.Context, b *models.Booking) error {
	err := t.q(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(b).Error
	return translate(err, "booking")
}

// ---- invoices & payments

func (t *gormTx) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	return translate(t.q(ctx).Create(inv).Error, "invoice")
}

func (t *gormTx) GetInvoice(ctx context.Context, scope rental.Scope, id uint, lock bool) (*models.Invoice, error) {
	var inv models.Invoice
	db := lockIf(t.q(ctx).Scopes(database.ForCustomer(scope)), lock)
	if err := db.First(&inv, id).Error; err != nil {
		return nil, translate(err, "invoice")
	}
	return &inv, nil
}

func (t *gormTx) ListInvoices(ctx context.Context, scope rental.Scope, f InvoiceFilter) ([]models.Invoice, error) {
	var out []models.Invoice
	db := t.q(ctx).Scopes(database.ForCustomer(scope))
	if f.BookingID != 0 {
		db = db.Where("booking_id = ?", f.BookingID)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	err := db.Order("issue_date, id").Find(&out).Error
	return out, translate(err, "invoices")
}

func (t *gormTx) InvoiceExistsForPeriod(ctx context.Context, bookingID uint, month, year int) (bool, error) {
	var n int64
	err := t.q(ctx).Model(&models.Invoice{}).
		Where("booking_id = ? AND period_month = ? AND period_year = ?", bookingID, month, year).
		Where("status <> ?", models.InvoiceCanceled).
		Count(&n).Error
	return n > 0, translate(err, "invoices")
}

func (t *gormTx) SaveInvoice(ctx context.Context, inv *models.Invoice) error {
	return translate(t.q(ctx).Save(inv).Error, "invoice")
}

func (t *gormTx) MarkOverdue(ctx context.Context, scope rental.Scope, today time.Time) (int64, error) {
	res := t.q(ctx).Model(&models.Invoice{}).
		Scopes(database.ForTenant(scope)).
		Where("status IN ?", []models.InvoiceStatus{models.InvoiceUnpaid, models.InvoicePartial}).
		Where("due_date < ?", rental.DateOf(today).Format("2006-01-02")).
		Update("status", models.InvoiceOverdue)
	return res.RowsAffected, translate(res.Error, "invoices")
}

func (t *gormTx) CreatePayment(ctx context.Context, p *models.Payment) error {
	return translate(t.q(ctx).Create(p).Error, "payment")
}

func (t *gormTx) GetPayment(ctx context.Context, scope rental.Scope, id uint) (*models.Payment, error) {
	var p models.Payment
	if err := t.q(ctx).Scopes(database.ForTenant(scope)).First(&p, id).Error; err != nil {
		return nil, translate(err, "payment")
	}
	return &p, nil
}

func (t *gormTx) ListPayments(ctx context.Context, scope rental.Scope, invoiceID uint) ([]models.Payment, error) {
	var out []models.Payment
	err := t.q(ctx).Scopes(database.ForTenant(scope)).
		Where("invoice_id = ?", invoiceID).
		Order("paid_at, id").
		Find(&out).Error
	return out, translate(err, "payments")
}

func (t *gormTx) PaymentTotals(ctx context.Context, invoiceID uint) (PaymentTotals, error) {
	var totals PaymentTotals
	err := t.q(ctx).Model(&models.Payment{}).
		Select(
			"COALESCE(SUM(CASE WHEN status = ? THEN amount ELSE 0 END), 0) AS succeeded, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN amount ELSE 0 END), 0) AS refunded",
			models.PaymentSuccess, models.PaymentRefunded,
		).
		Where("invoice_id = ?", invoiceID).
		Scan(&totals).Error
	return totals, translate(err, "payments")
}

// ---- reviews

func (t *gormTx) CreateReview(ctx context.Context, r *models.Review) error {
	return translate(t.q(ctx).Create(r).Error, "review")
}

func (t *gormTx) ListReviews(ctx context.Context, scope rental.Scope, f ReviewFilter) ([]models.Review, int64, error) {
	db := t.q(ctx).Model(&models.Review{}).Scopes(database.ForTenant(scope)).Where("is_approved = ?", true)
	if f.PropertyID != 0 {
		db = db.Where("property_id = ?", f.PropertyID)
	}
	if f.UnitID != 0 {
		db = db.Where("unit_id = ?", f.UnitID)
	}
	if f.Rating != 0 {
		db = db.Where("rating = ?", f.Rating)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "reviews")
	}
	var out []models.Review
	err := db.Order("created_at DESC, id DESC").
		Offset(f.offset()).
		Limit(f.limit()).
		Find(&out).Error
	return out, total, translate(err, "reviews")
}

func (t *gormTx) RefundedAmount(ctx context.Context, paymentID uint) (float64, error) {
	var total float64
	err := t.q(ctx).Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("refund_of = ? AND status = ?", paymentID, models.PaymentRefunded).
		Scan(&total).Error
	return total, translate(err, "payments")
}

// ---- numbering, settings, audit, idempotency

func (t *gormTx) NextSequence(ctx context.Context, tenantID uint, scope, period string) (int64, error) {
	var v int64
	err := t.q(ctx).Raw(`
INSERT INTO sequences (tenant_id, scope, period, value)
VALUES (?, ?, ?, 1)
ON CONFLICT (tenant_id, scope, period)
DO UPDATE SET value = sequences.value + 1
RETURNING value`, tenantID, scope, period).Scan(&v).Error
	return v, translate(err, "sequence")
}

func (t *gormTx) GetSetting(ctx context.Context, tenantID uint, key string) (string, bool, error) {
	var s models.Setting
	err := t.q(ctx).Where("tenant_id = ? AND key = ?", tenantID, key).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, translate(err, "setting")
	}
	return s.Value, true, nil
}

func (t *gormTx) ListSettings(ctx context.Context, tenantID uint) ([]models.Setting, error) {
	var out []models.Setting
	err := t.q(ctx).Where("tenant_id = ?", tenantID).Order("key").Find(&out).Error
	return out, translate(err, "settings")
}

func (t *gormTx) PutSetting(ctx context.Context, tenantID uint, key, value string) error {
	s := models.Setting{TenantID: tenantID, Key: key, Value: value}
	err := t.q(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&s).Error
	return translate(err, "setting")
}

func (t *gormTx) RecordActivity(ctx context.Context, a *models.ActivityLog) error {
	return translate(t.q(ctx).Create(a).Error, "activity log")
}

func (t *gormTx) FindIdempotencyKey(ctx context.Context, tenantID uint, key string) (*models.IdempotencyKey, error) {
	var k models.IdempotencyKey
	err := t.q(ctx).Where("tenant_id = ? AND key = ?", tenantID, key).First(&k).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, "idempotency key")
	}
	return &k, nil
}

func (t *gormTx) CreateIdempotencyKey(ctx context.Context, k *models.IdempotencyKey) error {
	return translate(t.q(ctx).Create(k).Error, "idempotency key")
}

func (t *gormTx) CompleteIdempotencyKey(ctx context.Context, tenantID uint, key string, status int, body []byte, at time.Time) error {
	err := t.q(ctx).Model(&models.IdempotencyKey{}).
		Where("tenant_id = ? AND key = ?", tenantID, key).
		Updates(map[string]any{
			"response_status": status,
			"response_body":   body,
			"completed_at":    &at,
		}).Error
	return translate(err, "idempotency key")
}

func (t *gormTx) DeleteIdempotencyKey(ctx context.Context, tenantID uint, key string) error {
	err := t.q(ctx).Where("tenant_id = ? AND key = ?", tenantID, key).Delete(&models.IdempotencyKey{}).Error
	return translate(err, "idempotency key")
}
