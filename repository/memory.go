package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"rentbook-backend/models"
	"rentbook-backend/rental"

	"github.com/google/uuid"
)

// MemoryStore keeps everything in process memory. Atomic calls are
// serialized and run against a private copy that replaces the live data
// only when fn succeeds. The same uniqueness and no-overlap rules the
// Postgres schema enforces are checked on write.
type MemoryStore struct {
	mu   sync.Mutex
	data *memData
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newMemData(), now: time.Now}
}

func (s *MemoryStore) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(&memTx{d: work, now: s.now}); err != nil {
		return err
	}
	s.data = work
	return nil
}

type settingKey struct {
	tenantID uint
	key      string
}

type sequenceKey struct {
	tenantID uint
	scope    string
	period   string
}

type memData struct {
	nextID     uint
	tenants    map[uint]models.Tenant
	users      map[string]models.User
	properties map[uint]models.Property
	units      map[uint]models.Unit
	addOns     map[uint]models.AddOn
	bookings   map[uint]models.Booking
	invoices   map[uint]models.Invoice
	payments   map[uint]models.Payment
	settings   map[settingKey]models.Setting
	sequences  map[sequenceKey]int64
	activity   []models.ActivityLog
	idem       map[settingKey]models.IdempotencyKey
	reviews    map[uint]models.Review
}

func newMemData() *memData {
	return &memData{
		tenants:    map[uint]models.Tenant{},
		users:      map[string]models.User{},
		properties: map[uint]models.Property{},
		units:      map[uint]models.Unit{},
		addOns:     map[uint]models.AddOn{},
		bookings:   map[uint]models.Booking{},
		invoices:   map[uint]models.Invoice{},
		payments:   map[uint]models.Payment{},
		settings:   map[settingKey]models.Setting{},
		sequences:  map[sequenceKey]int64{},
		idem:       map[settingKey]models.IdempotencyKey{},
		reviews:    map[uint]models.Review{},
	}
}

func cloneMap[K comparable, V any](m map[K]V, cp func(V) V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		if cp != nil {
			v = cp(v)
		}
		out[k] = v
	}
	return out
}

func cloneBooking(b models.Booking) models.Booking {
	if b.AddOns != nil {
		b.AddOns = append([]models.BookingAddOn(nil), b.AddOns...)
	}
	return b
}

func cloneIdem(k models.IdempotencyKey) models.IdempotencyKey {
	if k.ResponseBody != nil {
		k.ResponseBody = append([]byte(nil), k.ResponseBody...)
	}
	return k
}

func (d *memData) clone() *memData {
	return &memData{
		nextID:     d.nextID,
		tenants:    cloneMap(d.tenants, nil),
		users:      cloneMap(d.users, nil),
		properties: cloneMap(d.properties, nil),
		units:      cloneMap(d.units, nil),
		addOns:     cloneMap(d.addOns, nil),
		bookings:   cloneMap(d.bookings, cloneBooking),
		invoices:   cloneMap(d.invoices, nil),
		payments:   cloneMap(d.payments, nil),
		settings:   cloneMap(d.settings, nil),
		sequences:  cloneMap(d.sequences, nil),
		activity:   append([]models.ActivityLog(nil), d.activity...),
		idem:       cloneMap(d.idem, cloneIdem),
		reviews:    cloneMap(d.reviews, nil),
	}
}

type memTx struct {
	d   *memData
	now func() time.Time
}

func (t *memTx) id() uint {
	t.d.nextID++
	return t.d.nextID
}

// ---- tenants & users

func (t *memTx) CreateTenant(_ context.Context, tenant *models.Tenant) error {
	for _, existing := range t.d.tenants {
		if existing.Slug == tenant.Slug {
			return rental.Conflict("tenant already exists")
		}
	}
	tenant.ID = t.id()
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = t.now()
	}
	t.d.tenants[tenant.ID] = *tenant
	return nil
}

func (t *memTx) FindTenantBySlug(_ context.Context, slug string) (*models.Tenant, error) {
	for _, tenant := range t.d.tenants {
		if tenant.Slug == slug {
			return &tenant, nil
		}
	}
	return nil, rental.NotFound("tenant not found")
}

func (t *memTx) CreateUser(_ context.Context, u *models.User) error {
	for _, existing := range t.d.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return rental.Conflict("user already exists")
		}
	}
	if u.Id == "" {
		u.Id = uuid.NewString()
	}
	t.d.users[u.Id] = *u
	return nil
}

func (t *memTx) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range t.d.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, rental.NotFound("user not found")
}

func (t *memTx) GetUser(_ context.Context, scope rental.Scope, id string) (*models.User, error) {
	u, ok := t.d.users[id]
	if !ok || !userVisible(scope, u) {
		return nil, rental.NotFound("user not found")
	}
	return &u, nil
}

func userVisible(scope rental.Scope, u models.User) bool {
	if scope.AllTenants() {
		return true
	}
	return u.TenantID != nil && *u.TenantID == scope.TenantID
}

// ---- catalog

func (t *memTx) CreateProperty(_ context.Context, p *models.Property) error {
	p.ID = t.id()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = t.now()
	}
	t.d.properties[p.ID] = *p
	return nil
}

func (t *memTx) GetProperty(_ context.Context, scope rental.Scope, id uint) (*models.Property, error) {
	p, ok := t.d.properties[id]
	if !ok || !scope.Allows(p.TenantID) {
		return nil, rental.NotFound("property not found")
	}
	return &p, nil
}

func (t *memTx) ListProperties(_ context.Context, scope rental.Scope) ([]models.Property, error) {
	var out []models.Property
	for _, p := range t.d.properties {
		if scope.Allows(p.TenantID) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) CreateUnit(_ context.Context, u *models.Unit) error {
	u.ID = t.id()
	now := t.now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.Status == "" {
		u.Status = models.UnitAvailable
	}
	t.d.units[u.ID] = *u
	return nil
}

func (t *memTx) GetUnit(_ context.Context, scope rental.Scope, id uint, _ bool) (*models.Unit, error) {
	u, ok := t.d.units[id]
	if !ok || !scope.Allows(u.TenantID) {
		return nil, rental.NotFound("unit not found")
	}
	return &u, nil
}

func (t *memTx) ListUnits(_ context.Context, scope rental.Scope, propertyID uint) ([]models.Unit, error) {
	var out []models.Unit
	for _, u := range t.d.units {
		if !scope.Allows(u.TenantID) || (propertyID != 0 && u.PropertyID != propertyID) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) SaveUnit(_ context.Context, u *models.Unit) error {
	if _, ok := t.d.units[u.ID]; !ok {
		return rental.NotFound("unit not found")
	}
	u.UpdatedAt = t.now()
	t.d.units[u.ID] = *u
	return nil
}

func (t *memTx) CreateAddOn(_ context.Context, a *models.AddOn) error {
	a.ID = t.id()
	t.d.addOns[a.ID] = *a
	return nil
}

func (t *memTx) GetAddOn(_ context.Context, scope rental.Scope, id uint) (*models.AddOn, error) {
	a, ok := t.d.addOns[id]
	if !ok || !scope.Allows(a.TenantID) {
		return nil, rental.NotFound("add-on not found")
	}
	return &a, nil
}

func (t *memTx) ListAddOns(_ context.Context, scope rental.Scope, activeOnly bool) ([]models.AddOn, error) {
	var out []models.AddOn
	for _, a := range t.d.addOns {
		if !scope.Allows(a.TenantID) || (activeOnly && !a.IsActive) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) FindAddOns(_ context.Context, tenantID uint, ids []uint) ([]models.AddOn, error) {
	var out []models.AddOn
	for _, id := range ids {
		if a, ok := t.d.addOns[id]; ok && a.TenantID == tenantID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (t *memTx) SaveAddOn(_ context.Context, a *models.AddOn) error {
	if _, ok := t.d.addOns[a.ID]; !ok {
		return rental.NotFound("add-on not found")
	}
	t.d.addOns[a.ID] = *a
	return nil
}

// ---- bookings

func (t *memTx) FindBlockingBookings(_ context.Context, unitID uint, start, end time.Time, excludeID uint) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range t.d.bookings {
		if b.UnitID != unitID || b.ID == excludeID || !b.Status.HoldsUnit() {
			continue
		}
		if rental.Overlaps(b.StartAt, b.EndAt, start, end) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

// checkBooking mirrors the unique booking number and the exclusion
// constraint of the Postgres schema.
func (t *memTx) checkBooking(b *models.Booking) error {
	for _, other := range t.d.bookings {
		if other.ID == b.ID {
			continue
		}
		if other.TenantID == b.TenantID && other.BookingNumber == b.BookingNumber {
			return rental.Conflict("booking already exists")
		}
		if b.Status.HoldsUnit() && other.Status.HoldsUnit() && other.UnitID == b.UnitID &&
			rental.Overlaps(other.StartAt, other.EndAt, b.StartAt, b.EndAt) {
			return rental.Conflict("unit is already booked for the requested period")
		}
	}
	return nil
}

func (t *memTx) CreateBooking(_ context.Context, b *models.Booking) error {
	if err := t.checkBooking(b); err != nil {
		return err
	}
	b.ID = t.id()
	now := t.now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	for i := range b.AddOns {
		b.AddOns[i].ID = t.id()
		b.AddOns[i].BookingID = b.ID
	}
	t.d.bookings[b.ID] = cloneBooking(*b)
	return nil
}

func (t *memTx) GetBooking(_ context.Context, scope rental.Scope, id uint, _ bool) (*models.Booking, error) {
	b, ok := t.d.bookings[id]
	if !ok || !scope.CanSeeBooking(&b) {
		return nil, rental.NotFound("booking not found")
	}
	b = cloneBooking(b)
	return &b, nil
}

func (t *memTx) ListBookings(_ context.Context, scope rental.Scope, f BookingFilter) ([]models.Booking, int64, error) {
	var out []models.Booking
	for _, b := range t.d.bookings {
		if !scope.CanSeeBooking(&b) {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.UnitID != 0 && b.UnitID != f.UnitID {
			continue
		}
		if f.CustomerID != "" && b.CustomerID != f.CustomerID {
			continue
		}
		if !f.From.IsZero() && !f.To.IsZero() && !rental.Overlaps(b.StartAt, b.EndAt, f.From, f.To) {
			continue
		}
		out = append(out, cloneBooking(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].StartAt.After(out[j].StartAt)
	})
	total := int64(len(out))
	lo := min(f.offset(), len(out))
	hi := min(lo+f.limit(), len(out))
	return out[lo:hi], total, nil
}

func (t *memTx) SaveBooking(_ context.Context, b *models.Booking) error {
	if _, ok := t.d.bookings[b.ID]; !ok {
		return rental.NotFound("booking not found")
	}
	if err := t.checkBooking(b); err != nil {
		return err
	}
	b.UpdatedAt = t.now()
	for i := range b.AddOns {
		if b.AddOns[i].ID == 0 {
			b.AddOns[i].ID = t.id()
		}
		b.AddOns[i].BookingID = b.ID
	}
	t.d.bookings[b.ID] = cloneBooking(*b)
	return nil
}

// ---- invoices & payments

func invoiceVisible(scope rental.Scope, inv models.Invoice) bool {
	if !scope.Allows(inv.TenantID) {
		return false
	}
	return !scope.IsCustomer() || inv.CustomerID == scope.UserID
}

func (t *memTx) CreateInvoice(_ context.Context, inv *models.Invoice) error {
	for _, other := range t.d.invoices {
		if other.TenantID == inv.TenantID && other.InvoiceNumber == inv.InvoiceNumber {
			return rental.Conflict("invoice already exists")
		}
	}
	inv.ID = t.id()
	now := t.now()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	t.d.invoices[inv.ID] = *inv
	return nil
}

func (t *memTx) GetInvoice(_ context.Context, scope rental.Scope, id uint, _ bool) (*models.Invoice, error) {
	inv, ok := t.d.invoices[id]
	if !ok || !invoiceVisible(scope, inv) {
		return nil, rental.NotFound("invoice not found")
	}
	return &inv, nil
}

func (t *memTx) ListInvoices(_ context.Context, scope rental.Scope, f InvoiceFilter) ([]models.Invoice, error) {
	var out []models.Invoice
	for _, inv := range t.d.invoices {
		if !invoiceVisible(scope, inv) {
			continue
		}
		if f.BookingID != 0 && inv.BookingID != f.BookingID {
			continue
		}
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IssueDate.Equal(out[j].IssueDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].IssueDate.Before(out[j].IssueDate)
	})
	return out, nil
}

func (t *memTx) InvoiceExistsForPeriod(_ context.Context, bookingID uint, month, year int) (bool, error) {
	for _, inv := range t.d.invoices {
		if inv.BookingID != bookingID || inv.Status == models.InvoiceCanceled {
			continue
		}
		if inv.PeriodMonth != nil && inv.PeriodYear != nil && *inv.PeriodMonth == month && *inv.PeriodYear == year {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) SaveInvoice(_ context.Context, inv *models.Invoice) error {
	if _, ok := t.d.invoices[inv.ID]; !ok {
		return rental.NotFound("invoice not found")
	}
	inv.UpdatedAt = t.now()
	t.d.invoices[inv.ID] = *inv
	return nil
}

func (t *memTx) MarkOverdue(_ context.Context, scope rental.Scope, today time.Time) (int64, error) {
	var n int64
	for id, inv := range t.d.invoices {
		if !scope.Allows(inv.TenantID) || !rental.Overdue(&inv, today) {
			continue
		}
		inv.Status = models.InvoiceOverdue
		inv.UpdatedAt = t.now()
		t.d.invoices[id] = inv
		n++
	}
	return n, nil
}

func (t *memTx) CreatePayment(_ context.Context, p *models.Payment) error {
	for _, other := range t.d.payments {
		if other.TenantID == p.TenantID && other.PaymentNumber == p.PaymentNumber {
			return rental.Conflict("payment already exists")
		}
	}
	p.ID = t.id()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = t.now()
	}
	t.d.payments[p.ID] = *p
	return nil
}

func (t *memTx) GetPayment(_ context.Context, scope rental.Scope, id uint) (*models.Payment, error) {
	p, ok := t.d.payments[id]
	if !ok || !scope.Allows(p.TenantID) {
		return nil, rental.NotFound("payment not found")
	}
	return &p, nil
}

func (t *memTx) ListPayments(_ context.Context, scope rental.Scope, invoiceID uint) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range t.d.payments {
		if p.InvoiceID == invoiceID && scope.Allows(p.TenantID) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PaidAt.Equal(out[j].PaidAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].PaidAt.Before(out[j].PaidAt)
	})
	return out, nil
}

func (t *memTx) PaymentTotals(_ context.Context, invoiceID uint) (PaymentTotals, error) {
	var totals PaymentTotals
	for _, p := range t.d.payments {
		if p.InvoiceID != invoiceID {
			continue
		}
		switch p.Status {
		case models.PaymentSuccess:
			totals.Succeeded += p.Amount
		case models.PaymentRefunded:
			totals.Refunded += p.Amount
		}
	}
	return totals, nil
}

// ---- reviews

func (t *memTx) CreateReview(_ context.Context, r *models.Review) error {
	for _, other := range t.d.reviews {
		if other.BookingID == r.BookingID {
			return rental.Conflict("review already exists")
		}
	}
	r.ID = t.id()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = t.now()
	}
	t.d.reviews[r.ID] = *r
	return nil
}

func (t *memTx) ListReviews(_ context.Context, scope rental.Scope, f ReviewFilter) ([]models.Review, int64, error) {
	var out []models.Review
	for _, r := range t.d.reviews {
		if !r.IsApproved || !scope.Allows(r.TenantID) {
			continue
		}
		if (f.PropertyID != 0 && r.PropertyID != f.PropertyID) ||
			(f.UnitID != 0 && r.UnitID != f.UnitID) ||
			(f.Rating != 0 && r.Rating != f.Rating) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	total := int64(len(out))
	lo := min(f.offset(), len(out))
	hi := min(lo+f.limit(), len(out))
	return out[lo:hi], total, nil
}

func (t *memTx) RefundedAmount(_ context.Context, paymentID uint) (float64, error) {
	var total float64
	for _, p := range t.d.payments {
		if p.RefundOf != nil && *p.RefundOf == paymentID && p.Status == models.PaymentRefunded {
			total += p.Amount
		}
	}
	return total, nil
}

// ---- numbering, settings, audit, idempotency

func (t *memTx) NextSequence(_ context.Context, tenantID uint, scope, period string) (int64, error) {
	k := sequenceKey{tenantID: tenantID, scope: scope, period: period}
	t.d.sequences[k]++
	return t.d.sequences[k], nil
}

func (t *memTx) GetSetting(_ context.Context, tenantID uint, key string) (string, bool, error) {
	s, ok := t.d.settings[settingKey{tenantID, key}]
	return s.Value, ok, nil
}

func (t *memTx) ListSettings(_ context.Context, tenantID uint) ([]models.Setting, error) {
	var out []models.Setting
	for k, s := range t.d.settings {
		if k.tenantID == tenantID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (t *memTx) PutSetting(_ context.Context, tenantID uint, key, value string) error {
	k := settingKey{tenantID, key}
	s, ok := t.d.settings[k]
	if !ok {
		s = models.Setting{ID: t.id(), TenantID: tenantID, Key: key}
	}
	s.Value = value
	s.UpdatedAt = t.now()
	t.d.settings[k] = s
	return nil
}

func (t *memTx) RecordActivity(_ context.Context, a *models.ActivityLog) error {
	a.ID = t.id()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = t.now()
	}
	t.d.activity = append(t.d.activity, *a)
	return nil
}

func (t *memTx) FindIdempotencyKey(_ context.Context, tenantID uint, key string) (*models.IdempotencyKey, error) {
	k, ok := t.d.idem[settingKey{tenantID, key}]
	if !ok {
		return nil, nil
	}
	k = cloneIdem(k)
	return &k, nil
}

func (t *memTx) CreateIdempotencyKey(_ context.Context, k *models.IdempotencyKey) error {
	mk := settingKey{k.TenantID, k.Key}
	if _, ok := t.d.idem[mk]; ok {
		return rental.Conflict("idempotency key already exists")
	}
	k.ID = t.id()
	if k.CreatedAt.IsZero() {
		k.CreatedAt = t.now()
	}
	t.d.idem[mk] = cloneIdem(*k)
	return nil
}

func (t *memTx) CompleteIdempotencyKey(_ context.Context, tenantID uint, key string, status int, body []byte, at time.Time) error {
	mk := settingKey{tenantID, key}
	k, ok := t.d.idem[mk]
	if !ok {
		return rental.NotFound("idempotency key not found")
	}
	k.ResponseStatus = status
	k.ResponseBody = append([]byte(nil), body...)
	k.CompletedAt = &at
	t.d.idem[mk] = k
	return nil
}

func (t *memTx) DeleteIdempotencyKey(_ context.Context, tenantID uint, key string) error {
	delete(t.d.idem, settingKey{tenantID, key})
	return nil
}

// Activity returns a copy of the audit trail; used by tests and the
// development server.
func (s *MemoryStore) Activity() []models.ActivityLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ActivityLog(nil), s.data.activity...)
}
