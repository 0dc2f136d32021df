package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"rentbook-backend/models"
	"rentbook-backend/rental"
	"rentbook-backend/repository"
	"rentbook-backend/services"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type world struct {
	svc      *services.Services
	h        *Handlers
	tenantID uint
	monthly  uint // booking on a monthly unit, Jul 1 -> Oct 1 2025
	daily    uint // booking on a daily unit
}

func newWorld(t *testing.T) *world {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()
	now := time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC)
	svc := services.New(services.Env{Store: store, Now: func() time.Time { return now }})
	w := &world{svc: svc, h: NewHandlers(svc.Billing, time.UTC, nil)}

	var customerID string
	var kos, room uint
	require.NoError(t, store.Atomic(ctx, func(tx repository.Tx) error {
		tenant := &models.Tenant{Name: "Kos Melati", Slug: "kos-melati"}
		if err := tx.CreateTenant(ctx, tenant); err != nil {
			return err
		}
		w.tenantID = tenant.ID
		tid := tenant.ID
		c := &models.User{Name: "Tenant", Email: "t@kos.test", Role: models.RoleCustomer, TenantID: &tid, Password: []byte("x")}
		if err := tx.CreateUser(ctx, c); err != nil {
			return err
		}
		customerID = c.Id
		p := &models.Property{TenantID: tid, Name: "Melati", Type: models.PropertyKos}
		if err := tx.CreateProperty(ctx, p); err != nil {
			return err
		}
		u1 := &models.Unit{TenantID: tid, PropertyID: p.ID, Code: "K1", Name: "Kamar 1",
			PricingMode: models.PricingMonthly, BasePrice: 900, Status: models.UnitAvailable}
		if err := tx.CreateUnit(ctx, u1); err != nil {
			return err
		}
		u2 := &models.Unit{TenantID: tid, PropertyID: p.ID, Code: "R1", Name: "Guest Room",
			PricingMode: models.PricingDaily, BasePrice: 50, Status: models.UnitAvailable}
		if err := tx.CreateUnit(ctx, u2); err != nil {
			return err
		}
		kos, room = u1.ID, u2.ID
		return nil
	}))

	staff := rental.Scope{TenantID: w.tenantID, UserID: "front-desk", Role: models.RoleStaff}
	b, err := svc.Bookings.CreateBooking(ctx, staff, services.CreateBookingInput{
		UnitID: kos, CustomerID: customerID,
		Start: time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.October, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	w.monthly = b.ID

	b, err = svc.Bookings.CreateBooking(ctx, staff, services.CreateBookingInput{
		UnitID: room, CustomerID: customerID,
		Start: time.Date(2025, time.July, 3, 12, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.July, 5, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	w.daily = b.ID
	return w
}

func task(t *testing.T, typ string, payload any) *asynq.Task {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(typ, b)
}

func TestRecurringThenOverdueTasks(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	scope := rental.Scope{TenantID: w.tenantID, UserID: "x", Role: models.RoleStaff}

	tk, opts, err := NewRecurringInvoicesTask(RecurringInvoicesPayload{TenantID: w.tenantID, BookingID: w.monthly})
	require.NoError(t, err)
	assert.Len(t, opts, 2)
	require.NoError(t, w.h.HandleRecurringInvoices(ctx, tk))

	invoices, err := w.svc.Billing.ListInvoices(ctx, scope, repository.InvoiceFilter{BookingID: w.monthly})
	require.NoError(t, err)
	require.Len(t, invoices, 3)

	// A retried task must not duplicate periods.
	require.NoError(t, w.h.HandleRecurringInvoices(ctx, tk))
	invoices, err = w.svc.Billing.ListInvoices(ctx, scope, repository.InvoiceFilter{BookingID: w.monthly})
	require.NoError(t, err)
	assert.Len(t, invoices, 3)

	// Due dates are Jul 8, Aug 8 and Sep 8.
	sweep, _, err := NewMarkOverdueTask(MarkOverduePayload{TenantID: w.tenantID, Day: "2025-08-20"})
	require.NoError(t, err)
	require.NoError(t, w.h.HandleMarkOverdue(ctx, sweep))

	overdue, err := w.svc.Billing.ListInvoices(ctx, scope, repository.InvoiceFilter{Status: models.InvoiceOverdue})
	require.NoError(t, err)
	assert.Len(t, overdue, 2)
}

func TestMarkOverdueAcrossTenants(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	scope := rental.Scope{TenantID: w.tenantID, UserID: "x", Role: models.RoleStaff}

	inv, err := w.svc.Billing.CreateInvoiceFromBooking(ctx, scope, w.daily, nil)
	require.NoError(t, err)

	require.NoError(t, w.h.HandleMarkOverdue(ctx, task(t, TypeMarkOverdue, MarkOverduePayload{Day: "2025-07-09"})))
	got, err := w.svc.Billing.GetInvoice(ctx, scope, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceOverdue, got.Status)
}

func TestTasksSkipRetryOnPermanentErrors(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	err := w.h.HandleMarkOverdue(ctx, asynq.NewTask(TypeMarkOverdue, []byte("{not json")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	err = w.h.HandleMarkOverdue(ctx, task(t, TypeMarkOverdue, MarkOverduePayload{TenantID: w.tenantID, Day: "someday"}))
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	err = w.h.HandleRecurringInvoices(ctx, task(t, TypeRecurringInvoices, RecurringInvoicesPayload{TenantID: w.tenantID}))
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	err = w.h.HandleRecurringInvoices(ctx, task(t, TypeRecurringInvoices, RecurringInvoicesPayload{TenantID: w.tenantID, BookingID: 999}))
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	// Daily units are invoiced once, never per month.
	err = w.h.HandleRecurringInvoices(ctx, task(t, TypeRecurringInvoices, RecurringInvoicesPayload{TenantID: w.tenantID, BookingID: w.daily}))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestJobScope(t *testing.T) {
	assert.Equal(t, rental.SystemScope(), jobScope(0))
	s := jobScope(7)
	assert.Equal(t, uint(7), s.TenantID)
	assert.Equal(t, models.RoleStaff, s.Role)
}

func TestMuxRoutesTaskTypes(t *testing.T) {
	w := newWorld(t)
	err := w.h.Mux().ProcessTask(context.Background(), asynq.NewTask(TypeMarkOverdue, []byte(`{}`)))
	assert.NoError(t, err)
}

func TestNewScheduler(t *testing.T) {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:0"}
	s, err := NewScheduler(opt, time.UTC, "")
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = NewScheduler(opt, time.UTC, "every other tuesday")
	assert.Error(t, err)
}
