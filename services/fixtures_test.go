package services

import (
	"context"
	"testing"
	"time"

	"rentbook-backend/models"
	"rentbook-backend/rental"
	"rentbook-backend/repository"

	"github.com/stretchr/testify/require"
)

var clock = time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store    *repository.MemoryStore
	svc      *Services
	tenantID uint
	staff    rental.Scope
	customer rental.Scope
	daily    models.Unit
	monthly  models.Unit
	extra    models.AddOn
}

// newFixture seeds one tenant with a daily unit, a monthly unit, a per-day
// add-on, a staff member and a customer. Users are written straight to the
// store to skip bcrypt.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{store: repository.NewMemoryStore()}
	f.svc = New(Env{
		Store:    f.store,
		Now:      func() time.Time { return clock },
		Location: time.UTC,
	})

	err := f.store.Atomic(ctx, func(tx repository.Tx) error {
		tenant := &models.Tenant{Name: "Seaside Stays", Slug: "seaside-stays"}
		if err := tx.CreateTenant(ctx, tenant); err != nil {
			return err
		}
		f.tenantID = tenant.ID
		tid := tenant.ID

		staff := &models.User{Name: "Sam", Email: "sam@seaside.test", Role: models.RoleStaff, TenantID: &tid, Password: []byte("x")}
		customer := &models.User{Name: "Cleo", Email: "cleo@example.test", Role: models.RoleCustomer, TenantID: &tid, Password: []byte("x")}
		if err := tx.CreateUser(ctx, staff); err != nil {
			return err
		}
		if err := tx.CreateUser(ctx, customer); err != nil {
			return err
		}
		f.staff = rental.Scope{TenantID: tid, UserID: staff.Id, Role: models.RoleStaff}
		f.customer = rental.Scope{TenantID: tid, UserID: customer.Id, Role: models.RoleCustomer}

		p := &models.Property{TenantID: tid, Name: "Beach House", Type: models.PropertyHouse}
		if err := tx.CreateProperty(ctx, p); err != nil {
			return err
		}
		f.daily = models.Unit{TenantID: tid, PropertyID: p.ID, Code: "R1", Name: "Room 1",
			PricingMode: models.PricingDaily, BasePrice: 100, DepositAmount: 50, Status: models.UnitAvailable}
		if err := tx.CreateUnit(ctx, &f.daily); err != nil {
			return err
		}
		f.monthly = models.Unit{TenantID: tid, PropertyID: p.ID, Code: "K1", Name: "Kos 1",
			PricingMode: models.PricingMonthly, BasePrice: 1000, Status: models.UnitAvailable}
		if err := tx.CreateUnit(ctx, &f.monthly); err != nil {
			return err
		}
		f.extra = models.AddOn{TenantID: tid, Name: "Breakfast", Price: 10, ChargeType: models.ChargePerDay, IsActive: true}
		return tx.CreateAddOn(ctx, &f.extra)
	})
	require.NoError(t, err)
	return f
}

func july(d, h int) time.Time {
	return time.Date(2025, time.July, d, h, 0, 0, 0, time.UTC)
}

// book creates a pending_payment booking of the daily unit for the customer.
func (f *fixture) book(t *testing.T, start, end time.Time) *models.Booking {
	t.Helper()
	b, err := f.svc.Bookings.CreateBooking(context.Background(), f.staff, CreateBookingInput{
		UnitID: f.daily.ID, CustomerID: f.customer.UserID, Start: start, End: end,
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) booking(t *testing.T, id uint) *models.Booking {
	t.Helper()
	b, err := f.svc.Bookings.GetBooking(context.Background(), f.staff, id)
	require.NoError(t, err)
	return b
}

// otherTenant seeds a second tenant with one daily unit and a customer and
// returns a staff scope for it plus the unit and customer ids.
func (f *fixture) otherTenant(t *testing.T) (rental.Scope, uint, string) {
	t.Helper()
	ctx := context.Background()
	var scope rental.Scope
	var unitID uint
	var customerID string
	err := f.store.Atomic(ctx, func(tx repository.Tx) error {
		tenant := &models.Tenant{Name: "Hill Cars", Slug: "hill-cars"}
		if err := tx.CreateTenant(ctx, tenant); err != nil {
			return err
		}
		tid := tenant.ID
		c := &models.User{Name: "Dana", Email: "dana@hill.test", Role: models.RoleCustomer, TenantID: &tid, Password: []byte("x")}
		if err := tx.CreateUser(ctx, c); err != nil {
			return err
		}
		p := &models.Property{TenantID: tid, Name: "Garage", Type: models.PropertyCar}
		if err := tx.CreateProperty(ctx, p); err != nil {
			return err
		}
		u := &models.Unit{TenantID: tid, PropertyID: p.ID, Code: "C1", Name: "Hatchback",
			PricingMode: models.PricingDaily, BasePrice: 40, Status: models.UnitAvailable}
		if err := tx.CreateUnit(ctx, u); err != nil {
			return err
		}
		scope = rental.Scope{TenantID: tid, UserID: "hill-staff", Role: models.RoleStaff}
		unitID, customerID = u.ID, c.Id
		return nil
	})
	require.NoError(t, err)
	return scope, unitID, customerID
}
