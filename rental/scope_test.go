package rental

import (
	"testing"

	"rentbook-backend/models"

	"github.com/stretchr/testify/assert"
)

func TestScopeAllows(t *testing.T) {
	staff := Scope{TenantID: 1, UserID: "s", Role: models.RoleStaff}
	pinned := Scope{TenantID: 1, UserID: "root", Role: models.RoleSuperAdmin}
	system := SystemScope()

	assert.True(t, staff.Allows(1))
	assert.False(t, staff.Allows(2))
	assert.True(t, pinned.Allows(1))
	assert.False(t, pinned.Allows(2))
	assert.True(t, system.Allows(1))
	assert.True(t, system.Allows(2))

	assert.True(t, system.AllTenants())
	assert.False(t, pinned.AllTenants())
	assert.False(t, Scope{Role: models.RoleStaff}.Allows(0))
}

func TestScopeCanSeeBooking(t *testing.T) {
	b := &models.Booking{TenantID: 1, CustomerID: "c-1"}
	assert.True(t, Scope{TenantID: 1, UserID: "c-1", Role: models.RoleCustomer}.CanSeeBooking(b))
	assert.False(t, Scope{TenantID: 1, UserID: "c-2", Role: models.RoleCustomer}.CanSeeBooking(b))
	assert.False(t, Scope{TenantID: 2, UserID: "root", Role: models.RoleSuperAdmin}.CanSeeBooking(b))
}
