package rental

import "rentbook-backend/models"

// Scope is the caller identity every engine call runs under. It replaces
// any ambient "current tenant": a zero TenantID is only meaningful for a
// super admin, who then sees every tenant. A super admin with a TenantID
// acts inside that tenant only.
type Scope struct {
	TenantID uint
	UserID   string
	Role     models.Role
}

// SystemScope is used by background jobs.
func SystemScope() Scope {
	return Scope{UserID: "system", Role: models.RoleSuperAdmin}
}

func (s Scope) IsSuperAdmin() bool { return s.Role == models.RoleSuperAdmin }

func (s Scope) IsCustomer() bool { return s.Role == models.RoleCustomer }

// IsStaff is true for roles that operate bookings on behalf of customers.
func (s Scope) IsStaff() bool {
	return s.Role == models.RoleOwner || s.Role == models.RoleStaff || s.Role == models.RoleSuperAdmin
}

// AllTenants is true only for an unpinned super admin.
func (s Scope) AllTenants() bool { return s.IsSuperAdmin() && s.TenantID == 0 }

// Allows reports whether an entity owned by tenantID is visible.
func (s Scope) Allows(tenantID uint) bool {
	return s.AllTenants() || (s.TenantID != 0 && s.TenantID == tenantID)
}

// CanSeeBooking additionally restricts customers to their own bookings.
func (s Scope) CanSeeBooking(b *models.Booking) bool {
	if !s.Allows(b.TenantID) {
		return false
	}
	return !s.IsCustomer() || b.CustomerID == s.UserID
}
