package database

import (
	"rentbook-backend/rental"

	"gorm.io/gorm"
)

// ForTenant restricts a query on a tenant-owned table to the scope's tenant.
// Only a super admin without a tenant is unrestricted.
func ForTenant(scope rental.Scope) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if scope.AllTenants() {
			return db
		}
		return db.Where("tenant_id = ?", scope.TenantID)
	}
}

// ForCustomer additionally restricts customers to rows they own through
// customer_id.
func ForCustomer(scope rental.Scope) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = ForTenant(scope)(db)
		if scope.IsCustomer() {
			return db.Where("customer_id = ?", scope.UserID)
		}
		return db
	}
}
