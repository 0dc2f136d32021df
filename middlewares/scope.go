package middlewares

import (
	"strconv"
	"strings"

	"rentbook-backend/models"
	"rentbook-backend/rental"

	"github.com/gofiber/fiber/v2"
)

const scopeKey = "scope"

// TenantScope turns the authenticated identity into a rental.Scope for the
// rest of the chain. Run it AFTER IsAuthenticatedHeader().
func TenantScope() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals("userID").(string)
		tenantID, _ := c.Locals("tenantID").(uint)
		role, _ := c.Locals("role").(models.Role)
		if userID == "" || !role.Valid() {
			return fiber.NewError(fiber.StatusUnauthorized, "auth context missing")
		}
		scope := rental.Scope{TenantID: tenantID, UserID: userID, Role: role}
		// Super admins may act inside one tenant via header.
		if role == models.RoleSuperAdmin {
			if v := c.Get("X-Tenant-ID"); v != "" {
				id, err := parseUint(v)
				if err != nil {
					return fiber.NewError(fiber.StatusBadRequest, "invalid X-Tenant-ID")
				}
				scope.TenantID = id
			}
		}
		c.Locals(scopeKey, scope)
		return c.Next()
	}
}

// ScopeFrom returns the scope stored by TenantScope.
func ScopeFrom(c *fiber.Ctx) (rental.Scope, error) {
	scope, ok := c.Locals(scopeKey).(rental.Scope)
	if !ok {
		return rental.Scope{}, fiber.NewError(fiber.StatusUnauthorized, "auth context missing")
	}
	return scope, nil
}

func parseUint(s string) (uint, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	return uint(v), err
}
