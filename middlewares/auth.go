package middlewares

import (
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"rentbook-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
	tokenTTL     = 24 * time.Hour
)

// Claims is our custom JWT payload (subject=userID, plus tenant and role).
type Claims struct {
	TenantID uint        `json:"tenant_id"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

var (
	secretMu  sync.RWMutex
	jwtSecret []byte
)

// SetJWTSecret installs the signing key from configuration.
func SetJWTSecret(secret string) {
	secretMu.Lock()
	defer secretMu.Unlock()
	jwtSecret = []byte(strings.TrimSpace(secret))
}

func loadJWTSecret() ([]byte, error) {
	secretMu.RLock()
	sec := jwtSecret
	secretMu.RUnlock()
	if len(sec) > 0 {
		return sec, nil
	}
	// Fallback to the environment when config did not provide one.
	env := os.Getenv("JWT_SECRET_KEY")
	if strings.TrimSpace(env) == "" {
		env = os.Getenv("JWT_SECRET")
	}
	if strings.TrimSpace(env) == "" {
		return nil, errors.New("JWT secret not configured (set JWT_SECRET)")
	}
	SetJWTSecret(env)
	return []byte(strings.TrimSpace(env)), nil
}

// IsAuthenticatedHeader validates a Bearer token, enforces HS256, and populates
// c.Locals("userID","tenantID","role").
func IsAuthenticatedHeader() fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret, err := loadJWTSecret()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "server auth not configured")
		}

		h := c.Get(authHeader)
		if h == "" || !strings.HasPrefix(strings.ToLower(h), strings.ToLower(bearerPrefix)) {
			return fiber.NewError(fiber.StatusUnauthorized, "missing/invalid Authorization header")
		}
		raw := strings.TrimSpace(h[len(bearerPrefix):])
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid bearer token")
		}

		parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		var claims Claims
		token, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
			return secret, nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}
		if strings.TrimSpace(claims.Subject) == "" || !claims.Role.Valid() {
			return fiber.NewError(fiber.StatusUnauthorized, "token missing subject/role")
		}
		if claims.Role != models.RoleSuperAdmin && claims.TenantID == 0 {
			return fiber.NewError(fiber.StatusUnauthorized, "token missing tenant")
		}

		c.Locals("userID", claims.Subject)
		c.Locals("tenantID", claims.TenantID)
		c.Locals("role", claims.Role)

		return c.Next()
	}
}

// GenerateJWT signs a new HS256 token for the given user, expiring in 24h.
func GenerateJWT(user *models.User) (string, error) {
	secret, err := loadJWTSecret()
	if err != nil {
		return "", err
	}
	var tenantID uint
	if user.TenantID != nil {
		tenantID = *user.TenantID
	}
	now := time.Now()
	claims := &Claims{
		TenantID: tenantID,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Id,
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "rentbook",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// RequireRole rejects callers whose role is not listed.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(models.Role)
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "insufficient role")
	}
}
