package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"rentbook-backend/models"
	"rentbook-backend/rental"
	"rentbook-backend/repository"
)

// ErrInvalidCredentials is returned for any failed login.
var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService struct {
	env Env
}

func NewAuthService(env Env) *AuthService {
	return &AuthService{env: env.withDefaults()}
}

type RegisterInput struct {
	TenantName string
	TenantSlug string
	Name       string
	Email      string
	Phone      string
	Password   string
}

type NewUserInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Role     models.Role
}

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// slugify derives a tenant slug from a display name.
func slugify(name string) (string, error) {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "-")
	if !slugPattern.MatchString(slug) || len(slug) > 64 {
		return "", rental.Validation("invalid tenant slug %q", slug)
	}
	return slug, nil
}

func newUser(in NewUserInput, tenantID *uint) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, rental.Validation("invalid email format")
	}
	if len(in.Password) < 8 {
		return nil, rental.Validation("password must have at least 8 characters")
	}
	if !in.Role.Valid() {
		return nil, rental.Validation("unknown role %q", in.Role)
	}
	u := &models.User{
		TenantID: tenantID,
		Name:     strings.TrimSpace(in.Name),
		Email:    email,
		Phone:    strings.TrimSpace(in.Phone),
		Role:     in.Role,
	}
	u.SetPassword(in.Password)
	return u, nil
}

// Register creates a tenant together with its owner account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.Tenant, *models.User, error) {
	slugSource := in.TenantSlug
	if strings.TrimSpace(slugSource) == "" {
		slugSource = in.TenantName
	}
	slug, err := slugify(slugSource)
	if err != nil {
		return nil, nil, err
	}
	tenant := &models.Tenant{Name: strings.TrimSpace(in.TenantName), Slug: slug}
	var owner *models.User
	err = s.env.Store.Atomic(ctx, func(tx repository.Tx) error {
		if err := tx.CreateTenant(ctx, tenant); err != nil {
			return err
		}
		u, err := newUser(NewUserInput{Name: in.Name, Email: in.Email, Phone: in.Phone, Password: in.Password, Role: models.RoleOwner}, &tenant.ID)
		if err != nil {
			return err
		}
		if err := tx.CreateUser(ctx, u); err != nil {
			return err
		}
		owner = u
		scope := rental.Scope{TenantID: tenant.ID, UserID: u.Id, Role: u.Role}
		return recordActivity(ctx, tx, scope, tenant.ID, "register", "tenant", tenant.ID,
			fmt.Sprintf("registered tenant %s", tenant.Slug), nil)
	})
	if err != nil {
		return nil, nil, err
	}
	return tenant, owner, nil
}

// RegisterCustomer signs a customer up with an existing tenant.
func (s *AuthService) RegisterCustomer(ctx context.Context, tenantSlug string, in NewUserInput) (*models.User, error) {
	in.Role = models.RoleCustomer
	var user *models.User
	err := s.env.Store.Atomic(ctx, func(tx repository.Tx) error {
		tenant, err := tx.FindTenantBySlug(ctx, strings.ToLower(strings.TrimSpace(tenantSlug)))
		if err != nil {
			return err
		}
		u, err := newUser(in, &tenant.ID)
		if err != nil {
			return err
		}
		if err := tx.CreateUser(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	return user, err
}

// CreateUser lets an owner add staff or customers to their tenant.
func (s *AuthService) CreateUser(ctx context.Context, scope rental.Scope, in NewUserInput) (*models.User, error) {
	if err := requireTenant(scope); err != nil {
		return nil, err
	}
	if in.Role != models.RoleStaff && in.Role != models.RoleCustomer {
		return nil, rental.Validation("role must be staff or customer")
	}
	tenantID := scope.TenantID
	u, err := newUser(in, &tenantID)
	if err != nil {
		return nil, err
	}
	err = s.env.Store.Atomic(ctx, func(tx repository.Tx) error {
		if err := tx.CreateUser(ctx, u); err != nil {
			return err
		}
		return recordActivity(ctx, tx, scope, tenantID, "create", "user", 0,
			fmt.Sprintf("created %s %s", u.Role, u.Email), map[string]any{"user_id": u.Id})
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks an email/password pair.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var user *models.User
	err := s.env.Store.Atomic(ctx, func(tx repository.Tx) error {
		u, err := tx.FindUserByEmail(ctx, email)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if rental.KindOf(err) == rental.KindNotFound {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := user.ComparePassword(password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Me returns the caller's own account. A super admin is looked up outside
// whatever tenant it is currently acting in.
func (s *AuthService) Me(ctx context.Context, scope rental.Scope) (*models.User, error) {
	lookup := scope
	if scope.IsSuperAdmin() {
		lookup = rental.SystemScope()
	}
	var user *models.User
	err := s.env.Store.Atomic(ctx, func(tx repository.Tx) error {
		var err error
		user, err = tx.GetUser(ctx, lookup, scope.UserID)
		return err
	})
	return user, err
}
