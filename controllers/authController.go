package controllers

import (
	"errors"

	"rentbook-backend/middlewares"
	"rentbook-backend/models"
	"rentbook-backend/services"
	"rentbook-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type RegisterInput struct {
	// TenantSlug alone signs a customer up with an existing tenant;
	// TenantName creates a new tenant owned by the caller.
	TenantName      string `json:"tenant_name" validate:"required_without=TenantSlug,max=120"`
	TenantSlug      string `json:"tenant_slug" validate:"omitempty,max=64"`
	Name            string `json:"name" validate:"required,max=120"`
	Email           string `json:"email" validate:"required,email" normalize:"lower"`
	Phone           string `json:"phone" validate:"omitempty,max=32"`
	Password        string `json:"password" validate:"required,min=8" normalize:"-"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password" normalize:"-"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserInput struct {
	Name     string      `json:"name" validate:"required,max=120"`
	Email    string      `json:"email" validate:"required,email" normalize:"lower"`
	Phone    string      `json:"phone" validate:"omitempty,max=32"`
	Password string      `json:"password" validate:"required,min=8" normalize:"-"`
	Role     models.Role `json:"role" validate:"required,oneof=staff customer"`
}

func (a *API) Register(c *fiber.Ctx) error {
	var in RegisterInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizeDTO(&in)
	ctx := c.UserContext()
	user := services.NewUserInput{Name: in.Name, Email: in.Email, Phone: in.Phone, Password: in.Password}
	if in.TenantName == "" {
		u, err := a.Services.Auth.RegisterCustomer(ctx, in.TenantSlug, user)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": u})
	}

	tenant, owner, err := a.Services.Auth.Register(ctx, services.RegisterInput{
		TenantName: in.TenantName,
		TenantSlug: in.TenantSlug,
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Phone,
		Password:   in.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"tenant": tenant, "user": owner})
}

func (a *API) Login(c *fiber.Ctx) error {
	var in LoginInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	user, err := a.Services.Auth.Authenticate(c.UserContext(), in.Email, in.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		return err
	}

	token, err := middlewares.GenerateJWT(user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":        user.Id,
			"name":      user.Name,
			"email":     user.Email,
			"role":      user.Role,
			"tenant_id": user.TenantID,
		},
	})
}

// CreateUser adds staff or customers to the caller's tenant.
func (a *API) CreateUser(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	var in UserInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizeDTO(&in)
	u, err := a.Services.Auth.CreateUser(c.UserContext(), scope, services.NewUserInput{
		Name: in.Name, Email: in.Email, Phone: in.Phone, Password: in.Password, Role: in.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(u)
}

// Me GET /me
func (a *API) Me(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	user, err := a.Services.Auth.Me(c.UserContext(), scope)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user})
}
