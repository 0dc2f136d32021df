package controllers

import (
	"rentbook-backend/middlewares"
	"rentbook-backend/models"
	"rentbook-backend/services"
	"rentbook-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type AddOnInput struct {
	Name        string            `json:"name" validate:"required,max=120"`
	Description string            `json:"description" validate:"max=500"`
	Price       float64           `json:"price" validate:"gte=0"`
	ChargeType  models.ChargeType `json:"charge_type" validate:"required,oneof=per_booking per_day per_hour"`
	IsActive    *bool             `json:"is_active"`
}

func (a *API) CreateAddOn(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	var in AddOnInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizeDTO(&in)
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	out, err := a.Services.Catalog.CreateAddOn(c.UserContext(), scope, models.AddOn{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		ChargeType:  in.ChargeType,
		IsActive:    active,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListAddOns GET /add-ons[?active=true]
func (a *API) ListAddOns(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	out, err := a.Services.Catalog.ListAddOns(c.UserContext(), scope, c.QueryBool("active"))
	if err != nil {
		return err
	}
	if out == nil {
		out = []models.AddOn{}
	}
	return c.JSON(out)
}

func (a *API) UpdateAddOn(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var patch services.AddOnPatch
	if err := c.BodyParser(&patch); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON")
	}
	out, err := a.Services.Catalog.UpdateAddOn(c.UserContext(), scope, id, patch)
	if err != nil {
		return err
	}
	return c.JSON(out)
}
