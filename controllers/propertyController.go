package controllers

import (
	"rentbook-backend/middlewares"
	"rentbook-backend/models"
	"rentbook-backend/services"
	"rentbook-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type PropertyInput struct {
	Name    string              `json:"name" validate:"required,max=120"`
	Type    models.PropertyType `json:"type" validate:"required,oneof=house kos car"`
	Address string              `json:"address" validate:"max=255"`
	City    string              `json:"city" validate:"max=80"`
}

type UnitInput struct {
	PropertyID    uint               `json:"property_id" validate:"required"`
	Code          string             `json:"code" validate:"max=32"`
	Name          string             `json:"name" validate:"required,max=120"`
	PricingMode   models.PricingMode `json:"pricing_mode" validate:"required,oneof=hourly daily weekly monthly"`
	BasePrice     float64            `json:"base_price" validate:"gte=0"`
	DepositAmount float64            `json:"deposit_amount" validate:"gte=0"`
	Status        models.UnitStatus  `json:"status" validate:"omitempty,oneof=available maintenance inactive"`
}

func (a *API) CreateProperty(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	var in PropertyInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizeDTO(&in)

	p, err := a.Services.Catalog.CreateProperty(c.UserContext(), scope, models.Property{
		Name: in.Name, Type: in.Type, Address: in.Address, City: in.City,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (a *API) ListProperties(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	out, err := a.Services.Catalog.ListProperties(c.UserContext(), scope)
	if err != nil {
		return err
	}
	if out == nil {
		out = []models.Property{}
	}
	return c.JSON(out)
}

func (a *API) CreateUnit(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	var in UnitInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizeDTO(&in)

	u, err := a.Services.Catalog.CreateUnit(c.UserContext(), scope, models.Unit{
		PropertyID:    in.PropertyID,
		Code:          in.Code,
		Name:          in.Name,
		PricingMode:   in.PricingMode,
		BasePrice:     in.BasePrice,
		DepositAmount: in.DepositAmount,
		Status:        in.Status,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(u)
}

// ListUnits GET /units?property_id
func (a *API) ListUnits(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	propertyID, err := queryID(c, "property_id")
	if err != nil {
		return err
	}
	out, err := a.Services.Catalog.ListUnits(c.UserContext(), scope, propertyID)
	if err != nil {
		return err
	}
	if out == nil {
		out = []models.Unit{}
	}
	return c.JSON(out)
}

// UpdateUnit PUT /units/:id (partial)
func (a *API) UpdateUnit(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var patch services.UnitPatch
	if err := c.BodyParser(&patch); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON")
	}
	u, err := a.Services.Catalog.UpdateUnit(c.UserContext(), scope, id, patch)
	if err != nil {
		return err
	}
	return c.JSON(u)
}
