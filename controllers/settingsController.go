package controllers

import (
	"rentbook-backend/middlewares"

	"github.com/gofiber/fiber/v2"
)

func (a *API) GetSettings(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	out, err := a.Services.Settings.List(c.UserContext(), scope)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// PutSettings PUT /settings with a flat {"key": "value"} body.
func (a *API) PutSettings(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	var in map[string]string
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON")
	}
	if len(in) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no settings given")
	}
	out, err := a.Services.Settings.Put(c.UserContext(), scope, in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}
