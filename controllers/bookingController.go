package controllers

import (
	"rentbook-backend/middlewares"
	"rentbook-backend/models"
	"rentbook-backend/rental"
	"rentbook-backend/repository"
	"rentbook-backend/services"
	"rentbook-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type PriceRequest struct {
	UnitID        uint                  `json:"unit_id" validate:"required"`
	StartDatetime string                `json:"start_datetime" validate:"required"`
	EndDatetime   string                `json:"end_datetime" validate:"required"`
	AddOns        []rental.AddOnRequest `json:"add_ons" validate:"omitempty,dive"`
}

type BookingInput struct {
	UnitID          uint                  `json:"unit_id" validate:"required"`
	CustomerID      string                `json:"customer_id" validate:"omitempty,uuid"`
	StartDatetime   string                `json:"start_datetime" validate:"required"`
	EndDatetime     string                `json:"end_datetime" validate:"required"`
	AddOns          []rental.AddOnRequest `json:"add_ons" validate:"omitempty,dive"`
	TaxAmount       float64               `json:"tax_amount" validate:"gte=0"`
	DiscountAmount  float64               `json:"discount_amount" validate:"gte=0"`
	Status          models.BookingStatus  `json:"status" validate:"omitempty,oneof=draft pending_payment"`
	Notes           string                `json:"notes"`
	SpecialRequests string                `json:"special_requests"`
}

type BookingUpdateInput struct {
	StartDatetime   *string `json:"start_datetime"`
	EndDatetime     *string `json:"end_datetime"`
	Notes           *string `json:"notes"`
	SpecialRequests *string `json:"special_requests"`
}

type StatusChangeInput struct {
	Status models.BookingStatus `json:"status" validate:"required"`
	At     *string              `json:"at"`
	Reason string               `json:"reason" validate:"max=500"`
}

type CancelInput struct {
	Reason string `json:"reason" validate:"max=500"`
}

// CheckAvailability GET /availability?unit_id&start&end&exclude_booking_id
func (a *API) CheckAvailability(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	unitID, err := queryID(c, "unit_id")
	if err != nil {
		return err
	}
	if unitID == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "unit_id is required")
	}
	start, err := a.timestamp("start", c.Query("start"))
	if err != nil {
		return err
	}
	end, err := a.timestamp("end", c.Query("end"))
	if err != nil {
		return err
	}
	exclude, err := queryID(c, "exclude_booking_id")
	if err != nil {
		return err
	}

	ok, err := a.Services.Bookings.CheckAvailability(c.UserContext(), scope, unitID, start, end, exclude)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"unit_id": unitID, "available": ok})
}

// PriceBooking POST /bookings/price
func (a *API) PriceBooking(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	var in PriceRequest
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	start, err := a.timestamp("start_datetime", in.StartDatetime)
	if err != nil {
		return err
	}
	end, err := a.timestamp("end_datetime", in.EndDatetime)
	if err != nil {
		return err
	}

	q, err := a.Services.Bookings.Price(c.UserContext(), scope, services.PriceInput{
		UnitID: in.UnitID, Start: start, End: end, AddOns: in.AddOns,
	})
	if err != nil {
		return err
	}
	return c.JSON(q)
}

func (a *API) CreateBooking(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	var in BookingInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizeDTO(&in)
	start, err := a.timestamp("start_datetime", in.StartDatetime)
	if err != nil {
		return err
	}
	end, err := a.timestamp("end_datetime", in.EndDatetime)
	if err != nil {
		return err
	}

	b, err := a.Services.Bookings.CreateBooking(c.UserContext(), scope, services.CreateBookingInput{
		UnitID:          in.UnitID,
		CustomerID:      in.CustomerID,
		Start:           start,
		End:             end,
		AddOns:          in.AddOns,
		TaxAmount:       in.TaxAmount,
		DiscountAmount:  in.DiscountAmount,
		Status:          in.Status,
		Notes:           in.Notes,
		SpecialRequests: in.SpecialRequests,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(b)
}

// ListBookings GET /bookings?status&unit_id&customer_id&from&to&page&limit
func (a *API) ListBookings(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	unitID, err := queryID(c, "unit_id")
	if err != nil {
		return err
	}
	f := repository.BookingFilter{
		Status:     models.BookingStatus(c.Query("status")),
		UnitID:     unitID,
		CustomerID: c.Query("customer_id"),
		Page:       utils.ParseIntDefault(c.Query("page"), 1),
		Limit:      utils.ParseIntDefault(c.Query("limit"), 20),
	}
	if f.Status != "" && !f.Status.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "invalid status")
	}
	if v := c.Query("from"); v != "" {
		if f.From, err = a.timestamp("from", v); err != nil {
			return err
		}
	}
	if v := c.Query("to"); v != "" {
		if f.To, err = a.timestamp("to", v); err != nil {
			return err
		}
	}

	out, total, err := a.Services.Bookings.ListBookings(c.UserContext(), scope, f)
	if err != nil {
		return err
	}
	if out == nil {
		out = []models.Booking{}
	}
	return c.JSON(fiber.Map{"data": out, "total": total, "page": f.Page, "limit": f.Limit})
}

func (a *API) GetBooking(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	b, err := a.Services.Bookings.GetBooking(c.UserContext(), scope, id)
	if err != nil {
		return err
	}
	return c.JSON(b)
}

func (a *API) UpdateBooking(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in BookingUpdateInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&in)

	start, err := a.optionalTimestamp("start_datetime", in.StartDatetime)
	if err != nil {
		return err
	}
	end, err := a.optionalTimestamp("end_datetime", in.EndDatetime)
	if err != nil {
		return err
	}
	b, err := a.Services.Bookings.UpdateBooking(c.UserContext(), scope, id, services.UpdateBookingInput{
		Start: start, End: end, Notes: in.Notes, SpecialRequests: in.SpecialRequests,
	})
	if err != nil {
		return err
	}
	return c.JSON(b)
}

// ChangeBookingStatus PATCH /bookings/:id/status
func (a *API) ChangeBookingStatus(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in StatusChangeInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	at, err := a.optionalTimestamp("at", in.At)
	if err != nil {
		return err
	}
	b, err := a.Services.Bookings.ChangeStatus(c.UserContext(), scope, id, in.Status, services.StatusInput{
		At: at, Reason: in.Reason,
	})
	if err != nil {
		return err
	}
	return c.JSON(b)
}

// CancelBooking DELETE /bookings/:id. Bookings are never removed.
func (a *API) CancelBooking(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in CancelInput
	if len(c.Body()) > 0 {
		if err := middlewares.BindAndValidate(c, &in); err != nil {
			return err
		}
	}
	b, err := a.Services.Bookings.CancelBooking(c.UserContext(), scope, id, in.Reason)
	if err != nil {
		return err
	}
	return c.JSON(b)
}
