package controllers

import (
	"rentbook-backend/middlewares"
	"rentbook-backend/models"
	"rentbook-backend/repository"
	"rentbook-backend/services"

	"github.com/gofiber/fiber/v2"
)

type InvoiceInput struct {
	PeriodMonth *int `json:"period_month" validate:"omitempty,min=1,max=12"`
	PeriodYear  *int `json:"period_year" validate:"required_with=PeriodMonth,omitempty,min=1970"`
}

type PaymentRequest struct {
	InvoiceID            uint                 `json:"invoice_id" validate:"required"`
	Amount               float64              `json:"amount" validate:"required,gt=0"`
	Method               models.PaymentMethod `json:"method" validate:"required,oneof=bank_transfer cash gateway"`
	TransactionReference string               `json:"transaction_reference" validate:"max=120"`
	Status               models.PaymentStatus `json:"status" validate:"omitempty,oneof=pending success failed"`
	PaidAt               *string              `json:"paid_at"`
	Notes                string               `json:"notes"`
}

type RefundRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Notes  string  `json:"notes"`
}

// CreateInvoice POST /bookings/:id/invoices
func (a *API) CreateInvoice(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	bookingID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in InvoiceInput
	if len(c.Body()) > 0 {
		if err := middlewares.BindAndValidate(c, &in); err != nil {
			return err
		}
	}
	var period *services.BillingPeriod
	if in.PeriodMonth != nil && in.PeriodYear != nil {
		period = &services.BillingPeriod{Month: *in.PeriodMonth, Year: *in.PeriodYear}
	}

	inv, err := a.Services.Billing.CreateInvoiceFromBooking(c.UserContext(), scope, bookingID, period)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(inv)
}

// GenerateRecurringInvoices POST /bookings/:id/invoices/recurring[?async=true]
func (a *API) GenerateRecurringInvoices(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	bookingID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if c.QueryBool("async") && a.Jobs != nil {
		// Visibility check before handing off.
		if _, err := a.Services.Bookings.GetBooking(c.UserContext(), scope, bookingID); err != nil {
			return err
		}
		taskID, err := a.Jobs.EnqueueRecurringInvoices(c.UserContext(), scope.TenantID, bookingID)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"task_id": taskID})
	}

	created, err := a.Services.Billing.GenerateRecurringInvoices(c.UserContext(), scope, bookingID)
	if err != nil {
		return err
	}
	if created == nil {
		created = []models.Invoice{}
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": created, "created": len(created)})
}

// ListInvoices GET /invoices?booking_id&status
func (a *API) ListInvoices(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	bookingID, err := queryID(c, "booking_id")
	if err != nil {
		return err
	}
	out, err := a.Services.Billing.ListInvoices(c.UserContext(), scope, repository.InvoiceFilter{
		BookingID: bookingID,
		Status:    models.InvoiceStatus(c.Query("status")),
	})
	if err != nil {
		return err
	}
	if out == nil {
		out = []models.Invoice{}
	}
	return c.JSON(out)
}

func (a *API) GetInvoice(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	inv, err := a.Services.Billing.GetInvoice(c.UserContext(), scope, id)
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

// CancelInvoice PUT /invoices/:id/cancel
func (a *API) CancelInvoice(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	inv, err := a.Services.Billing.CancelInvoice(c.UserContext(), scope, id)
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

// MarkOverdue POST /invoices/mark-overdue[?date=YYYY-MM-DD][&async=true]
func (a *API) MarkOverdue(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	var today = a.now()
	if v := c.Query("date"); v != "" {
		if today, err = a.timestamp("date", v); err != nil {
			return err
		}
	}
	if c.QueryBool("async") && a.Jobs != nil {
		taskID, err := a.Jobs.EnqueueMarkOverdue(c.UserContext(), scope.TenantID, today.Format("2006-01-02"))
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"task_id": taskID})
	}

	n, err := a.Services.Billing.MarkOverdueInvoices(c.UserContext(), scope, today)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"marked": n})
}

// RecordPayment POST /payments
func (a *API) RecordPayment(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	var in PaymentRequest
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	paidAt, err := a.optionalTimestamp("paid_at", in.PaidAt)
	if err != nil {
		return err
	}

	p, inv, err := a.Services.Billing.RecordPayment(c.UserContext(), scope, in.InvoiceID, services.PaymentInput{
		Amount:               in.Amount,
		Method:               in.Method,
		TransactionReference: in.TransactionReference,
		Status:               in.Status,
		PaidAt:               paidAt,
		Notes:                in.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"payment": p, "invoice": inv})
}

// ListPayments GET /invoices/:id/payments
func (a *API) ListPayments(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	out, err := a.Services.Billing.ListPayments(c.UserContext(), scope, id)
	if err != nil {
		return err
	}
	if out == nil {
		out = []models.Payment{}
	}
	return c.JSON(out)
}

// RefundPayment POST /payments/:id/refund
func (a *API) RefundPayment(c *fiber.Ctx) error {
	scope, err := middlewares.ScopeFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in RefundRequest
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	r, inv, err := a.Services.Billing.RefundPayment(c.UserContext(), scope, id, services.RefundInput{
		Amount: in.Amount, Notes: in.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"payment": r, "invoice": inv})
}
