package events

import (
	"time"

	"rentbook-backend/models"
)

// Event names published on the stream.
const (
	NameBookingCreated       = "booking.created"
	NameBookingStatusChanged = "booking.status_changed"
	NameInvoiceIssued        = "invoice.issued"
	NameInvoicePaid          = "invoice.paid"
	NamePaymentRecorded      = "payment.recorded"
)

type Event interface {
	Name() string
	Tenant() uint
}

type BookingCreated struct {
	TenantID  uint                 `json:"tenant_id"`
	BookingID uint                 `json:"booking_id"`
	UnitID    uint                 `json:"unit_id"`
	Status    models.BookingStatus `json:"status"`
	At        time.Time            `json:"at"`
}

func (BookingCreated) Name() string   { return NameBookingCreated }
func (e BookingCreated) Tenant() uint { return e.TenantID }

type BookingStatusChanged struct {
	TenantID  uint                 `json:"tenant_id"`
	BookingID uint                 `json:"booking_id"`
	From      models.BookingStatus `json:"from"`
	To        models.BookingStatus `json:"to"`
	At        time.Time            `json:"at"`
}

func (BookingStatusChanged) Name() string   { return NameBookingStatusChanged }
func (e BookingStatusChanged) Tenant() uint { return e.TenantID }

type InvoiceIssued struct {
	TenantID  uint      `json:"tenant_id"`
	InvoiceID uint      `json:"invoice_id"`
	BookingID uint      `json:"booking_id"`
	Total     float64   `json:"total"`
	At        time.Time `json:"at"`
}

func (InvoiceIssued) Name() string   { return NameInvoiceIssued }
func (e InvoiceIssued) Tenant() uint { return e.TenantID }

// InvoicePaid is raised once, when an invoice first reaches paid.
type InvoicePaid struct {
	TenantID  uint      `json:"tenant_id"`
	InvoiceID uint      `json:"invoice_id"`
	BookingID uint      `json:"booking_id"`
	At        time.Time `json:"at"`
}

func (InvoicePaid) Name() string   { return NameInvoicePaid }
func (e InvoicePaid) Tenant() uint { return e.TenantID }

type PaymentRecorded struct {
	TenantID  uint                 `json:"tenant_id"`
	PaymentID uint                 `json:"payment_id"`
	InvoiceID uint                 `json:"invoice_id"`
	Amount    float64              `json:"amount"`
	Status    models.PaymentStatus `json:"status"`
	At        time.Time            `json:"at"`
}

func (PaymentRecorded) Name() string   { return NamePaymentRecorded }
func (e PaymentRecorded) Tenant() uint { return e.TenantID }
