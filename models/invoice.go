package models

import (
	"time"
)

type InvoiceStatus string

const (
	InvoiceUnpaid   InvoiceStatus = "unpaid"
	InvoicePartial  InvoiceStatus = "partial"
	InvoicePaid     InvoiceStatus = "paid"
	InvoiceOverdue  InvoiceStatus = "overdue"
	InvoiceCanceled InvoiceStatus = "canceled"
)

// Invoice belongs to a booking. A monthly booking may own one invoice per
// billing period (PeriodMonth/PeriodYear set).
type Invoice struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	TenantID      uint   `json:"tenant_id" gorm:"not null;index;uniqueIndex:idx_invoices_tenant_number,priority:1"`
	BookingID     uint   `json:"booking_id" gorm:"not null;index"`
	CustomerID    string `json:"customer_id" gorm:"size:36;not null;index"`
	InvoiceNumber string `json:"invoice_number" gorm:"size:40;not null;uniqueIndex:idx_invoices_tenant_number,priority:2"`

	IssueDate   time.Time `json:"issue_date" gorm:"type:date;not null"`
	DueDate     time.Time `json:"due_date" gorm:"type:date;not null;index"`
	PeriodMonth *int      `json:"period_month"`
	PeriodYear  *int      `json:"period_year"`

	Subtotal       float64 `json:"subtotal" gorm:"type:numeric(14,2)"`
	TaxAmount      float64 `json:"tax_amount" gorm:"type:numeric(14,2)"`
	DiscountAmount float64 `json:"discount_amount" gorm:"type:numeric(14,2)"`
	TotalAmount    float64 `json:"total_amount" gorm:"type:numeric(14,2)"`

	// Payments rollup, recomputed from the ledger after every payment.
	PaidAmount float64 `json:"paid_amount" gorm:"type:numeric(14,2);not null;default:0"`

	Status InvoiceStatus `json:"status" gorm:"type:varchar(10);not null;index"`
	Notes  string        `json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentSuccess  PaymentStatus = "success"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCash         PaymentMethod = "cash"
	MethodGateway      PaymentMethod = "gateway"
)

// Payment is an append-only ledger entry. A refund is a new entry with
// status refunded and RefundOf pointing at the original payment.
type Payment struct {
	ID                   uint          `json:"id" gorm:"primaryKey"`
	TenantID             uint          `json:"tenant_id" gorm:"not null;index;uniqueIndex:idx_payments_tenant_number,priority:1"`
	InvoiceID            uint          `json:"invoice_id" gorm:"not null;index:idx_payments_invoice_paid_at,priority:1"`
	BookingID            uint          `json:"booking_id" gorm:"not null;index"`
	PaymentNumber        string        `json:"payment_number" gorm:"size:40;not null;uniqueIndex:idx_payments_tenant_number,priority:2"`
	Amount               float64       `json:"amount" gorm:"type:numeric(14,2)"`
	Method               PaymentMethod `json:"method" gorm:"type:varchar(16);not null"`
	TransactionReference string        `json:"transaction_reference"`
	Status               PaymentStatus `json:"status" gorm:"type:varchar(10);not null"`
	RefundOf             *uint         `json:"refund_of" gorm:"index"`
	PaidAt               time.Time     `json:"paid_at" gorm:"index:idx_payments_invoice_paid_at,priority:2"`
	Notes                string        `json:"notes"`
	CreatedBy            string        `json:"created_by" gorm:"size:36"`
	CreatedAt            time.Time     `json:"created_at"`
}
