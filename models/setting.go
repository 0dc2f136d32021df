package models

import "time"

// Tenant-configurable keys read through the settings store.
const (
	SettingBookingPrefix  = "booking_prefix"
	SettingInvoicePrefix  = "invoice_prefix"
	SettingPaymentPrefix  = "payment_prefix"
	SettingInvoiceDueDays = "invoice_due_days"
)

type Setting struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	TenantID  uint      `json:"-" gorm:"not null;uniqueIndex:idx_settings_tenant_key,priority:1"`
	Key       string    `json:"key" gorm:"size:64;not null;uniqueIndex:idx_settings_tenant_key,priority:2"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sequence is an atomic per-tenant counter backing document numbers.
type Sequence struct {
	TenantID uint   `gorm:"primaryKey;autoIncrement:false"`
	Scope    string `gorm:"primaryKey;size:16"`
	Period   string `gorm:"primaryKey;size:8"`
	Value    int64  `gorm:"not null"`
}
