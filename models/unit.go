package models

import "time"

// PricingMode is the billing granularity that turns a time window into a
// billable duration.
type PricingMode string

const (
	PricingHourly  PricingMode = "hourly"
	PricingDaily   PricingMode = "daily"
	PricingWeekly  PricingMode = "weekly"
	PricingMonthly PricingMode = "monthly"
)

func (m PricingMode) Valid() bool {
	switch m {
	case PricingHourly, PricingDaily, PricingWeekly, PricingMonthly:
		return true
	}
	return false
}

// UnitStatus is a coarse operational flag; it says nothing about bookings.
type UnitStatus string

const (
	UnitAvailable   UnitStatus = "available"
	UnitMaintenance UnitStatus = "maintenance"
	UnitInactive    UnitStatus = "inactive"
)

type Unit struct {
	ID            uint        `json:"id" gorm:"primaryKey"`
	TenantID      uint        `json:"tenant_id" gorm:"not null;index"`
	PropertyID    uint        `json:"property_id" gorm:"not null;index"`
	Code          string      `json:"code" gorm:"size:32"`
	Name          string      `json:"name" gorm:"not null"`
	PricingMode   PricingMode `json:"pricing_mode" gorm:"type:varchar(10);not null"`
	BasePrice     float64     `json:"base_price" gorm:"type:numeric(14,2)"`
	DepositAmount float64     `json:"deposit_amount" gorm:"type:numeric(14,2)"`
	Status        UnitStatus  `json:"status" gorm:"type:varchar(16);not null;default:available"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
