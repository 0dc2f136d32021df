package models

type ChargeType string

const (
	ChargePerBooking ChargeType = "per_booking"
	ChargePerDay     ChargeType = "per_day"
	ChargePerHour    ChargeType = "per_hour"
)

func (c ChargeType) Valid() bool {
	switch c {
	case ChargePerBooking, ChargePerDay, ChargePerHour:
		return true
	}
	return false
}

// AddOn is a catalog extra (breakfast, parking, child seat...).
type AddOn struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	TenantID    uint       `json:"tenant_id" gorm:"not null;index"`
	Name        string     `json:"name" gorm:"not null"`
	Description string     `json:"description"`
	Price       float64    `json:"price" gorm:"type:numeric(14,2)"`
	ChargeType  ChargeType `json:"charge_type" gorm:"type:varchar(16);not null"`
	IsActive    bool       `json:"is_active" gorm:"not null;default:true"`
}

// BookingAddOn snapshots an add-on at booking time so later catalog edits
// do not rewrite history.
type BookingAddOn struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	BookingID  uint       `json:"-" gorm:"not null;index"`
	AddOnID    uint       `json:"add_on_id" gorm:"not null"`
	Name       string     `json:"name"`
	ChargeType ChargeType `json:"charge_type" gorm:"type:varchar(16)"`
	Quantity   int        `json:"quantity"`
	UnitPrice  float64    `json:"unit_price" gorm:"type:numeric(14,2)"`
	TotalPrice float64    `json:"total_price" gorm:"type:numeric(14,2)"`
}
