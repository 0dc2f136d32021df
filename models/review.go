package models

import "time"

// Review is a customer's rating of a finished booking, one per booking.
type Review struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	TenantID   uint      `json:"tenant_id" gorm:"not null;index"`
	BookingID  uint      `json:"booking_id" gorm:"not null;uniqueIndex"`
	PropertyID uint      `json:"property_id" gorm:"not null;index"`
	UnitID     uint      `json:"unit_id" gorm:"not null;index"`
	CustomerID string    `json:"customer_id" gorm:"size:36;not null;index"`
	Rating     int       `json:"rating" gorm:"not null"`
	Comment    string    `json:"comment"`
	IsApproved bool      `json:"is_approved" gorm:"not null;default:true"`
	CreatedAt  time.Time `json:"created_at"`
}
