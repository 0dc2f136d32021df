package models

import "time"

type PropertyType string

const (
	PropertyHouse PropertyType = "house"
	PropertyKos   PropertyType = "kos" // boarding rooms
	PropertyCar   PropertyType = "car"
)

type Property struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	TenantID  uint         `json:"tenant_id" gorm:"not null;index"`
	Name      string       `json:"name" gorm:"not null"`
	Type      PropertyType `json:"type" gorm:"type:varchar(10);not null"`
	Address   string       `json:"address"`
	City      string       `json:"city"`
	CreatedAt time.Time    `json:"created_at"`
}
