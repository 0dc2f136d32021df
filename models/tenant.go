package models

import "time"

// Tenant is an isolated platform customer (a rental business).
type Tenant struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Slug      string    `json:"slug" gorm:"size:64;not null;unique"`
	CreatedAt time.Time `json:"created_at"`
}
