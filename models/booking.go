package models

import "time"

type BookingStatus string

const (
	BookingDraft          BookingStatus = "draft"
	BookingPendingPayment BookingStatus = "pending_payment"
	BookingConfirmed      BookingStatus = "confirmed"
	BookingCheckedIn      BookingStatus = "checked_in"
	BookingCheckedOut     BookingStatus = "checked_out"
	BookingCanceled       BookingStatus = "canceled"
	BookingCompleted      BookingStatus = "completed"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingDraft, BookingPendingPayment, BookingConfirmed, BookingCheckedIn,
		BookingCheckedOut, BookingCanceled, BookingCompleted:
		return true
	}
	return false
}

// HoldsUnit reports whether a booking in this status occupies its unit.
func (s BookingStatus) HoldsUnit() bool {
	return s != BookingCanceled && s != BookingDraft
}

// NonBlockingBookingStatuses are excluded from overlap checks.
var NonBlockingBookingStatuses = []BookingStatus{BookingCanceled, BookingDraft}

const (
	SourceOnline  = "online"
	SourceOffline = "offline"
)

// Booking is never deleted; cancellation is a status.
type Booking struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	TenantID      uint   `json:"tenant_id" gorm:"not null;index;uniqueIndex:idx_bookings_tenant_number,priority:1"`
	PropertyID    uint   `json:"property_id" gorm:"not null;index"`
	UnitID        uint   `json:"unit_id" gorm:"not null;index:idx_bookings_unit_window,priority:1"`
	CustomerID    string `json:"customer_id" gorm:"size:36;not null;index"`
	BookingNumber string `json:"booking_number" gorm:"size:40;not null;uniqueIndex:idx_bookings_tenant_number,priority:2"`
	BookingSource string `json:"booking_source" gorm:"size:10"`

	StartAt time.Time `json:"start_datetime" gorm:"not null;index:idx_bookings_unit_window,priority:2"`
	EndAt   time.Time `json:"end_datetime" gorm:"not null;index:idx_bookings_unit_window,priority:3"`

	// Pricing snapshot taken at creation / last date edit.
	DurationValue  int     `json:"duration_value"`
	DurationUnit   string  `json:"duration_unit" gorm:"size:8"`
	Subtotal       float64 `json:"subtotal" gorm:"type:numeric(14,2)"`
	TaxAmount      float64 `json:"tax_amount" gorm:"type:numeric(14,2)"`
	DiscountAmount float64 `json:"discount_amount" gorm:"type:numeric(14,2)"`
	DepositAmount  float64 `json:"deposit_amount" gorm:"type:numeric(14,2)"`
	TotalPrice     float64 `json:"total_price" gorm:"type:numeric(14,2)"`

	Status             BookingStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	Notes              string        `json:"notes"`
	SpecialRequests    string        `json:"special_requests"`
	CheckInAt          *time.Time    `json:"check_in_at"`
	CheckOutAt         *time.Time    `json:"check_out_at"`
	CanceledAt         *time.Time    `json:"canceled_at"`
	CancellationReason string        `json:"cancellation_reason"`

	AddOns []BookingAddOn `json:"add_ons" gorm:"foreignKey:BookingID;constraint:OnDelete:RESTRICT"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
