package services

import (
	"context"
	"fmt"
	"time"

	"rentbook-backend/events"
	"rentbook-backend/models"
	"rentbook-backend/rental"
	"rentbook-backend/repository"
	"rentbook-backend/utils"

	"go.uber.org/zap"
)

type BookingService struct {
	env Env
}

// NewBookingService wires the service and subscribes it to InvoicePaid so
// that a fully paid invoice confirms its booking in the same transaction.
func NewBookingService(env Env) *BookingService {
	s := &BookingService{env: env.withDefaults()}
	s.env.Events.Subscribe(events.NameInvoicePaid, s.onInvoicePaid)
	return s
}

type PriceInput struct {
	UnitID uint
	Start  time.Time
	End    time.Time
	AddOns []rental.AddOnRequest
}

type CreateBookingInput struct {
	UnitID          uint
	CustomerID      string
	Start           time.Time
	End             time.Time
	AddOns          []rental.AddOnRequest
	TaxAmount       float64
	DiscountAmount  float64
	Status          models.BookingStatus
	Notes           string
	SpecialRequests string
}

type UpdateBookingInput struct {
	Start           *time.Time
	End             *time.Time
	Notes           *string
	SpecialRequests *string
}

type StatusInput struct {
	At     *time.Time
	Reason string
}

// CheckAvailability reports whether unitID is free over [start, end).
// Unknown units have no bookings and are therefore available.
func (s *BookingService) CheckAvailability(ctx context.Context, scope rental.Scope, unitID uint, start, end time.Time, excludeID uint) (bool, error) {
	if err := rental.ValidateWindow(start, end); err != nil {
		return false, err
	}
	available := true
	err := s.env.Store.Atomic(ctx, func(tx repository.Tx) error {
		if _, err := tx.GetUnit(ctx, scope, unitID, false); err != nil {
			if rental.KindOf(err) == rental.KindNotFound {
				return nil
			}
			return err
		}
		existing, err := tx.FindBlockingBookings(ctx, unitID, start, end, excludeID)
		if err != nil {
			return err
		}
		available = rental.IsAvailable(existing, start, end, excludeID)
		return nil
	})
	return available, err
}

// Price quotes a unit over a window, add-ons included.
func (s *BookingService) Price(ctx context.Context, scope rental.Scope, in PriceInput) (rental.Quote, error) {
	var q rental.Quote
	err := s.env.Store.Atomic(ctx, func(tx repository.Tx) error {
		unit, err := tx.GetUnit(ctx, scope, in.UnitID, false)
		if err != nil {
			return err
		}
		q, err = s.quote(ctx, tx, unit, in.Start, in.End, in.AddOns)
		return err
	})
	return q, err
}

func (s *BookingService) quote(ctx context.Context, tx repository.Tx, unit *models.Unit, start, end time.Time, reqs []rental.AddOnRequest) (rental.Quote, error) {
	q, err := rental.PriceUnit(*unit, start, end)
	if err != nil {
		return q, err
	}
	ids := make([]uint, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ID)
	}
	catalog, err := tx.FindAddOns(ctx, unit.TenantID, ids)
	if err != nil {
		return q, err
	}
	if err := rental.ApplyAddOns(&q, catalog, reqs); err != nil {
		return q, err
	}
	return q, nil
}

// ensureFree fails with Conflict if another booking holds unitID in
// [start, end). Callers hold the unit row lock.
func ensureFree(ctx context.Context, tx repository.Tx, unitID uint, start, end time.Time, excludeID uint) error {
	existing, err := tx.FindBlockingBookings(ctx, unitID, start, end, excludeID)
	if err != nil {
		return err
	}
	if other := rental.FirstConflict(existing, start, end, excludeID); other != nil {
		return rental.Conflict("unit is already booked for the requested period (booking %s)", other.BookingNumber)
	}
	return nil
}

func bookingTotal(subtotal, tax, discount float64) (float64, error) {
	if tax < 0 || discount < 0 {
		return 0, rental.Validation("tax and discount must not be negative")
	}
	gross := utils.Round2(subtotal + tax)
	if discount > gross {
		return 0, rental.Validation("discount %.2f exceeds subtotal plus tax %.2f", discount, gross)
	}
	return utils.Round2(gross - discount), nil
}

func (s *BookingService) CreateBooking(ctx context.Context, scope rental.Scope, in CreateBookingInput) (*models.Booking, error) {
	if err := rental.ValidateWindow(in.Start, in.End); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = models.BookingPendingPayment
	}
	if status != models.BookingDraft && status != models.BookingPendingPayment {
		return nil, rental.Validation("a new booking must be draft or pending_payment")
	}

	customerID, source := in.CustomerID, models.SourceOffline
	if scope.IsCustomer() {
		customerID, source = scope.UserID, models.SourceOnline
	} else if customerID == "" {
		return nil, rental.Validation("customer_id is required")
	}

	var booking *models.Booking
	err := s.env.atomic(ctx, func(tx repository.Tx, batch *events.Batch) error {
		unit, err := tx.GetUnit(ctx, scope, in.UnitID, true)
		if err != nil {
			return err
		}
		if unit.Status != models.UnitAvailable {
			return rental.InvalidState("unit %s is %s", unit.Code, unit.Status)
		}
		tenantScope := rental.Scope{TenantID: unit.TenantID, UserID: scope.UserID, Role: models.RoleStaff}
		customer, err := tx.GetUser(ctx, tenantScope, customerID)
		if rental.KindOf(err) == rental.KindNotFound {
			return rental.NotFound("customer not found")
		} else if err != nil {
			return err
		}
		if customer.Role != models.RoleCustomer {
			return rental.Validation("user %s is not a customer", customer.Email)
		}
		if err := ensureFree(ctx, tx, unit.ID, in.Start, in.End, 0); err != nil {
			return err
		}

		q, err := s.quote(ctx, tx, unit, in.Start, in.End, in.AddOns)
		if err != nil {
			return err
		}
		total, err := bookingTotal(q.TotalPrice, in.TaxAmount, in.DiscountAmount)
		if err != nil {
			return err
		}

		now := s.env.now()
		number, err := s.env.nextNumber(ctx, tx, unit.TenantID, bookingNumbers, now)
		if err != nil {
			return err
		}

		b := &models.Booking{
			TenantID:        unit.TenantID,
			PropertyID:      unit.PropertyID,
			UnitID:          unit.ID,
			CustomerID:      customerID,
			BookingNumber:   number,
			BookingSource:   source,
			StartAt:         in.Start,
			EndAt:           in.End,
			DurationValue:   q.DurationValue,
			DurationUnit:    q.DurationUnit,
			Subtotal:        q.TotalPrice,
			TaxAmount:       utils.Round2(in.TaxAmount),
			DiscountAmount:  utils.Round2(in.DiscountAmount),
			DepositAmount:   q.DepositAmount,
			TotalPrice:      total,
			Status:          status,
			Notes:           in.Notes,
			SpecialRequests: in.SpecialRequests,
		}
		for _, l := range q.AddOns {
			b.AddOns = append(b.AddOns, models.BookingAddOn{
				AddOnID:    l.AddOnID,
				Name:       l.Name,
				ChargeType: l.ChargeType,
				Quantity:   l.Quantity,
				UnitPrice:  l.UnitPrice,
				TotalPrice: l.TotalPrice,
			})
		}
		if err := tx.CreateBooking(ctx, b); err != nil {
			return err
		}
		if err := recordActivity(ctx, tx, scope, b.TenantID, "create", "booking", b.ID,
			fmt.Sprintf("created booking %s", b.BookingNumber), b); err != nil {
			return err
		}
		booking = b
		return s.env.Events.Publish(ctx, tx, batch, events.BookingCreated{
			TenantID: b.TenantID, BookingID: b.ID, UnitID: b.UnitID, Status: b.Status, At: now,
		})
	})
	if err != nil {
		return nil, err
	}
	s.env.Log.Info("booking created",
		zap.Uint("tenant_id", booking.TenantID),
		zap.Uint("booking_id", booking.ID),
		zap.String("booking_number", booking.BookingNumber))
	return booking, nil
}

// UpdateBooking edits dates and free-text fields. Date edits re-check
// availability and re-price the booking.
func (s *BookingService) UpdateBooking(ctx context.Context, scope rental.Scope, id uint, in UpdateBookingInput) (*models.Booking, error) {
	var booking *models.Booking
	err := s.env.Store.Atomic(ctx, func(tx repository.Tx) error {
		b, err := tx.GetBooking(ctx, scope, id, true)
		if err != nil {
			return err
		}
		if rental.IsTerminal(b.Status) {
			return rental.InvalidState("cannot update a %s booking", b.Status)
		}
		before := *b

		if in.Start != nil || in.End != nil {
			start, end := b.StartAt, b.EndAt
			if in.Start != nil {
				start = *in.Start
			}
			if in.End != nil {
				end = *in.End
			}
			if err := rental.ValidateWindow(start, end); err != nil {
				return err
			}
			unit, err := tx.GetUnit(ctx, scope, b.UnitID, true)
			if err != nil {
				return err
			}
			if err := ensureFree(ctx, tx, unit.ID, start, end, b.ID); err != nil {
				return err
			}
			q, err := rental.PriceUnit(*unit, start, end)
			if err != nil {
				return err
			}
			lines, addOnsTotal := rental.RepriceSnapshots(b.AddOns, q.DurationValue)
			subtotal := utils.Round2(q.Subtotal + addOnsTotal)
			total, err := bookingTotal(subtotal, b.TaxAmount, b.DiscountAmount)
			if err != nil {
				return err
			}
			b.StartAt, b.EndAt = start, end
			b.DurationValue, b.DurationUnit = q.DurationValue, q.DurationUnit
			b.AddOns = lines
			b.Subtotal = subtotal
			b.TotalPrice = total
		}
		if in.Notes != nil {
			b.Notes = *in.Notes
		}
		if in.SpecialRequests != nil {
			b.SpecialRequests = *in.SpecialRequests
		}

		if err := tx.SaveBooking(ctx, b); err != nil {
			return err
		}
		booking = b
		return recordActivity(ctx, tx, scope, b.TenantID, "update", "booking", b.ID,
			fmt.Sprintf("updated booking %s", b.BookingNumber),
			map[string]any{"before": before, "after": b})
	})
	return booking, err
}

// ChangeStatus moves a booking along the lifecycle graph.
func (s *BookingService) ChangeStatus(ctx context.Context, scope rental.Scope, id uint, to models.BookingStatus, in StatusInput) (*models.Booking, error) {
	var booking *models.Booking
	err := s.env.atomic(ctx, func(tx repository.Tx, batch *events.Batch) error {
		b, err := tx.GetBooking(ctx, scope, id, true)
		if err != nil {
			return err
		}
		if scope.IsCustomer() {
			if to != models.BookingCanceled {
				return rental.Validation("customers may only cancel bookings")
			}
			switch b.Status {
			case models.BookingCheckedIn, models.BookingCheckedOut, models.BookingCompleted:
				return rental.InvalidState("a %s booking can no longer be canceled", b.Status)
			}
		}
		if err := s.transition(ctx, tx, batch, scope, b, to, in); err != nil {
			return err
		}
		booking = b
		return nil
	})
	return booking, err
}

// CancelBooking is ChangeStatus to canceled.
func (s *BookingService) CancelBooking(ctx context.Context, scope rental.Scope, id uint, reason string) (*models.Booking, error) {
	return s.ChangeStatus(ctx, scope, id, models.BookingCanceled, StatusInput{Reason: reason})
}

func (s *BookingService) transition(ctx context.Context, tx repository.Tx, batch *events.Batch, scope rental.Scope,
	b *models.Booking, to models.BookingStatus, in StatusInput) error {
	from := b.Status
	// Drafts do not hold their slot, so promotion must claim it.
	if from == models.BookingDraft && to == models.BookingPendingPayment {
		if _, err := tx.GetUnit(ctx, rental.Scope{TenantID: b.TenantID, Role: models.RoleStaff}, b.UnitID, true); err != nil {
			return err
		}
		if err := ensureFree(ctx, tx, b.UnitID, b.StartAt, b.EndAt, b.ID); err != nil {
			return err
		}
	}

	now := s.env.now()
	if err := rental.ApplyTransition(b, to, rental.TransitionOptions{At: in.At, Reason: in.Reason, Now: now}); err != nil {
		return err
	}
	if err := tx.SaveBooking(ctx, b); err != nil {
		return err
	}
	if err := recordActivity(ctx, tx, scope, b.TenantID, "status_change", "booking", b.ID,
		fmt.Sprintf("booking %s: %s -> %s", b.BookingNumber, from, to),
		map[string]any{"from": from, "to": to, "reason": in.Reason}); err != nil {
		return err
	}
	return s.env.Events.Publish(ctx, tx, batch, events.BookingStatusChanged{
		TenantID: b.TenantID, BookingID: b.ID, From: from, To: to, At: now,
	})
}

// onInvoicePaid confirms a booking awaiting payment. Any other status is
// left alone.
func (s *BookingService) onInvoicePaid(ctx context.Context, tx repository.Tx, batch *events.Batch, ev events.Event) error {
	paid, ok := ev.(events.InvoicePaid)
	if !ok {
		return nil
	}
	scope := rental.Scope{TenantID: paid.TenantID, UserID: "system", Role: models.RoleStaff}
	b, err := tx.GetBooking(ctx, scope, paid.BookingID, true)
	if err != nil {
		return err
	}
	if b.Status != models.BookingPendingPayment {
		return nil
	}
	return s.transition(ctx, tx, batch, scope, b, models.BookingConfirmed,
		StatusInput{Reason: fmt.Sprintf("invoice %d paid", paid.InvoiceID)})
}

func (s *BookingService) GetBooking(ctx context.Context, scope rental.Scope, id uint) (*models.Booking, error) {
	var b *models.Booking
	err := s.env.Store.Atomic(ctx, func(tx repository.Tx) error {
		var err error
		b, err = tx.GetBooking(ctx, scope, id, false)
		return err
	})
	return b, err
}

func (s *BookingService) ListBookings(ctx context.Context, scope rental.Scope, f repository.BookingFilter) ([]models.Booking, int64, error) {
	var (
		out   []models.Booking
		total int64
	)
	err := s.env.Store.Atomic(ctx, func(tx repository.Tx) error {
		var err error
		out, total, err = tx.ListBookings(ctx, scope, f)
		return err
	})
	return out, total, err
}
