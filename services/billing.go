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

type BillingService struct {
	env Env
}

func NewBillingService(env Env) *BillingService {
	return &BillingService{env: env.withDefaults()}
}

// BillingPeriod selects a calendar month for a period invoice.
type BillingPeriod struct {
	Month int
	Year  int
}

type PaymentInput struct {
	Amount               float64
	Method               models.PaymentMethod
	TransactionReference string
	Status               models.PaymentStatus
	PaidAt               *time.Time
	Notes                string
}

type RefundInput struct {
	Amount float64
	Notes  string
}

type invoiceAmounts struct {
	subtotal, tax, discount, total float64
}

// CreateInvoiceFromBooking bills a booking in full, or for one month when
// period is set.
func (s *BillingService) CreateInvoiceFromBooking(ctx context.Context, scope rental.Scope, bookingID uint, period *BillingPeriod) (*models.Invoice, error) {
	if period != nil && (period.Month < 1 || period.Month > 12 || period.Year < 1970) {
		return nil, rental.Validation("invalid billing period %d/%d", period.Month, period.Year)
	}
	var inv *models.Invoice
	err := s.env.atomic(ctx, func(tx repository.Tx, batch *events.Batch) error {
		b, err := tx.GetBooking(ctx, scope, bookingID, true)
		if err != nil {
			return err
		}
		if b.Status == models.BookingCanceled {
			return rental.InvalidState("cannot invoice a canceled booking")
		}
		issue := rental.DateOf(s.env.now())
		amounts := invoiceAmounts{subtotal: b.Subtotal, tax: b.TaxAmount, discount: b.DiscountAmount, total: b.TotalPrice}
		if period != nil {
			exists, err := tx.InvoiceExistsForPeriod(ctx, b.ID, period.Month, period.Year)
			if err != nil {
				return err
			}
			if exists {
				return rental.Conflict("booking %s already has an invoice for %02d/%d", b.BookingNumber, period.Month, period.Year)
			}
			if amounts, issue, err = s.periodShare(b, *period); err != nil {
				return err
			}
		}
		inv, err = s.issue(ctx, tx, batch, scope, b, amounts, issue, period)
		return err
	})
	return inv, err
}

// GenerateRecurringInvoices creates one invoice per month anniversary of a
// monthly booking. Periods already invoiced are skipped, so re-runs only
// fill gaps.
func (s *BillingService) GenerateRecurringInvoices(ctx context.Context, scope rental.Scope, bookingID uint) ([]models.Invoice, error) {
	var created []models.Invoice
	err := s.env.atomic(ctx, func(tx repository.Tx, batch *events.Batch) error {
		created = nil
		b, err := tx.GetBooking(ctx, scope, bookingID, true)
		if err != nil {
			return err
		}
		if b.Status == models.BookingCanceled {
			return rental.InvalidState("cannot invoice a canceled booking")
		}
		unit, err := tx.GetUnit(ctx, rental.Scope{TenantID: b.TenantID, Role: models.RoleStaff}, b.UnitID, false)
		if err != nil {
			return err
		}
		if unit.PricingMode != models.PricingMonthly {
			return rental.InvalidState("recurring invoices need monthly pricing, unit %s is %s", unit.Code, unit.PricingMode)
		}

		for _, p := range s.periods(b) {
			exists, err := tx.InvoiceExistsForPeriod(ctx, b.ID, p.Month, p.Year)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			period := BillingPeriod{Month: p.Month, Year: p.Year}
			a, issue, err := s.periodShare(b, period)
			if err != nil {
				return err
			}
			inv, err := s.issue(ctx, tx, batch, scope, b, a, issue, &period)
			if err != nil {
				return err
			}
			created = append(created, *inv)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.env.Log.Info("recurring invoices generated",
		zap.Uint("booking_id", bookingID),
		zap.Int("created", len(created)))
	return created, nil
}

func (s *BillingService) periods(b *models.Booking) []rental.Period {
	return rental.RecurringPeriods(b.StartAt.In(s.env.Location), b.EndAt.In(s.env.Location))
}

// periodShare is what one month of a booking bills: an even share of the
// booking amounts, issued on that month's anniversary of the start. Explicit
// period invoices and recurring runs both go through it, so mixing them never
// bills more than the booking total.
func (s *BillingService) periodShare(b *models.Booking, period BillingPeriod) (invoiceAmounts, time.Time, error) {
	periods := s.periods(b)
	for i, p := range periods {
		if p.Month != period.Month || p.Year != period.Year {
			continue
		}
		n := len(periods)
		a := invoiceAmounts{
			subtotal: rental.SplitAmount(b.Subtotal, n, i),
			tax:      rental.SplitAmount(b.TaxAmount, n, i),
			discount: rental.SplitAmount(b.DiscountAmount, n, i),
		}
		a.total = utils.Sum(a.subtotal, a.tax, -a.discount)
		return a, rental.DateOf(p.Start), nil
	}
	return invoiceAmounts{}, time.Time{}, rental.Validation("booking %s does not run in %02d/%d", b.BookingNumber, period.Month, period.Year)
}

func (s *BillingService) issue(ctx context.Context, tx repository.Tx, batch *events.Batch, scope rental.Scope,
	b *models.Booking, a invoiceAmounts, issue time.Time, period *BillingPeriod) (*models.Invoice, error) {
	dueDays, err := s.env.Settings.Int(ctx, tx, b.TenantID, models.SettingInvoiceDueDays, rental.DefaultInvoiceDueDays)
	if err != nil {
		return nil, err
	}
	number, err := s.env.nextNumber(ctx, tx, b.TenantID, invoiceNumbers, issue)
	if err != nil {
		return nil, err
	}
	inv := &models.Invoice{
		TenantID:       b.TenantID,
		BookingID:      b.ID,
		CustomerID:     b.CustomerID,
		InvoiceNumber:  number,
		IssueDate:      issue,
		DueDate:        rental.DueDate(issue, dueDays),
		Subtotal:       a.subtotal,
		TaxAmount:      a.tax,
		DiscountAmount: a.discount,
		TotalAmount:    a.total,
		Status:         rental.InvoiceStatusFor(a.total, 0),
	}
	if period != nil {
		m, y := period.Month, period.Year
		inv.PeriodMonth, inv.PeriodYear = &m, &y
	}
	if err := tx.CreateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	if err := recordActivity(ctx, tx, scope, inv.TenantID, "create", "invoice", inv.ID,
		fmt.Sprintf("issued invoice %s for booking %s", inv.InvoiceNumber, b.BookingNumber), inv); err != nil {
		return nil, err
	}
	now := s.env.now()
	if err := s.env.Events.Publish(ctx, tx, batch, events.InvoiceIssued{
		TenantID: inv.TenantID, InvoiceID: inv.ID, BookingID: inv.BookingID, Total: inv.TotalAmount, At: now,
	}); err != nil {
		return nil, err
	}
	// A zero-total invoice is settled on issue.
	if inv.Status == models.InvoicePaid {
		if err := s.env.Events.Publish(ctx, tx, batch, events.InvoicePaid{
			TenantID: inv.TenantID, InvoiceID: inv.ID, BookingID: inv.BookingID, At: now,
		}); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

// reconcile recomputes paid_amount from the ledger and derives the status.
// An overdue invoice stays overdue until fully paid.
func (s *BillingService) reconcile(ctx context.Context, tx repository.Tx, batch *events.Batch, inv *models.Invoice) error {
	totals, err := tx.PaymentTotals(ctx, inv.ID)
	if err != nil {
		return err
	}
	prev := inv.Status
	inv.PaidAmount = utils.Round2(totals.Net())
	next := rental.InvoiceStatusFor(inv.TotalAmount, inv.PaidAmount)
	if prev == models.InvoiceOverdue && next != models.InvoicePaid {
		next = models.InvoiceOverdue
	}
	inv.Status = next
	if err := tx.SaveInvoice(ctx, inv); err != nil {
		return err
	}
	if prev != models.InvoicePaid && next == models.InvoicePaid {
		return s.env.Events.Publish(ctx, tx, batch, events.InvoicePaid{
			TenantID: inv.TenantID, InvoiceID: inv.ID, BookingID: inv.BookingID, At: s.env.now(),
		})
	}
	return nil
}

func validMethod(m models.PaymentMethod) bool {
	switch m {
	case models.MethodBankTransfer, models.MethodCash, models.MethodGateway:
		return true
	}
	return false
}

// RecordPayment appends a payment to an invoice. The invoice row is locked
// so concurrent payments cannot jointly exceed its total.
func (s *BillingService) RecordPayment(ctx context.Context, scope rental.Scope, invoiceID uint, in PaymentInput) (*models.Payment, *models.Invoice, error) {
	amount := utils.Round2(in.Amount)
	if amount <= 0 {
		return nil, nil, rental.Validation("payment amount must be positive")
	}
	if !validMethod(in.Method) {
		return nil, nil, rental.Validation("unknown payment method %q", in.Method)
	}
	status := in.Status
	if status == "" {
		status = models.PaymentSuccess
	}
	switch status {
	case models.PaymentPending, models.PaymentSuccess, models.PaymentFailed:
	default:
		return nil, nil, rental.Validation("payment status %q cannot be recorded directly", status)
	}

	var (
		payment *models.Payment
		invoice *models.Invoice
	)
	err := s.env.atomic(ctx, func(tx repository.Tx, batch *events.Batch) error {
		inv, err := tx.GetInvoice(ctx, scope, invoiceID, true)
		if err != nil {
			return err
		}
		switch inv.Status {
		case models.InvoiceCanceled:
			return rental.InvalidState("invoice %s is canceled", inv.InvoiceNumber)
		case models.InvoicePaid:
			return rental.InvalidState("invoice %s is already paid", inv.InvoiceNumber)
		}
		if outstanding := rental.Outstanding(inv); utils.Exceeds(amount, outstanding) {
			return rental.Validation("payment amount %.2f exceeds outstanding balance %.2f", amount, outstanding)
		}

		now := s.env.now()
		paidAt := now
		if in.PaidAt != nil {
			paidAt = *in.PaidAt
		}
		number, err := s.env.nextNumber(ctx, tx, inv.TenantID, paymentNumbers, now)
		if err != nil {
			return err
		}
		p := &models.Payment{
			TenantID:             inv.TenantID,
			InvoiceID:            inv.ID,
			BookingID:            inv.BookingID,
			PaymentNumber:        number,
			Amount:               amount,
			Method:               in.Method,
			TransactionReference: in.TransactionReference,
			Status:               status,
			PaidAt:               paidAt,
			Notes:                in.Notes,
			CreatedBy:            scope.UserID,
		}
		if err := tx.CreatePayment(ctx, p); err != nil {
			return err
		}
		if err := s.reconcile(ctx, tx, batch, inv); err != nil {
			return err
		}
		if err := recordActivity(ctx, tx, scope, inv.TenantID, "payment", "invoice", inv.ID,
			fmt.Sprintf("payment %s of %.2f on invoice %s", p.PaymentNumber, p.Amount, inv.InvoiceNumber), p); err != nil {
			return err
		}
		payment, invoice = p, inv
		return s.env.Events.Publish(ctx, tx, batch, events.PaymentRecorded{
			TenantID: p.TenantID, PaymentID: p.ID, InvoiceID: p.InvoiceID, Amount: p.Amount, Status: p.Status, At: now,
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return payment, invoice, nil
}

// RefundPayment appends a refunded entry against a successful payment. The
// booking status is not reverted.
func (s *BillingService) RefundPayment(ctx context.Context, scope rental.Scope, paymentID uint, in RefundInput) (*models.Payment, *models.Invoice, error) {
	amount := utils.Round2(in.Amount)
	if amount <= 0 {
		return nil, nil, rental.Validation("refund amount must be positive")
	}
	var (
		refund  *models.Payment
		invoice *models.Invoice
	)
	err := s.env.atomic(ctx, func(tx repository.Tx, batch *events.Batch) error {
		orig, err := tx.GetPayment(ctx, scope, paymentID)
		if err != nil {
			return err
		}
		if orig.Status != models.PaymentSuccess {
			return rental.InvalidState("only successful payments can be refunded, payment %s is %s", orig.PaymentNumber, orig.Status)
		}
		inv, err := tx.GetInvoice(ctx, scope, orig.InvoiceID, true)
		if err != nil {
			return err
		}
		refunded, err := tx.RefundedAmount(ctx, orig.ID)
		if err != nil {
			return err
		}
		if refundable := utils.Round2(orig.Amount - refunded); utils.Exceeds(amount, refundable) {
			return rental.Validation("refund %.2f exceeds refundable amount %.2f", amount, refundable)
		}

		now := s.env.now()
		number, err := s.env.nextNumber(ctx, tx, inv.TenantID, paymentNumbers, now)
		if err != nil {
			return err
		}
		origID := orig.ID
		r := &models.Payment{
			TenantID:      inv.TenantID,
			InvoiceID:     inv.ID,
			BookingID:     inv.BookingID,
			PaymentNumber: number,
			Amount:        amount,
			Method:        orig.Method,
			Status:        models.PaymentRefunded,
			RefundOf:      &origID,
			PaidAt:        now,
			Notes:         in.Notes,
			CreatedBy:     scope.UserID,
		}
		if err := tx.CreatePayment(ctx, r); err != nil {
			return err
		}
		if err := s.reconcile(ctx, tx, batch, inv); err != nil {
			return err
		}
		if err := recordActivity(ctx, tx, scope, inv.TenantID, "refund", "invoice", inv.ID,
			fmt.Sprintf("refund %s of %.2f against %s", r.PaymentNumber, r.Amount, orig.PaymentNumber), r); err != nil {
			return err
		}
		refund, invoice = r, inv
		return s.env.Events.Publish(ctx, tx, batch, events.PaymentRecorded{
			TenantID: r.TenantID, PaymentID: r.ID, InvoiceID: r.InvoiceID, Amount: r.Amount, Status: r.Status, At: now,
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return refund, invoice, nil
}

// CancelInvoice voids an invoice nobody has paid anything on.
func (s *BillingService) CancelInvoice(ctx context.Context, scope rental.Scope, invoiceID uint) (*models.Invoice, error) {
	var invoice *models.Invoice
	err := s.env.Store.Atomic(ctx, func(tx repository.Tx) error {
		inv, err := tx.GetInvoice(ctx, scope, invoiceID, true)
		if err != nil {
			return err
		}
		if inv.Status == models.InvoiceCanceled {
			return rental.InvalidState("invoice %s is already canceled", inv.InvoiceNumber)
		}
		if inv.PaidAmount > 0 {
			return rental.InvalidState("invoice %s has payments of %.2f", inv.InvoiceNumber, inv.PaidAmount)
		}
		inv.Status = models.InvoiceCanceled
		if err := tx.SaveInvoice(ctx, inv); err != nil {
			return err
		}
		invoice = inv
		return recordActivity(ctx, tx, scope, inv.TenantID, "cancel", "invoice", inv.ID,
			fmt.Sprintf("canceled invoice %s", inv.InvoiceNumber), nil)
	})
	return invoice, err
}

// MarkOverdueInvoices flips unpaid and partial invoices due before today.
// A zero today means now. Running it twice on the same day changes nothing
// the second time.
func (s *BillingService) MarkOverdueInvoices(ctx context.Context, scope rental.Scope, today time.Time) (int64, error) {
	if today.IsZero() {
		today = s.env.now()
	}
	var n int64
	err := s.env.Store.Atomic(ctx, func(tx repository.Tx) error {
		var err error
		n, err = tx.MarkOverdue(ctx, scope, today.In(s.env.Location))
		return err
	})
	if err != nil {
		return 0, err
	}
	s.env.Log.Info("overdue sweep finished",
		zap.Uint("tenant_id", scope.TenantID),
		zap.String("today", rental.DateOf(today.In(s.env.Location)).Format("2006-01-02")),
		zap.Int64("marked", n))
	return n, nil
}

func (s *BillingService) GetInvoice(ctx context.Context, scope rental.Scope, id uint) (*models.Invoice, error) {
	var inv *models.Invoice
	err := s.env.Store.Atomic(ctx, func(tx repository.Tx) error {
		var err error
		inv, err = tx.GetInvoice(ctx, scope, id, false)
		return err
	})
	return inv, err
}

func (s *BillingService) ListInvoices(ctx context.Context, scope rental.Scope, f repository.InvoiceFilter) ([]models.Invoice, error) {
	var out []models.Invoice
	err := s.env.Store.Atomic(ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.ListInvoices(ctx, scope, f)
		return err
	})
	return out, err
}

// ListPayments returns the ledger of an invoice visible to scope.
func (s *BillingService) ListPayments(ctx context.Context, scope rental.Scope, invoiceID uint) ([]models.Payment, error) {
	var out []models.Payment
	err := s.env.Store.Atomic(ctx, func(tx repository.Tx) error {
		inv, err := tx.GetInvoice(ctx, scope, invoiceID, false)
		if err != nil {
			return err
		}
		out, err = tx.ListPayments(ctx, rental.Scope{TenantID: inv.TenantID, Role: models.RoleStaff}, inv.ID)
		return err
	})
	return out, err
}
