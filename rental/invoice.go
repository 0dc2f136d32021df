package rental

import (
	"time"

	"rentbook-backend/models"
	"rentbook-backend/utils"
)

// DefaultInvoiceDueDays applies when a tenant has no invoice_due_days setting.
const DefaultInvoiceDueDays = 7

// maxRecurringPeriods bounds the month walk for a single booking.
const maxRecurringPeriods = 600

// InvoiceStatusFor derives the payment status of an invoice from its
// totals. Canceled and overdue are overrides applied elsewhere.
func InvoiceStatusFor(total, paid float64) models.InvoiceStatus {
	total, paid = utils.Round2(total), utils.Round2(paid)
	switch {
	case paid >= total:
		return models.InvoicePaid
	case paid > 0:
		return models.InvoicePartial
	default:
		return models.InvoiceUnpaid
	}
}

func Outstanding(inv *models.Invoice) float64 {
	return utils.Round2(inv.TotalAmount - inv.PaidAmount)
}

// Overdue reports whether the sweep should flip inv on day today.
func Overdue(inv *models.Invoice, today time.Time) bool {
	if inv.Status != models.InvoiceUnpaid && inv.Status != models.InvoicePartial {
		return false
	}
	return DateOf(inv.DueDate).Before(DateOf(today))
}

// DateOf truncates t to midnight in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func DueDate(issue time.Time, dueDays int) time.Time {
	if dueDays < 0 {
		dueDays = DefaultInvoiceDueDays
	}
	return DateOf(issue).AddDate(0, 0, dueDays)
}

// Period is one monthly billing period of a long-stay booking.
type Period struct {
	Month int
	Year  int
	Start time.Time
}

// RecurringPeriods walks month anniversaries of start over [start, end).
// Anniversaries past the end of a short month clamp to its last day, so a
// booking starting Jan 31 is billed for Feb 29/28 rather than skipping
// February.
func RecurringPeriods(start, end time.Time) []Period {
	var out []Period
	for i := 0; i < maxRecurringPeriods; i++ {
		p := addMonthsClamped(start, i)
		if !p.Before(end) {
			break
		}
		out = append(out, Period{Month: int(p.Month()), Year: p.Year(), Start: p})
	}
	return out
}

func addMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// SplitAmount returns the i-th of n even shares of amount; the last share
// absorbs the rounding remainder so the shares sum to amount.
func SplitAmount(amount float64, n, i int) float64 {
	if n <= 1 {
		return utils.Round2(amount)
	}
	share := utils.Round2(amount / float64(n))
	if i == n-1 {
		return utils.Round2(amount - share*float64(n-1))
	}
	return share
}
