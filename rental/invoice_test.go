package rental

import (
	"testing"
	"time"

	"rentbook-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceStatusFor(t *testing.T) {
	assert.Equal(t, models.InvoiceUnpaid, InvoiceStatusFor(100, 0))
	assert.Equal(t, models.InvoicePartial, InvoiceStatusFor(100, 40))
	assert.Equal(t, models.InvoicePaid, InvoiceStatusFor(100, 100))
	assert.Equal(t, models.InvoicePaid, InvoiceStatusFor(0, 0))
	// float noise below a cent does not leave an invoice partial
	assert.Equal(t, models.InvoicePaid, InvoiceStatusFor(0.3, 0.1+0.2))
}

func TestOverdue(t *testing.T) {
	due := time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC)
	inv := &models.Invoice{Status: models.InvoiceUnpaid, DueDate: due}

	assert.False(t, Overdue(inv, due.Add(23*time.Hour)), "due day itself is not overdue")
	assert.True(t, Overdue(inv, due.AddDate(0, 0, 1)))

	inv.Status = models.InvoicePartial
	assert.True(t, Overdue(inv, due.AddDate(0, 0, 1)))

	for _, s := range []models.InvoiceStatus{models.InvoicePaid, models.InvoiceCanceled, models.InvoiceOverdue} {
		inv.Status = s
		assert.False(t, Overdue(inv, due.AddDate(0, 1, 0)), string(s))
	}
}

func TestDueDate(t *testing.T) {
	issue := time.Date(2025, time.April, 28, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.May, 5, 0, 0, 0, 0, time.UTC), DueDate(issue, 7))
	assert.Equal(t, DueDate(issue, DefaultInvoiceDueDays), DueDate(issue, -1))
}

func TestRecurringPeriodsClampToMonthEnd(t *testing.T) {
	start := time.Date(2024, time.January, 31, 14, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)

	periods := RecurringPeriods(start, end)
	require.Len(t, periods, 4)

	wantDays := []int{31, 29, 31, 30}
	for i, p := range periods {
		assert.Equal(t, i+1, p.Month)
		assert.Equal(t, 2024, p.Year)
		assert.Equal(t, wantDays[i], p.Start.Day())
	}
}

func TestRecurringPeriodsEmptyWindow(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	assert.Empty(t, RecurringPeriods(start, start))
}

func TestSplitAmountSumsToTotal(t *testing.T) {
	shares := []float64{SplitAmount(100, 3, 0), SplitAmount(100, 3, 1), SplitAmount(100, 3, 2)}
	assert.Equal(t, []float64{33.33, 33.33, 33.34}, shares)

	assert.Equal(t, 99.99, SplitAmount(99.99, 1, 0))
}
