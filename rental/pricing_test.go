package rental

import (
	"testing"
	"time"

	"rentbook-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration(t *testing.T) {
	start := time.Date(2025, time.January, 10, 14, 0, 0, 0, time.UTC)
	cases := []struct {
		name  string
		mode  models.PricingMode
		end   time.Time
		value int
		unit  string
	}{
		{"hourly rounds up", models.PricingHourly, start.Add(2*time.Hour + 30*time.Minute), 3, "hour"},
		{"hourly exact", models.PricingHourly, start.Add(4 * time.Hour), 4, "hour"},
		{"daily counts full days", models.PricingDaily, start.Add(2*24*time.Hour + 5*time.Hour), 2, "day"},
		{"daily minimum one", models.PricingDaily, start.Add(3 * time.Hour), 1, "day"},
		{"weekly rounds up", models.PricingWeekly, start.AddDate(0, 0, 10), 2, "week"},
		{"weekly minimum one", models.PricingWeekly, start.AddDate(0, 0, 3), 1, "week"},
		{"monthly whole months", models.PricingMonthly, time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC), 2, "month"},
		{"monthly short of anniversary", models.PricingMonthly, time.Date(2025, time.March, 9, 14, 0, 0, 0, time.UTC), 1, "month"},
		{"monthly minimum one", models.PricingMonthly, start.AddDate(0, 0, 10), 1, "month"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, u, err := Duration(tc.mode, start, tc.end)
			require.NoError(t, err)
			assert.Equal(t, tc.value, v)
			assert.Equal(t, tc.unit, u)
		})
	}
}

func TestDurationRejectsBadInput(t *testing.T) {
	start := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)

	_, _, err := Duration(models.PricingDaily, start, start)
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = Duration("yearly", start, start.Add(time.Hour))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPriceUnitWithAddOns(t *testing.T) {
	unit := models.Unit{PricingMode: models.PricingDaily, BasePrice: 250000, DepositAmount: 100000}
	start := time.Date(2025, time.June, 1, 14, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 3)

	q, err := PriceUnit(unit, start, end)
	require.NoError(t, err)
	assert.Equal(t, 3, q.DurationValue)
	assert.Equal(t, 750000.0, q.Subtotal)
	assert.Equal(t, 100000.0, q.DepositAmount)

	catalog := []models.AddOn{
		{ID: 1, Name: "Breakfast", Price: 50000, ChargeType: models.ChargePerDay, IsActive: true},
		{ID: 2, Name: "Cleaning", Price: 75000, ChargeType: models.ChargePerBooking, IsActive: true},
		{ID: 3, Name: "Retired", Price: 10, ChargeType: models.ChargePerBooking, IsActive: false},
	}
	err = ApplyAddOns(&q, catalog, []AddOnRequest{{ID: 1, Quantity: 2}, {ID: 2, Quantity: 1}, {ID: 3, Quantity: 1}, {ID: 99, Quantity: 1}})
	require.NoError(t, err)

	require.Len(t, q.AddOns, 2)
	assert.Equal(t, 300000.0, q.AddOns[0].TotalPrice) // 50k * 2 guests * 3 days
	assert.Equal(t, 75000.0, q.AddOns[1].TotalPrice)
	assert.Equal(t, 375000.0, q.AddOnsTotal)
	assert.Equal(t, 1125000.0, q.TotalPrice)
}

func TestApplyAddOnsRejectsZeroQuantity(t *testing.T) {
	q := Quote{DurationValue: 1}
	err := ApplyAddOns(&q, nil, []AddOnRequest{{ID: 1, Quantity: 0}})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPerHourAddOnMultipliesDurationByTwentyFour(t *testing.T) {
	a := models.AddOn{Price: 1000, ChargeType: models.ChargePerHour}

	// two weeks are charged as 48 hours, not 336
	assert.Equal(t, 48000.0, PriceAddOn(a, 1, 2))
	assert.Equal(t, 96000.0, PriceAddOn(a, 2, 2))
}

func TestRepriceSnapshotsKeepsCapturedPrice(t *testing.T) {
	lines := []models.BookingAddOn{
		{AddOnID: 1, ChargeType: models.ChargePerDay, Quantity: 1, UnitPrice: 20, TotalPrice: 40},
		{AddOnID: 2, ChargeType: models.ChargePerBooking, Quantity: 3, UnitPrice: 5, TotalPrice: 15},
	}
	out, total := RepriceSnapshots(lines, 5)

	assert.Equal(t, 100.0, out[0].TotalPrice)
	assert.Equal(t, 15.0, out[1].TotalPrice)
	assert.Equal(t, 115.0, total)
	assert.Equal(t, 40.0, lines[0].TotalPrice, "input is not modified")
}
