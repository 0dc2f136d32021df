package rental

import (
	"math"
	"time"

	"rentbook-backend/models"
	"rentbook-backend/utils"
)

// Quote is the priced result for a unit over a window.
type Quote struct {
	DurationValue int         `json:"duration_value"`
	DurationUnit  string      `json:"duration_unit"`
	BasePrice     float64     `json:"base_price"`
	Subtotal      float64     `json:"subtotal"`
	DepositAmount float64     `json:"deposit_amount"`
	AddOns        []AddOnLine `json:"add_ons,omitempty"`
	AddOnsTotal   float64     `json:"add_ons_total"`
	TotalPrice    float64     `json:"total_price"`
}

// AddOnRequest selects a catalog add-on for a quote or booking.
type AddOnRequest struct {
	ID       uint `json:"id" validate:"required"`
	Quantity int  `json:"quantity" validate:"required,min=1"`
}

type AddOnLine struct {
	AddOnID    uint              `json:"id"`
	Name       string            `json:"name"`
	ChargeType models.ChargeType `json:"charge_type"`
	Quantity   int               `json:"quantity"`
	UnitPrice  float64           `json:"unit_price"`
	TotalPrice float64           `json:"total_price"`
}

// Duration converts [start, end) into a billable duration for mode.
func Duration(mode models.PricingMode, start, end time.Time) (int, string, error) {
	if err := ValidateWindow(start, end); err != nil {
		return 0, "", err
	}
	elapsed := end.Sub(start)
	switch mode {
	case models.PricingHourly:
		return int(math.Ceil(elapsed.Seconds() / 3600)), "hour", nil
	case models.PricingDaily:
		return max(1, fullDays(elapsed)), "day", nil
	case models.PricingWeekly:
		return max(1, int(math.Ceil(float64(fullDays(elapsed))/7))), "week", nil
	case models.PricingMonthly:
		return max(1, wholeMonths(start, end)), "month", nil
	}
	return 0, "", Validation("unknown pricing mode %q", mode)
}

func fullDays(d time.Duration) int {
	return int(d / (24 * time.Hour))
}

// wholeMonths counts completed calendar months: Jan 10 -> Mar 10 is 2,
// Jan 10 -> Mar 9 is 1.
func wholeMonths(start, end time.Time) int {
	end = end.In(start.Location())
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() < start.Day() || (end.Day() == start.Day() && clock(end) < clock(start)) {
		months--
	}
	return months
}

func clock(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second + time.Duration(t.Nanosecond())
}

// PriceUnit prices a unit over [start, end) without add-ons.
func PriceUnit(unit models.Unit, start, end time.Time) (Quote, error) {
	value, durUnit, err := Duration(unit.PricingMode, start, end)
	if err != nil {
		return Quote{}, err
	}
	subtotal := utils.Round2(float64(value) * unit.BasePrice)
	return Quote{
		DurationValue: value,
		DurationUnit:  durUnit,
		BasePrice:     unit.BasePrice,
		Subtotal:      subtotal,
		DepositAmount: unit.DepositAmount,
		TotalPrice:    subtotal,
	}, nil
}

// PriceAddOn charges one add-on for a booking of durationValue units.
//
// per_hour multiplies durationValue by 24 whatever the unit's pricing mode,
// so a 2-week booking is charged as 48 hours. Existing invoices depend on
// this, so it is kept as is.
func PriceAddOn(a models.AddOn, quantity, durationValue int) float64 {
	base := a.Price * float64(quantity)
	switch a.ChargeType {
	case models.ChargePerDay:
		return utils.Round2(base * float64(durationValue))
	case models.ChargePerHour:
		return utils.Round2(base * float64(max(1, durationValue*24)))
	default:
		return utils.Round2(base)
	}
}

// ApplyAddOns prices the requested add-ons against catalog and adds them to
// q. Unknown or inactive add-ons are skipped.
func ApplyAddOns(q *Quote, catalog []models.AddOn, requests []AddOnRequest) error {
	byID := make(map[uint]models.AddOn, len(catalog))
	for _, a := range catalog {
		byID[a.ID] = a
	}
	q.AddOns = q.AddOns[:0]
	q.AddOnsTotal = 0
	for _, r := range requests {
		if r.Quantity < 1 {
			return Validation("add-on %d: quantity must be at least 1", r.ID)
		}
		a, ok := byID[r.ID]
		if !ok || !a.IsActive {
			continue
		}
		line := AddOnLine{
			AddOnID:    a.ID,
			Name:       a.Name,
			ChargeType: a.ChargeType,
			Quantity:   r.Quantity,
			UnitPrice:  a.Price,
			TotalPrice: PriceAddOn(a, r.Quantity, q.DurationValue),
		}
		q.AddOns = append(q.AddOns, line)
		q.AddOnsTotal += line.TotalPrice
	}
	q.AddOnsTotal = utils.Round2(q.AddOnsTotal)
	q.TotalPrice = utils.Round2(q.Subtotal + q.AddOnsTotal)
	return nil
}

// RepriceSnapshots recomputes booking add-on snapshots for a new duration,
// keeping the unit price captured at booking time.
func RepriceSnapshots(lines []models.BookingAddOn, durationValue int) ([]models.BookingAddOn, float64) {
	out := make([]models.BookingAddOn, len(lines))
	var total float64
	for i, l := range lines {
		l.TotalPrice = PriceAddOn(models.AddOn{Price: l.UnitPrice, ChargeType: l.ChargeType}, l.Quantity, durationValue)
		total += l.TotalPrice
		out[i] = l
	}
	return out, utils.Round2(total)
}
