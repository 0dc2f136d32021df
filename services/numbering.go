package services

import (
	"context"
	"fmt"
	"time"

	"rentbook-backend/models"
	"rentbook-backend/repository"
)

type numberKind struct {
	scope     string
	prefixKey string
	prefix    string
	// period layout; one sequence per tenant per period.
	layout string
}

var (
	bookingNumbers = numberKind{scope: "booking", prefixKey: models.SettingBookingPrefix, prefix: "BK", layout: "20060102"}
	invoiceNumbers = numberKind{scope: "invoice", prefixKey: models.SettingInvoicePrefix, prefix: "INV", layout: "200601"}
	paymentNumbers = numberKind{scope: "payment", prefixKey: models.SettingPaymentPrefix, prefix: "PAY", layout: "20060102"}
)

// nextNumber allocates {PREFIX}-{PERIOD}-{NNNN}. The counter lives in the
// sequences table so two concurrent transactions never get the same value.
func (e Env) nextNumber(ctx context.Context, tx repository.Tx, tenantID uint, kind numberKind, at time.Time) (string, error) {
	prefix, err := e.Settings.Get(ctx, tx, tenantID, kind.prefixKey, kind.prefix)
	if err != nil {
		return "", err
	}
	period := at.In(e.Location).Format(kind.layout)
	n, err := tx.NextSequence(ctx, tenantID, kind.scope, period)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, period, n), nil
}
