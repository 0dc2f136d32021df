package services

import (
	"context"
	"time"

	"rentbook-backend/events"
	"rentbook-backend/repository"

	"go.uber.org/zap"
)

// Env is what every service is built from.
type Env struct {
	Store    repository.Store
	Events   *events.Dispatcher
	Settings *SettingsService
	Log      *zap.Logger
	Now      func() time.Time
	Location *time.Location
}

func (e Env) withDefaults() Env {
	if e.Log == nil {
		e.Log = zap.NewNop()
	}
	if e.Now == nil {
		e.Now = time.Now
	}
	if e.Location == nil {
		e.Location = time.UTC
	}
	if e.Events == nil {
		e.Events = events.NewDispatcher(e.Log)
	}
	if e.Settings == nil {
		e.Settings = NewSettingsService(e.Store, nil, 0, e.Log)
	}
	return e
}

// now is the current instant in the configured timezone.
func (e Env) now() time.Time {
	return e.Now().In(e.Location)
}

// atomic runs fn in one transaction and forwards the events it raised once
// the transaction committed.
func (e Env) atomic(ctx context.Context, fn func(tx repository.Tx, b *events.Batch) error) error {
	var batch events.Batch
	err := e.Store.Atomic(ctx, func(tx repository.Tx) error {
		batch = events.Batch{}
		return fn(tx, &batch)
	})
	if err != nil {
		return err
	}
	e.Events.Flush(ctx, &batch)
	return nil
}

// Services bundles the services that share one dispatcher.
type Services struct {
	Bookings *BookingService
	Billing  *BillingService
	Catalog  *CatalogService
	Auth     *AuthService
	Reviews  *ReviewService
	Settings *SettingsService
}

func New(env Env) *Services {
	env = env.withDefaults()
	return &Services{
		Bookings: NewBookingService(env),
		Billing:  NewBillingService(env),
		Catalog:  NewCatalogService(env),
		Auth:     NewAuthService(env),
		Reviews:  NewReviewService(env),
		Settings: env.Settings,
	}
}
