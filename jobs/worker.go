package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rentbook-backend/rental"
	"rentbook-backend/services"
	"rentbook-backend/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Handlers runs billing tasks against the services.
type Handlers struct {
	Billing  *services.BillingService
	Location *time.Location
	Log      *zap.Logger
}

func NewHandlers(billing *services.BillingService, loc *time.Location, log *zap.Logger) *Handlers {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{Billing: billing, Location: loc, Log: log}
}

// Mux routes task types to handlers.
func (h *Handlers) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeMarkOverdue, h.HandleMarkOverdue)
	mux.HandleFunc(TypeRecurringInvoices, h.HandleRecurringInvoices)
	return mux
}

func (h *Handlers) HandleMarkOverdue(ctx context.Context, task *asynq.Task) error {
	var p MarkOverduePayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		// Malformed payloads never succeed; skip retries.
		return fmt.Errorf("decode %s: %v: %w", task.Type(), err, asynq.SkipRetry)
	}
	var today time.Time
	if p.Day != "" {
		t, err := utils.ParseTimestamp(p.Day, h.Location)
		if err != nil {
			return fmt.Errorf("bad day %q: %v: %w", p.Day, err, asynq.SkipRetry)
		}
		today = t
	}
	n, err := h.Billing.MarkOverdueInvoices(ctx, jobScope(p.TenantID), today)
	if err != nil {
		h.Log.Error("overdue sweep failed", zap.Uint("tenant_id", p.TenantID), zap.Error(err))
		return err
	}
	h.Log.Info("overdue sweep task done", zap.Uint("tenant_id", p.TenantID), zap.Int64("marked", n))
	return nil
}

func (h *Handlers) HandleRecurringInvoices(ctx context.Context, task *asynq.Task) error {
	var p RecurringInvoicesPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("decode %s: %v: %w", task.Type(), err, asynq.SkipRetry)
	}
	if p.BookingID == 0 {
		return fmt.Errorf("booking_id missing: %w", asynq.SkipRetry)
	}
	created, err := h.Billing.GenerateRecurringInvoices(ctx, jobScope(p.TenantID), p.BookingID)
	if err != nil {
		switch rental.KindOf(err) {
		case rental.KindNotFound, rental.KindInvalidState, rental.KindValidation:
			h.Log.Warn("recurring invoices rejected", zap.Uint("booking_id", p.BookingID), zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	h.Log.Info("recurring invoices task done", zap.Uint("booking_id", p.BookingID), zap.Int("created", len(created)))
	return nil
}

// Run starts the worker and the periodic overdue sweep and blocks until
// the server stops.
func Run(opt asynq.RedisClientOpt, h *Handlers, concurrency int, sweepCron string) error {
	if concurrency <= 0 {
		concurrency = 5
	}
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			"default": 1,
		},
		Logger: h.Log.Sugar(),
	})

	scheduler, err := NewScheduler(opt, h.Location, sweepCron)
	if err != nil {
		return err
	}
	if scheduler != nil {
		if err := scheduler.Start(); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer scheduler.Shutdown()
	}

	h.Log.Info("worker starting", zap.Int("concurrency", concurrency), zap.String("sweep_cron", sweepCron))
	return srv.Run(h.Mux())
}
