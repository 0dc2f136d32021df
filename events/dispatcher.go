package events

import (
	"context"
	"fmt"
	"sync"

	"rentbook-backend/repository"

	"go.uber.org/zap"
)

// Handler reacts to an event inside the publishing transaction. Returning
// an error rolls the whole transaction back.
type Handler func(ctx context.Context, tx repository.Tx, b *Batch, ev Event) error

// Sink receives events after their transaction committed.
type Sink interface {
	Emit(ctx context.Context, ev Event) error
}

// Batch collects the events raised inside one transaction.
type Batch struct {
	events []Event
}

func (b *Batch) Events() []Event {
	if b == nil {
		return nil
	}
	return b.events
}

// Dispatcher decouples billing from bookings: subscribers run synchronously
// in the caller's transaction, sinks see only committed events.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	sinks    []Sink
	log      *zap.Logger
}

func NewDispatcher(log *zap.Logger, sinks ...Sink) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{handlers: map[string][]Handler{}, sinks: sinks, log: log}
}

func (d *Dispatcher) Subscribe(name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], h)
}

// Publish records ev in b and runs its subscribers.
func (d *Dispatcher) Publish(ctx context.Context, tx repository.Tx, b *Batch, ev Event) error {
	b.events = append(b.events, ev)

	d.mu.RLock()
	hs := append([]Handler(nil), d.handlers[ev.Name()]...)
	d.mu.RUnlock()

	for _, h := range hs {
		if err := h(ctx, tx, b, ev); err != nil {
			return fmt.Errorf("%s handler: %w", ev.Name(), err)
		}
	}
	return nil
}

// Flush forwards committed events to the sinks. Sink failures are logged
// and never surface to the caller: the state change already happened.
func (d *Dispatcher) Flush(ctx context.Context, b *Batch) {
	for _, ev := range b.Events() {
		for _, s := range d.sinks {
			if err := s.Emit(ctx, ev); err != nil {
				d.log.Warn("event sink failed",
					zap.String("event", ev.Name()),
					zap.Uint("tenant_id", ev.Tenant()),
					zap.Error(err))
			}
		}
	}
}
