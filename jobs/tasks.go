package jobs

import (
	"encoding/json"
	"time"

	"rentbook-backend/models"
	"rentbook-backend/rental"

	"github.com/hibiken/asynq"
)

const (
	TypeMarkOverdue       = "invoices:mark_overdue"
	TypeRecurringInvoices = "invoices:generate_recurring"
)

// MarkOverduePayload sweeps one tenant, or all of them when TenantID is 0.
type MarkOverduePayload struct {
	TenantID uint   `json:"tenant_id"`
	Day      string `json:"day,omitempty"` // YYYY-MM-DD, empty means today
}

type RecurringInvoicesPayload struct {
	TenantID  uint `json:"tenant_id"`
	BookingID uint `json:"booking_id"`
}

func NewMarkOverdueTask(p MarkOverduePayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, nil, err
	}
	opts := []asynq.Option{asynq.MaxRetry(3), asynq.Timeout(5 * time.Minute)}
	return asynq.NewTask(TypeMarkOverdue, b), opts, nil
}

func NewRecurringInvoicesTask(p RecurringInvoicesPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, nil, err
	}
	opts := []asynq.Option{asynq.MaxRetry(3), asynq.Timeout(time.Minute)}
	return asynq.NewTask(TypeRecurringInvoices, b), opts, nil
}

// jobScope is the identity a task runs under.
func jobScope(tenantID uint) rental.Scope {
	if tenantID == 0 {
		return rental.SystemScope()
	}
	return rental.Scope{TenantID: tenantID, UserID: "system", Role: models.RoleStaff}
}
