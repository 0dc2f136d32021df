package jobs

import (
	"context"

	"github.com/hibiken/asynq"
)

// Client enqueues billing tasks for the worker process.
type Client struct {
	client *asynq.Client
}

func NewClient(opt asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(opt)}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) EnqueueMarkOverdue(ctx context.Context, tenantID uint, day string) (string, error) {
	task, opts, err := NewMarkOverdueTask(MarkOverduePayload{TenantID: tenantID, Day: day})
	if err != nil {
		return "", err
	}
	info, err := c.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

func (c *Client) EnqueueRecurringInvoices(ctx context.Context, tenantID, bookingID uint) (string, error) {
	task, opts, err := NewRecurringInvoicesTask(RecurringInvoicesPayload{TenantID: tenantID, BookingID: bookingID})
	if err != nil {
		return "", err
	}
	info, err := c.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}
