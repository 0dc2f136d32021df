package controllers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"rentbook-backend/services"
	"rentbook-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// JobQueue hands long-running work to the background worker.
type JobQueue interface {
	EnqueueMarkOverdue(ctx context.Context, tenantID uint, day string) (string, error)
	EnqueueRecurringInvoices(ctx context.Context, tenantID, bookingID uint) (string, error)
}

// API holds the dependencies of the HTTP handlers.
type API struct {
	Services *services.Services
	Location *time.Location
	// Jobs is nil when no Redis queue is configured; async requests then run inline.
	Jobs JobQueue
}

func NewAPI(svc *services.Services, loc *time.Location, jobs JobQueue) *API {
	if loc == nil {
		loc = time.UTC
	}
	return &API{Services: svc, Location: loc, Jobs: jobs}
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}

func queryID(c *fiber.Ctx, name string) (uint, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}

// timestamp parses an RFC3339 or local "YYYY-MM-DD HH:MM:SS" value.
func (a *API) timestamp(field, v string) (time.Time, error) {
	t, err := utils.ParseTimestamp(v, a.Location)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "invalid "+field)
	}
	return t, nil
}

func (a *API) optionalTimestamp(field string, v *string) (*time.Time, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	t, err := a.timestamp(field, *v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (a *API) now() time.Time {
	return time.Now().In(a.Location)
}
