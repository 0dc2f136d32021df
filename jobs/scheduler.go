package jobs

import (
	"time"

	"github.com/hibiken/asynq"
)

// NewScheduler registers the all-tenant overdue sweep on spec (cron or
// "@every 1h" form). An empty spec disables it and returns nil.
func NewScheduler(opt asynq.RedisClientOpt, loc *time.Location, spec string) (*asynq.Scheduler, error) {
	if spec == "" {
		return nil, nil
	}
	s := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: loc})
	task, opts, err := NewMarkOverdueTask(MarkOverduePayload{})
	if err != nil {
		return nil, err
	}
	if _, err := s.Register(spec, task, opts...); err != nil {
		return nil, err
	}
	return s, nil
}
