package scheduler

import (
	"fmt"
	"time"

	"medleads_backend/platform/config"
	"medleads_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Periodic registers the recurring recycling sweep on the asynq scheduler.
// Queue-driven sweeps dedupe naturally across sweeper instances, unlike a
// per-process ticker.
type Periodic struct {
	scheduler *asynq.Scheduler
	queue     string
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, log *logger.Logger) (*Periodic, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	return &Periodic{
		scheduler: asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: time.UTC}),
		queue:     queue,
		log:       log,
	}, nil
}

// RegisterSweep schedules a recycling sweep on every interval tick.
func (p *Periodic) RegisterSweep(interval time.Duration) error {
	task, err := NewRecyclingSweepTask(RecyclingSweepPayload{RequestedAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	spec := fmt.Sprintf("@every %s", interval)
	if _, err := p.scheduler.Register(spec, task, asynq.Queue(p.queue)); err != nil {
		return err
	}

	p.log.Info("recycling sweep registered", "interval", interval.String())
	return nil
}

// Run blocks until the scheduler stops.
func (p *Periodic) Run() error {
	return p.scheduler.Run()
}

// Shutdown stops the scheduler.
func (p *Periodic) Shutdown() {
	p.scheduler.Shutdown()
}
