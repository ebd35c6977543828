package scheduler

import (
	"context"
	"fmt"
	"time"

	"medleads_backend/internal/leads/distribution"
	"medleads_backend/internal/leads/recycling"
	"medleads_backend/platform/config"
	"medleads_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server      *asynq.Server
	mux         *asynq.ServeMux
	monitor     *recycling.Monitor
	distributor *distribution.Service
	log         *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, monitor *recycling.Monitor, distributor *distribution.Service, log *logger.Logger) (*Worker, error) {
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

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:      server,
		mux:         mux,
		monitor:     monitor,
		distributor: distributor,
		log:         log,
	}

	mux.HandleFunc(TaskRecyclingSweep, w.handleRecyclingSweep)
	mux.HandleFunc(TaskRedistribute, w.handleRedistribute)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleRecyclingSweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseRecyclingSweepPayload(task)
	if err != nil {
		return err
	}

	result, err := w.monitor.SweepOnce(ctx)
	if err != nil {
		return err
	}

	w.log.Info("queued recycling sweep complete",
		"requestedAt", payload.RequestedAt.Format(time.RFC3339),
		"examined", result.Examined,
		"recycled", result.Recycled,
		"retired", result.Retired,
		"failed", result.Failed,
	)
	return nil
}

func (w *Worker) handleRedistribute(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseRedistributePayload(task)
	if err != nil {
		return err
	}

	reports, err := w.distributor.RedistributeAll(ctx)
	if err != nil {
		return err
	}

	assigned := 0
	for _, report := range reports {
		assigned += report.Assigned
	}

	w.log.Info("queued redistribution complete",
		"reason", payload.Reason,
		"agents", len(reports),
		"assigned", assigned,
	)
	return nil
}
