// The sweeper runs the recycling monitor and the asynq worker outside the
// API process, for deployments that separate background work from serving.
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medleads_backend/internal/events"
	"medleads_backend/internal/leads"
	ruralrepo "medleads_backend/internal/rural/repository"
	ruralservice "medleads_backend/internal/rural/service"
	"medleads_backend/internal/scheduler"
	"medleads_backend/platform/config"
	"medleads_backend/platform/db"
	"medleads_backend/platform/logger"
	"medleads_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting sweeper", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		if opt, err := redis.ParseURL(cfg.RedisURL); err == nil {
			if cfg.RedisTLSInsecure {
				if opt.TLSConfig == nil {
					opt.TLSConfig = &tls.Config{}
				}
				opt.TLSConfig.InsecureSkipVerify = true
			}
			redisClient = redis.NewClient(opt)
			defer func() { _ = redisClient.Close() }()
		} else {
			log.Error("invalid REDIS_URL; rural classification cache disabled", "error", err)
		}
	}

	ruralSvc := ruralservice.New(ruralrepo.New(pool), redisClient, cfg.GetRuralCacheTTL(), log)
	leadsModule := leads.NewModule(pool, ruralSvc, eventBus, val, cfg, log)

	// Without redis there is no task queue; fall back to the in-process
	// interval loop.
	if cfg.RedisURL == "" {
		log.Warn("REDIS_URL not configured; queued tasks disabled, running interval sweeps only")
		leadsModule.Monitor().Run(ctx)
		return
	}

	// Queue-driven sweeps: a periodic registration plus an immediate
	// catch-up enqueue so downtime never stretches the sweep gap.
	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	if err := client.ScheduleSweep(ctx, time.Now()); err != nil {
		log.Error("failed to enqueue catch-up sweep", "error", err)
	}

	periodic, err := scheduler.NewPeriodic(cfg, log)
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}
	if err := periodic.RegisterSweep(cfg.SweepInterval); err != nil {
		log.Error("failed to register periodic sweep", "error", err)
		panic("failed to register periodic sweep: " + err.Error())
	}

	go func() {
		<-ctx.Done()
		periodic.Shutdown()
	}()
	go func() {
		if err := periodic.Run(); err != nil {
			log.Error("periodic scheduler stopped", "error", err)
		}
	}()

	worker, err := scheduler.NewWorker(cfg, leadsModule.Monitor(), leadsModule.DistributionService(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("%s: %w", name, lastErr)
}
