// Command worker runs the asynq background worker that executes
// solve, multi-solve, validate, and apply-preset jobs enqueued by
// cmd/scheduler.
package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/hibiken/asynq"

	"github.com/clinicroster/scheduler/internal/config"
	"github.com/clinicroster/scheduler/internal/job"
	"github.com/clinicroster/scheduler/internal/logging"
	"github.com/clinicroster/scheduler/internal/metrics"
	"github.com/clinicroster/scheduler/internal/repository/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	db, err := postgres.New(cfg.Database.URL)
	if err != nil {
		logger.Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	reg := metrics.NewRegistry()
	if cfg.MetricsOn {
		go func() {
			logger.Infow("serving metrics", "port", cfg.Port)
			if err := http.ListenAndServe(fmtAddr(cfg.Port), reg.Handler()); err != nil {
				logger.Errorw("metrics server exited", "error", err)
			}
		}()
	}

	handlers := job.NewHandlers(db, logger, reg)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB},
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues:      cfg.Worker.Queues,
		},
	)

	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	logger.Infow("starting worker", "concurrency", cfg.Worker.Concurrency, "queues", cfg.Worker.Queues)
	if err := srv.Run(mux); err != nil {
		logger.Fatalw("worker exited", "error", err)
	}
}

func fmtAddr(port int) string {
	if port == 0 {
		return ":9090"
	}
	return fmt.Sprintf(":%d", port)
}
