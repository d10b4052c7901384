package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"finshare/internal/amqp"
	"finshare/internal/config"
	"finshare/internal/log"
	"finshare/internal/storage"
	"finshare/internal/worker"
)

func main() {
	// Load .env for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker)
	log.SetDefault(logger)

	logger.Info("Starting finshare-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifier := worker.NewNotifyWorker(repo)
	sweeper := worker.NewSweeper(repo, amqpClient)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Consuming activity events", "queue", cfg.AMQPQueue, "qos", cfg.EventBatchQoS)
		return amqpClient.ConsumeActivity(ctx, cfg.EventBatchQoS, func(ev *amqp.ActivityEvent) error {
			return notifier.HandleActivityEvent(ctx, ev)
		})
	})
	g.Go(func() error {
		logger.Info("Starting settlement sweep", "schedule", cfg.SweepSchedule)
		return sweeper.Start(ctx, cfg.SweepSchedule)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
