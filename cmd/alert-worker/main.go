package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"fintrack/internal/cli"
	"fintrack/internal/services"
	"fintrack/internal/worker"
)

func main() {
	cli.SetupLogger()

	cfg, err := cli.LoadConfig()
	if err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		slog.Error("AMQP_URL must be set for the alert worker")
		os.Exit(1)
	}

	repo, err := cli.OpenRepository(cfg)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient := cli.ConnectAMQP(cfg)
	if amqpClient == nil {
		slog.Error("Failed to connect to AMQP broker", "url", cfg.AMQPURL)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	budgets := services.NewBudgetService(repo)
	alertWorker := worker.NewAlertWorker(amqpClient, budgets)

	slog.Info("Starting alert-worker", "queue", cfg.AMQPQueue)

	if err := alertWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Alert worker error", "error", err)
		os.Exit(1)
	}
	slog.Info("Alert-worker stopped gracefully")
}
