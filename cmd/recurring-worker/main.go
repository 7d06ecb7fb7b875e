package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"fintrack/internal/cli"
	"fintrack/internal/scheduler"
	"fintrack/internal/services"
)

func main() {
	cli.SetupLogger()

	cfg, err := cli.LoadConfig()
	if err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := cli.OpenRepository(cfg)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient := cli.ConnectAMQP(cfg)
	if amqpClient != nil {
		defer amqpClient.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var publisher services.Publisher
	if amqpClient != nil {
		publisher = amqpClient
	}

	processor := services.NewRecurringProcessor(repo, publisher)
	sched := scheduler.New(processor, cfg.RecurringCronSpec)

	slog.Info("Starting recurring-worker",
		"cron_spec", cfg.RecurringCronSpec,
		"sqlite_db", cfg.SQLiteDBPath)

	if err := sched.Start(ctx); err != nil {
		slog.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	slog.Info("Shutdown signal received")
	sched.Stop()
	slog.Info("Recurring-worker stopped gracefully")
}
