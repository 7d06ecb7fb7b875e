// Package cli holds the bootstrap shared by the binaries: logging,
// .env loading, configuration, storage and the optional AMQP client.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/storage"
)

// SetupLogger installs the default text logger. LOG_LEVEL=debug turns
// on debug output.
func SetupLogger() {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

// LoadConfig reads .env when present, then loads and validates the
// configuration.
func LoadConfig() (*config.Config, error) {
	// Missing .env is fine in production and containers.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenRepository opens the repository; pending migrations are applied
// on open.
func OpenRepository(cfg *config.Config) (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return repo, nil
}

// ConnectAMQP returns a broker client, or nil when AMQP is not
// configured or unreachable. Event publishing is best-effort, so a
// broker outage must not keep a binary from starting.
func ConnectAMQP(cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		slog.Info("AMQP disabled, transaction events will not be published")
		return nil
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		slog.Warn("Failed to connect to AMQP, continuing without events", "error", err)
		return nil
	}
	slog.Info("AMQP client connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}
