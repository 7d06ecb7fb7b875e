package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/auth"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
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

	// A nil *amqp.Client must stay a nil Publisher interface.
	var publisher services.Publisher
	if amqpClient != nil {
		publisher = amqpClient
	}

	transactions := services.NewTransactionService(repo, publisher)
	budgets := services.NewBudgetService(repo)
	analytics := services.NewAnalyticsService(repo, repo)

	var advisor apphttp.AdviceProvider
	if cfg.GeminiAPIKey != "" {
		generator, err := services.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			slog.Warn("Failed to initialize Gemini client, advice disabled", "error", err)
		} else {
			advisor = services.NewAdvisor(analytics, generator, cfg.AdviceCacheTTL)
			slog.Info("AI advisor enabled", "model", cfg.GeminiModel)
		}
	}

	var google *auth.GoogleVerifier
	if cfg.OAuthEnabled() {
		google = auth.NewGoogleVerifier(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		slog.Info("Google login enabled")
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Users:             repo,
		Budgets:           repo,
		Goals:             repo,
		Series:            repo,
		Transactions:      transactions,
		BudgetViews:       budgets,
		Analytics:         analytics,
		Advisor:           advisor,
		Tokens:            auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL),
		Google:            google,
		FrontendURL:       cfg.FrontendURL,
		RequestsPerMinute: cfg.RequestsPerMinute,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Starting API server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped gracefully")
}
