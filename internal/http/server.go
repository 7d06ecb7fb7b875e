// Package http exposes the JSON API: auth, transactions, budgets,
// goals, recurring series, analytics and AI advice.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// UserStore is the slice of the repository the auth handlers need.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash, name string) (core.User, error)
	UpsertGoogleUser(ctx context.Context, googleID, email, name string) (core.User, error)
	GetUserByID(ctx context.Context, id string) (core.User, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, string, error)
}

// BudgetStore covers budget CRUD and the alert listing.
type BudgetStore interface {
	CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	GetBudget(ctx context.Context, userID, id string) (core.Budget, error)
	UpdateBudgetLimit(ctx context.Context, userID, id string, limit core.Money) error
	DeleteBudget(ctx context.Context, userID, id string) error
	ListBudgetAlerts(ctx context.Context, userID string) ([]core.BudgetAlert, error)
}

type GoalStore interface {
	CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
	ListGoals(ctx context.Context, userID string) ([]core.Goal, error)
	GetGoal(ctx context.Context, userID, id string) (core.Goal, error)
	UpdateGoal(ctx context.Context, g core.Goal) error
	DeleteGoal(ctx context.Context, userID, id string) error
}

type SeriesStore interface {
	CreateSeries(ctx context.Context, s core.RecurringSeries) (core.RecurringSeries, error)
	ListSeries(ctx context.Context, userID string) ([]core.RecurringSeries, error)
	GetSeries(ctx context.Context, userID, id string) (core.RecurringSeries, error)
	UpdateSeries(ctx context.Context, s core.RecurringSeries) error
	DeleteSeries(ctx context.Context, userID, id string) error
}

type TransactionService interface {
	Create(ctx context.Context, t core.Transaction) (core.Transaction, error)
	Get(ctx context.Context, userID, id string) (core.Transaction, error)
	List(ctx context.Context, userID string, f storage.TransactionFilter) ([]core.Transaction, error)
	Update(ctx context.Context, t core.Transaction) (core.Transaction, error)
	Delete(ctx context.Context, userID, id string) error
}

type BudgetViewer interface {
	Annotated(ctx context.Context, userID, month string) ([]services.BudgetView, error)
}

type AnalyticsProvider interface {
	Report(ctx context.Context, userID string, now time.Time) (core.AnalyticsReport, error)
}

type AdviceProvider interface {
	Advise(ctx context.Context, userID string, now time.Time) (string, error)
	Predict(ctx context.Context, userID string, now time.Time) (services.Prediction, error)
	Invalidate(userID string)
}

// Deps bundles everything the server needs. Advisor and Google are
// optional; the matching endpoints answer 503 / 404 when unset.
type Deps struct {
	Users        UserStore
	Budgets      BudgetStore
	Goals        GoalStore
	Series       SeriesStore
	Transactions TransactionService
	BudgetViews  BudgetViewer
	Analytics    AnalyticsProvider
	Advisor      AdviceProvider
	Tokens       *auth.TokenManager
	Google       *auth.GoogleVerifier

	FrontendURL       string
	RequestsPerMinute int
}

type Server struct {
	http.Server
	deps         Deps
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a
// ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		deps:        deps,
		rateLimiter: newRateLimiter(deps.RequestsPerMinute),
	}

	mux.HandleFunc("GET /{$}", handleHealth)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/auth/register", s.public(s.handleRegister))
	mux.HandleFunc("POST /api/auth/login", s.public(s.handleLogin))
	mux.HandleFunc("GET /api/auth/google", s.public(s.handleGoogleLogin))
	mux.HandleFunc("GET /api/auth/google/callback", s.public(s.handleGoogleCallback))

	mux.Handle("GET /api/auth/me", s.protected(s.handleMe))

	mux.Handle("GET /api/transactions", s.protected(s.handleListTransactions))
	mux.Handle("POST /api/transactions", s.protected(s.handleCreateTransaction))
	mux.Handle("GET /api/transactions/{id}", s.protected(s.handleGetTransaction))
	mux.Handle("PUT /api/transactions/{id}", s.protected(s.handleUpdateTransaction))
	mux.Handle("DELETE /api/transactions/{id}", s.protected(s.handleDeleteTransaction))

	mux.Handle("GET /api/budgets", s.protected(s.handleListBudgets))
	mux.Handle("POST /api/budgets", s.protected(s.handleCreateBudget))
	mux.Handle("GET /api/budgets/alerts", s.protected(s.handleListBudgetAlerts))
	mux.Handle("GET /api/budgets/{id}", s.protected(s.handleGetBudget))
	mux.Handle("PUT /api/budgets/{id}", s.protected(s.handleUpdateBudget))
	mux.Handle("DELETE /api/budgets/{id}", s.protected(s.handleDeleteBudget))

	mux.Handle("GET /api/goals", s.protected(s.handleListGoals))
	mux.Handle("POST /api/goals", s.protected(s.handleCreateGoal))
	mux.Handle("GET /api/goals/{id}", s.protected(s.handleGetGoal))
	mux.Handle("PUT /api/goals/{id}", s.protected(s.handleUpdateGoal))
	mux.Handle("DELETE /api/goals/{id}", s.protected(s.handleDeleteGoal))
	mux.Handle("PATCH /api/goals/{id}/progress", s.protected(s.handleGoalProgress))

	mux.Handle("GET /api/recurring", s.protected(s.handleListSeries))
	mux.Handle("POST /api/recurring", s.protected(s.handleCreateSeries))
	mux.Handle("GET /api/recurring/{id}", s.protected(s.handleGetSeries))
	mux.Handle("PUT /api/recurring/{id}", s.protected(s.handleUpdateSeries))
	mux.Handle("DELETE /api/recurring/{id}", s.protected(s.handleDeleteSeries))
	mux.Handle("POST /api/recurring/{id}/toggle", s.protected(s.handleToggleSeries))

	mux.Handle("GET /api/analytics", s.protected(s.handleAnalytics))
	mux.Handle("POST /api/ai/advice", s.protected(s.handleAdvice))
	mux.Handle("POST /api/ai/predict", s.protected(s.handlePredict))

	// CORS preflight for the SPA.
	mux.HandleFunc("OPTIONS /api/", s.public(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	return s
}

// public wraps a handler with logging, rate limiting, CORS and
// security headers.
func (s *Server) public(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP,
				"method", r.Method,
				"url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		s.setCORSHeaders(w, r)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

// protected is public plus bearer-token authentication.
func (s *Server) protected(next http.HandlerFunc) http.Handler {
	authed := auth.Middleware(s.deps.Tokens)(next)
	return s.public(authed.ServeHTTP)
}

func (s *Server) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	if s.deps.FrontendURL == "" {
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", s.deps.FrontendURL)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
	w.Header().Set("Vary", "Origin")
}

// Shutdown stops the rate limiter sweep and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

type contextKey string

const requestIDKey contextKey = "request_id"

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
