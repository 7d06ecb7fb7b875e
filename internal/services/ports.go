// Package services holds the business logic between the HTTP layer and
// the store: transaction recording with event publishing, budget math,
// analytics aggregation, the recurring-series materializer and the AI
// advisor.
package services

import (
	"context"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// TransactionStore is the slice of the repository the transaction
// service needs.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID string, f storage.TransactionFilter) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id string) error
}

// SeriesStore is what the materializer needs from the repository.
type SeriesStore interface {
	ListActiveSeries(ctx context.Context) ([]core.RecurringSeries, error)
	DeactivateSeries(ctx context.Context, id string) error
	MaterializeSeries(ctx context.Context, s core.RecurringSeries, today time.Time) (core.Transaction, error)
}

// BudgetStore is what budget annotation and alerting need.
type BudgetStore interface {
	ListBudgets(ctx context.Context, userID, month string) ([]core.Budget, error)
	FindBudget(ctx context.Context, userID, category, month string) (core.Budget, error)
	SumExpenses(ctx context.Context, userID, category string, from, to time.Time) (core.Money, error)
	CreateBudgetAlert(ctx context.Context, a core.BudgetAlert) (core.BudgetAlert, error)
}

// SeriesLister lists one user's recurring series, used to project next
// month's fixed payments.
type SeriesLister interface {
	ListSeries(ctx context.Context, userID string) ([]core.RecurringSeries, error)
}

// Publisher emits transaction events. *amqp.Client satisfies it; a nil
// Publisher disables publishing.
type Publisher interface {
	PublishTransactionEvent(ctx context.Context, msg *amqp.TransactionEvent) error
}
