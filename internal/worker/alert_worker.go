// Package worker runs the background consumers: the budget alert
// worker listens for transaction events and records an alert whenever a
// category blows through its monthly budget.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
)

// Consumer delivers transaction events. *amqp.Client satisfies it.
type Consumer interface {
	ConsumeTransactionEvents(ctx context.Context, handler func(*amqp.TransactionEvent) error) error
}

// Checker evaluates one event against the user's budgets.
// *services.BudgetService satisfies it.
type Checker interface {
	CheckTransaction(ctx context.Context, evt *amqp.TransactionEvent) error
}

type AlertWorker struct {
	consumer Consumer
	checker  Checker
}

func NewAlertWorker(consumer Consumer, checker Checker) *AlertWorker {
	return &AlertWorker{consumer: consumer, checker: checker}
}

// Run consumes events until ctx is canceled. Handler errors are passed
// back to the consumer so the delivery is requeued.
func (w *AlertWorker) Run(ctx context.Context) error {
	if w.consumer == nil || w.checker == nil {
		return fmt.Errorf("alert worker not properly initialized")
	}

	slog.InfoContext(ctx, "Budget alert worker started")

	return w.consumer.ConsumeTransactionEvents(ctx, func(evt *amqp.TransactionEvent) error {
		slog.DebugContext(ctx, "Evaluating transaction event",
			"transaction_id", evt.TransactionID,
			"user_id", evt.UserID,
			"category", evt.Category)
		return w.checker.CheckTransaction(ctx, evt)
	})
}
