package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// TransactionService records transactions and publishes an event for
// each one. Publishing is best-effort: the store write is the source of
// truth and a broker outage never fails the request.
type TransactionService struct {
	store     TransactionStore
	publisher Publisher
}

func NewTransactionService(store TransactionStore, publisher Publisher) *TransactionService {
	return &TransactionService{store: store, publisher: publisher}
}

func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.Date = core.Midnight(t.Date)

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publish(ctx, created)
	return created, nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, id)
}

func (s *TransactionService) List(ctx context.Context, userID string, f storage.TransactionFilter) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, userID, f)
}

func (s *TransactionService) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.Date = core.Midnight(t.Date)
	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	return s.store.DeleteTransaction(ctx, userID, id)
}

func (s *TransactionService) publish(ctx context.Context, t core.Transaction) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(t)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"transaction_id", t.ID,
			"user_id", t.UserID,
			"error", err)
	}
}
