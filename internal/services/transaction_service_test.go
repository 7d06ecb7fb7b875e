package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type fakeTransactionStore struct {
	transactions []core.Transaction
	nextID       int
	failCreate   bool
}

func (st *fakeTransactionStore) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if st.failCreate {
		return core.Transaction{}, fmt.Errorf("disk full")
	}
	st.nextID++
	t.ID = fmt.Sprintf("tx-%d", st.nextID)
	t.CreatedAt = time.Now()
	st.transactions = append(st.transactions, t)
	return t, nil
}

func (st *fakeTransactionStore) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	for _, t := range st.transactions {
		if t.ID == id && t.UserID == userID {
			return t, nil
		}
	}
	return core.Transaction{}, storage.ErrNotFound
}

func (st *fakeTransactionStore) ListTransactions(ctx context.Context, userID string, f storage.TransactionFilter) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range st.transactions {
		if t.UserID != userID {
			continue
		}
		if f.Kind != "" && t.Kind != f.Kind {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if !f.From.IsZero() && t.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && t.Date.After(f.To) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (st *fakeTransactionStore) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	for i := range st.transactions {
		if st.transactions[i].ID == t.ID && st.transactions[i].UserID == t.UserID {
			st.transactions[i] = t
			return nil
		}
	}
	return storage.ErrNotFound
}

func (st *fakeTransactionStore) DeleteTransaction(ctx context.Context, userID, id string) error {
	for i := range st.transactions {
		if st.transactions[i].ID == id && st.transactions[i].UserID == userID {
			st.transactions = append(st.transactions[:i], st.transactions[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

type fakePublisher struct {
	events []*amqp.TransactionEvent
	err    error
}

func (p *fakePublisher) PublishTransactionEvent(ctx context.Context, msg *amqp.TransactionEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, msg)
	return nil
}

func expense(userID, category string, cents int64, day time.Time) core.Transaction {
	return core.Transaction{
		UserID:   userID,
		Amount:   core.Money{Cents: cents},
		Kind:     core.Expense,
		Category: category,
		Date:     day,
	}
}

func TestTransactionServiceCreatePublishesEvent(t *testing.T) {
	st := &fakeTransactionStore{}
	pub := &fakePublisher{}
	svc := NewTransactionService(st, pub)

	created, err := svc.Create(context.Background(),
		expense("user-1", "Groceries", 2550, time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected assigned ID")
	}
	if !created.Date.Equal(date(2025, 3, 10)) {
		t.Fatalf("expected date normalized to midnight, got %v", created.Date)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.events))
	}
	evt := pub.events[0]
	if evt.TransactionID != created.ID || evt.AmountCents != 2550 || evt.Category != "Groceries" {
		t.Fatalf("event fields mismatch: %+v", evt)
	}
}

func TestTransactionServiceCreateRejectsInvalid(t *testing.T) {
	st := &fakeTransactionStore{}
	svc := NewTransactionService(st, nil)

	_, err := svc.Create(context.Background(),
		expense("user-1", "", 2550, date(2025, 3, 10)))
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if len(st.transactions) != 0 {
		t.Fatalf("invalid transaction must not be stored")
	}
}

func TestTransactionServiceCreateSurvivesBrokerOutage(t *testing.T) {
	st := &fakeTransactionStore{}
	pub := &fakePublisher{err: fmt.Errorf("broker down")}
	svc := NewTransactionService(st, pub)

	if _, err := svc.Create(context.Background(),
		expense("user-1", "Groceries", 1000, date(2025, 3, 10))); err != nil {
		t.Fatalf("publish failure must not fail the create: %v", err)
	}
	if len(st.transactions) != 1 {
		t.Fatalf("expected transaction stored despite broker outage")
	}
}

func TestTransactionServiceUpdateNormalizesDate(t *testing.T) {
	st := &fakeTransactionStore{}
	svc := NewTransactionService(st, nil)

	created, err := svc.Create(context.Background(),
		expense("user-1", "Groceries", 1000, date(2025, 3, 10)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	created.Date = time.Date(2025, 3, 12, 9, 15, 0, 0, time.UTC)
	updated, err := svc.Update(context.Background(), created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Date.Equal(date(2025, 3, 12)) {
		t.Fatalf("expected midnight date after update, got %v", updated.Date)
	}
}
