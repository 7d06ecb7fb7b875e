package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *SQLiteRepository) core.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), "ada@example.com", "hash", "Ada")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateUser(ctx, "ada@example.com", "h1", "Ada"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := repo.CreateUser(ctx, "ada@example.com", "h2", "Other Ada")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestUpsertGoogleUserLinksExistingAccount(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo)

	linked, err := repo.UpsertGoogleUser(ctx, "google-123", u.Email, "Ada G")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if linked.ID != u.ID {
		t.Fatalf("expected existing account linked, got new id %s", linked.ID)
	}

	// Second sign-in resolves by Google ID.
	again, err := repo.UpsertGoogleUser(ctx, "google-123", "other@example.com", "Ada G")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if again.ID != u.ID {
		t.Fatalf("expected same account, got %s", again.ID)
	}
}

func TestTransactionRoundTripAndFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo)

	mk := func(kind core.TransactionKind, category string, cents int64, d time.Time) core.Transaction {
		tx, err := repo.CreateTransaction(ctx, core.Transaction{
			UserID:   u.ID,
			Amount:   core.Money{Cents: cents},
			Kind:     kind,
			Category: category,
			Date:     d,
		})
		if err != nil {
			t.Fatalf("create transaction: %v", err)
		}
		return tx
	}
	mk(core.Expense, "Groceries", 2500, day(2025, 3, 5))
	mk(core.Expense, "Rent", 120000, day(2025, 3, 1))
	mk(core.Income, "Salary", 300000, day(2025, 3, 1))
	mk(core.Expense, "Groceries", 1500, day(2025, 2, 20))

	all, err := repo.ListTransactions(ctx, u.ID, TransactionFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 transactions, got %d", len(all))
	}

	groceries, err := repo.ListTransactions(ctx, u.ID, TransactionFilter{
		Kind:     core.Expense,
		Category: "Groceries",
		From:     day(2025, 3, 1),
		To:       day(2025, 3, 31),
	})
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if len(groceries) != 1 || groceries[0].Amount.Cents != 2500 {
		t.Fatalf("expected one March grocery expense, got %+v", groceries)
	}

	sum, err := repo.SumExpenses(ctx, u.ID, "Groceries", day(2025, 2, 1), day(2025, 3, 31))
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if sum.Cents != 4000 {
		t.Fatalf("sum = %d, want 4000", sum.Cents)
	}
}

func TestGetTransactionScopedToUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo)

	tx, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID:   u.ID,
		Amount:   core.Money{Cents: 1000},
		Kind:     core.Expense,
		Category: "Misc",
		Date:     day(2025, 3, 1),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	other, err := repo.CreateUser(ctx, "bob@example.com", "h", "Bob")
	if err != nil {
		t.Fatalf("create other: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, other.ID, tx.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other user, got %v", err)
	}
}

func TestBudgetUniquePerCategoryMonth(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo)

	b := core.Budget{UserID: u.ID, Category: "Groceries", Limit: core.Money{Cents: 50000}, Month: "2025-03"}
	if _, err := repo.CreateBudget(ctx, b); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.CreateBudget(ctx, b); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// Same category in another month is fine.
	b.Month = "2025-04"
	if _, err := repo.CreateBudget(ctx, b); err != nil {
		t.Fatalf("next month create: %v", err)
	}
}

func TestGoalRoundTripNullableDeadline(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo)

	created, err := repo.CreateGoal(ctx, core.Goal{
		UserID: u.ID,
		Title:  "Vacation",
		Target: core.Money{Cents: 100000},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetGoal(ctx, u.ID, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Deadline.IsZero() {
		t.Fatalf("expected zero deadline, got %v", got.Deadline)
	}

	got.Current = core.Money{Cents: 25000}
	got.Deadline = day(2025, 12, 31)
	if err := repo.UpdateGoal(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err = repo.GetGoal(ctx, u.ID, created.ID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Current.Cents != 25000 || !got.Deadline.Equal(day(2025, 12, 31)) {
		t.Fatalf("update not persisted: %+v", got)
	}
}

func TestMaterializeSeriesAdvancesMarkerAtomically(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo)

	series, err := repo.CreateSeries(ctx, core.RecurringSeries{
		UserID:    u.ID,
		Amount:    core.Money{Cents: 120000},
		Kind:      core.Expense,
		Category:  "Rent",
		Frequency: core.Monthly,
		StartDate: day(2025, 1, 1),
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("create series: %v", err)
	}

	today := day(2025, 1, 1)
	generated, err := repo.MaterializeSeries(ctx, series, today)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if generated.Description != "[AUTO] Rent" {
		t.Fatalf("expected auto description, got %q", generated.Description)
	}
	if !generated.Date.Equal(today) {
		t.Fatalf("generated date = %v, want %v", generated.Date, today)
	}

	// Stored transaction is readable through the normal path.
	if _, err := repo.GetTransaction(ctx, u.ID, generated.ID); err != nil {
		t.Fatalf("generated transaction not stored: %v", err)
	}

	// Marker advanced.
	after, err := repo.GetSeries(ctx, u.ID, series.ID)
	if err != nil {
		t.Fatalf("get series: %v", err)
	}
	if !after.LastProcessed.Equal(today) {
		t.Fatalf("marker = %v, want %v", after.LastProcessed, today)
	}

	// A second call with the stale pre-run snapshot loses the race.
	if _, err := repo.MaterializeSeries(ctx, series, today); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for stale marker, got %v", err)
	}

	// The fresh snapshot works again on a later day.
	next, err := repo.MaterializeSeries(ctx, after, day(2025, 2, 1))
	if err != nil {
		t.Fatalf("second materialize: %v", err)
	}
	if !next.Date.Equal(day(2025, 2, 1)) {
		t.Fatalf("second date = %v", next.Date)
	}
}

func TestMaterializeSeriesInactiveConflicts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo)

	series, err := repo.CreateSeries(ctx, core.RecurringSeries{
		UserID:    u.ID,
		Amount:    core.Money{Cents: 999},
		Kind:      core.Expense,
		Category:  "Sub",
		Frequency: core.Daily,
		StartDate: day(2025, 1, 1),
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("create series: %v", err)
	}
	if err := repo.DeactivateSeries(ctx, series.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if _, err := repo.MaterializeSeries(ctx, series, day(2025, 1, 2)); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for inactive series, got %v", err)
	}
}

func TestUpdateSeriesKeepsMarkerAndSchedule(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo)

	series, err := repo.CreateSeries(ctx, core.RecurringSeries{
		UserID:    u.ID,
		Amount:    core.Money{Cents: 1000},
		Kind:      core.Expense,
		Category:  "Gym",
		Frequency: core.Monthly,
		StartDate: day(2025, 1, 1),
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.MaterializeSeries(ctx, series, day(2025, 1, 1)); err != nil {
		t.Fatalf("materialize: %v", err)
	}

	series.Amount = core.Money{Cents: 1500}
	series.IsActive = false
	if err := repo.UpdateSeries(ctx, series); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.GetSeries(ctx, u.ID, series.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Amount.Cents != 1500 || got.IsActive {
		t.Fatalf("editable fields not applied: %+v", got)
	}
	if !got.LastProcessed.Equal(day(2025, 1, 1)) {
		t.Fatalf("marker must survive edits, got %v", got.LastProcessed)
	}
	if !got.StartDate.Equal(day(2025, 1, 1)) {
		t.Fatalf("schedule must be immutable, got start %v", got.StartDate)
	}
}

func TestBudgetAlertRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo)

	b, err := repo.CreateBudget(ctx, core.Budget{
		UserID: u.ID, Category: "Groceries", Limit: core.Money{Cents: 50000}, Month: "2025-03",
	})
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}

	_, err = repo.CreateBudgetAlert(ctx, core.BudgetAlert{
		UserID:   u.ID,
		BudgetID: b.ID,
		Category: b.Category,
		Month:    b.Month,
		Spent:    core.Money{Cents: 52000},
		Limit:    b.Limit,
	})
	if err != nil {
		t.Fatalf("create alert: %v", err)
	}

	alerts, err := repo.ListBudgetAlerts(ctx, u.ID)
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Spent.Cents != 52000 {
		t.Fatalf("unexpected alerts: %+v", alerts)
	}
}
