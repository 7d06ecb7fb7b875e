package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// BudgetView is a budget annotated with the month's actual spending.
type BudgetView struct {
	Budget    core.Budget
	Spent     core.Money
	Remaining core.Money // never negative
	Percent   int        // spent/limit, whole percent, uncapped
}

// BudgetService annotates budgets with spending and raises alerts when
// a transaction pushes a category over its monthly limit.
type BudgetService struct {
	store BudgetStore
}

func NewBudgetService(store BudgetStore) *BudgetService {
	return &BudgetService{store: store}
}

// Annotated lists a user's budgets with the month's spending attached.
// An empty month lists every budget, each measured against its own
// month.
func (s *BudgetService) Annotated(ctx context.Context, userID, month string) ([]BudgetView, error) {
	budgets, err := s.store.ListBudgets(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	views := make([]BudgetView, 0, len(budgets))
	for _, b := range budgets {
		view, err := s.annotate(ctx, b)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *BudgetService) annotate(ctx context.Context, b core.Budget) (BudgetView, error) {
	from, to, err := MonthRange(b.Month)
	if err != nil {
		return BudgetView{}, fmt.Errorf("budget %s: %w", b.ID, err)
	}

	spent, err := s.store.SumExpenses(ctx, b.UserID, b.Category, from, to)
	if err != nil {
		return BudgetView{}, fmt.Errorf("sum expenses for budget %s: %w", b.ID, err)
	}

	view := BudgetView{Budget: b, Spent: spent}
	if remaining := b.Limit.Cents - spent.Cents; remaining > 0 {
		view.Remaining.Cents = remaining
	}
	if b.Limit.Cents > 0 {
		view.Percent = int(spent.Cents * 100 / b.Limit.Cents)
	}
	return view, nil
}

// CheckTransaction reacts to one transaction event: when an expense
// lands in a budgeted category and the month's total now exceeds the
// limit, an alert row is written. Income and unbudgeted categories are
// ignored.
func (s *BudgetService) CheckTransaction(ctx context.Context, evt *amqp.TransactionEvent) error {
	if evt.Kind != string(core.Expense) {
		return nil
	}

	day, err := time.Parse("2006-01-02", evt.Date)
	if err != nil {
		return fmt.Errorf("parse event date %q: %w", evt.Date, err)
	}

	month := day.Format("2006-01")
	budget, err := s.store.FindBudget(ctx, evt.UserID, evt.Category, month)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find budget: %w", err)
	}

	from, to, err := MonthRange(month)
	if err != nil {
		return err
	}
	spent, err := s.store.SumExpenses(ctx, evt.UserID, evt.Category, from, to)
	if err != nil {
		return fmt.Errorf("sum expenses: %w", err)
	}

	if spent.Cents <= budget.Limit.Cents {
		return nil
	}

	alert := core.BudgetAlert{
		UserID:   evt.UserID,
		BudgetID: budget.ID,
		Category: budget.Category,
		Month:    month,
		Spent:    spent,
		Limit:    budget.Limit,
	}
	created, err := s.store.CreateBudgetAlert(ctx, alert)
	if err != nil {
		return fmt.Errorf("create budget alert: %w", err)
	}

	slog.InfoContext(ctx, "Budget limit exceeded",
		"alert_id", created.ID,
		"user_id", evt.UserID,
		"category", budget.Category,
		"month", month,
		"spent_cents", spent.Cents,
		"limit_cents", budget.Limit.Cents)
	return nil
}

// MonthRange returns the first and last day of a YYYY-MM month.
func MonthRange(month string) (time.Time, time.Time, error) {
	first, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, core.ErrInvalidMonth
	}
	last := first.AddDate(0, 1, -1)
	return first, last, nil
}
