package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// CreateBudget inserts a budget; ErrDuplicate when the user already has
// one for the same category and month.
func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (id, user_id, category, limit_cents, month, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Category, b.Limit.Cents, b.Month, formatTime(b.CreatedAt))
	if isUniqueViolation(err) {
		return core.Budget{}, fmt.Errorf("budget %s/%s: %w", b.Category, b.Month, ErrDuplicate)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	return b, nil
}

// ListBudgets returns the user's budgets newest-first; month narrows to
// one YYYY-MM key when non-empty.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID, month string) ([]core.Budget, error) {
	query := `SELECT id, user_id, category, limit_cents, month, created_at FROM budgets WHERE user_id = ?`
	args := []any{userID}
	if month != "" {
		query += " AND month = ?"
		args = append(args, month)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category, limit_cents, month, created_at FROM budgets WHERE id = ? AND user_id = ?`,
		id, userID)
	b, err := scanBudget(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("budget %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

// FindBudget looks up the budget covering one category+month, if any.
func (r *SQLiteRepository) FindBudget(ctx context.Context, userID, category, month string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category, limit_cents, month, created_at
		 FROM budgets WHERE user_id = ? AND category = ? AND month = ?`,
		userID, category, month)
	b, err := scanBudget(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("budget %s/%s: %w", category, month, ErrNotFound)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("find budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) UpdateBudgetLimit(ctx context.Context, userID, id string, limit core.Money) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET limit_cents = ? WHERE id = ? AND user_id = ?`,
		limit.Cents, id, userID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("budget %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("budget %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) CreateBudgetAlert(ctx context.Context, a core.BudgetAlert) (core.BudgetAlert, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budget_alerts (id, user_id, budget_id, category, month, spent_cents, limit_cents, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.BudgetID, a.Category, a.Month, a.Spent.Cents, a.Limit.Cents, formatTime(a.CreatedAt))
	if err != nil {
		return core.BudgetAlert{}, fmt.Errorf("create budget alert: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) ListBudgetAlerts(ctx context.Context, userID string) ([]core.BudgetAlert, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, budget_id, category, month, spent_cents, limit_cents, created_at
		 FROM budget_alerts WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budget alerts: %w", err)
	}
	defer rows.Close()

	var out []core.BudgetAlert
	for rows.Next() {
		var (
			a         core.BudgetAlert
			createdAt string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.BudgetID, &a.Category, &a.Month,
			&a.Spent.Cents, &a.Limit.Cents, &createdAt); err != nil {
			return nil, fmt.Errorf("scan budget alert: %w", err)
		}
		a.CreatedAt = parseTime(createdAt)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budget alerts: %w", err)
	}
	return out, nil
}

func scanBudget(scan func(...any) error) (core.Budget, error) {
	var (
		b         core.Budget
		createdAt string
	)
	if err := scan(&b.ID, &b.UserID, &b.Category, &b.Limit.Cents, &b.Month, &createdAt); err != nil {
		return core.Budget{}, err
	}
	b.CreatedAt = parseTime(createdAt)
	return b, nil
}
