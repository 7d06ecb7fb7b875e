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

// TransactionFilter narrows ListTransactions. Zero values mean "no
// filter" for each field.
type TransactionFilter struct {
	Kind     core.TransactionKind
	Category string
	From     time.Time
	To       time.Time
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, amount_cents, kind, category, description, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Amount.Cents, string(t.Kind), t.Category,
		nullable(t.Description), formatDate(t.Date), formatTime(t.CreatedAt))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, amount_cents, kind, category, description, date, created_at
		 FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTransaction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// ListTransactions returns the user's transactions newest-first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]core.Transaction, error) {
	query := `SELECT id, user_id, amount_cents, kind, category, description, date, created_at
	          FROM transactions WHERE user_id = ?`
	args := []any{userID}

	if f.Kind != "" {
		query += " AND kind = ?"
		args = append(args, string(f.Kind))
	}
	if f.Category != "" {
		query += " AND category = ?"
		args = append(args, f.Category)
	}
	if !f.From.IsZero() {
		query += " AND date >= ?"
		args = append(args, formatDate(f.From))
	}
	if !f.To.IsZero() {
		query += " AND date <= ?"
		args = append(args, formatDate(f.To))
	}
	query += " ORDER BY date DESC, created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET amount_cents = ?, kind = ?, category = ?, description = ?, date = ?
		 WHERE id = ? AND user_id = ?`,
		t.Amount.Cents, string(t.Kind), t.Category, nullable(t.Description), formatDate(t.Date),
		t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %s: %w", t.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return nil
}

// SumExpenses totals a user's expense transactions for one category
// within [from, to].
func (r *SQLiteRepository) SumExpenses(ctx context.Context, userID, category string, from, to time.Time) (core.Money, error) {
	var cents sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT SUM(amount_cents) FROM transactions
		 WHERE user_id = ? AND kind = 'expense' AND category = ? AND date >= ? AND date <= ?`,
		userID, category, formatDate(from), formatDate(to)).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.Money{Cents: cents.Int64}, nil
}

func scanTransaction(scan func(...any) error) (core.Transaction, error) {
	var (
		t         core.Transaction
		kind      string
		desc      sql.NullString
		date      string
		createdAt string
	)
	if err := scan(&t.ID, &t.UserID, &t.Amount.Cents, &kind, &t.Category, &desc, &date, &createdAt); err != nil {
		return core.Transaction{}, err
	}
	t.Kind = core.TransactionKind(kind)
	t.Description = desc.String
	t.Date = parseDate(date)
	t.CreatedAt = parseTime(createdAt)
	return t, nil
}
