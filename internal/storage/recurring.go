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

func (r *SQLiteRepository) CreateSeries(ctx context.Context, s core.RecurringSeries) (core.RecurringSeries, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_series
		 (id, user_id, amount_cents, kind, category, description, frequency, start_date, end_date, last_processed, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.Amount.Cents, string(s.Kind), s.Category, nullable(s.Description),
		string(s.Frequency), formatDate(s.StartDate), nullableDate(s.EndDate),
		nullableDate(s.LastProcessed), boolToInt(s.IsActive), formatTime(s.CreatedAt))
	if err != nil {
		return core.RecurringSeries{}, fmt.Errorf("create series: %w", err)
	}
	return s, nil
}

// ListSeries returns one user's series newest-first.
func (r *SQLiteRepository) ListSeries(ctx context.Context, userID string) ([]core.RecurringSeries, error) {
	rows, err := r.db.QueryContext(ctx, selectSeries+` WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	return collectSeries(rows)
}

// ListActiveSeries returns every active series across all users, in
// store order. The materializer iterates this once per run.
func (r *SQLiteRepository) ListActiveSeries(ctx context.Context) ([]core.RecurringSeries, error) {
	rows, err := r.db.QueryContext(ctx, selectSeries+` WHERE is_active = 1`)
	if err != nil {
		return nil, fmt.Errorf("list active series: %w", err)
	}
	return collectSeries(rows)
}

func (r *SQLiteRepository) GetSeries(ctx context.Context, userID, id string) (core.RecurringSeries, error) {
	row := r.db.QueryRowContext(ctx, selectSeries+` WHERE id = ? AND user_id = ?`, id, userID)
	s, err := scanSeries(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringSeries{}, fmt.Errorf("series %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.RecurringSeries{}, fmt.Errorf("get series: %w", err)
	}
	return s, nil
}

// UpdateSeries writes the owner-editable fields: amount, description
// and the active flag. Toggling a series back on does not reset its
// marker or end date.
func (r *SQLiteRepository) UpdateSeries(ctx context.Context, s core.RecurringSeries) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_series SET amount_cents = ?, description = ?, is_active = ?
		 WHERE id = ? AND user_id = ?`,
		s.Amount.Cents, nullable(s.Description), boolToInt(s.IsActive), s.ID, s.UserID)
	if err != nil {
		return fmt.Errorf("update series: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("series %s: %w", s.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteSeries(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM recurring_series WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete series: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("series %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeactivateSeries flips is_active off without touching the marker.
// Used by the materializer when a series passes its end date.
func (r *SQLiteRepository) DeactivateSeries(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE recurring_series SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate series: %w", err)
	}
	return nil
}

// MaterializeSeries creates the generated transaction and advances the
// series marker in one SQL transaction. The marker update is
// conditional on the value the caller read; if a concurrent run or an
// owner edit moved it first, nothing is written and ErrConflict is
// returned.
func (r *SQLiteRepository) MaterializeSeries(ctx context.Context, s core.RecurringSeries, today time.Time) (core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin materialize: %w", err)
	}
	defer tx.Rollback()

	var res sql.Result
	if s.LastProcessed.IsZero() {
		res, err = tx.ExecContext(ctx,
			`UPDATE recurring_series SET last_processed = ?
			 WHERE id = ? AND is_active = 1 AND last_processed IS NULL`,
			formatDate(today), s.ID)
	} else {
		res, err = tx.ExecContext(ctx,
			`UPDATE recurring_series SET last_processed = ?
			 WHERE id = ? AND is_active = 1 AND last_processed = ?`,
			formatDate(today), s.ID, formatDate(s.LastProcessed))
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("advance marker: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Transaction{}, fmt.Errorf("series %s marker moved: %w", s.ID, ErrConflict)
	}

	desc := s.Description
	if desc == "" {
		desc = core.AutoDescription(s.Category)
	}
	generated := core.Transaction{
		ID:          uuid.NewString(),
		UserID:      s.UserID,
		Amount:      s.Amount,
		Kind:        s.Kind,
		Category:    s.Category,
		Description: desc,
		Date:        core.Midnight(today),
		CreatedAt:   time.Now().UTC(),
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, amount_cents, kind, category, description, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		generated.ID, generated.UserID, generated.Amount.Cents, string(generated.Kind),
		generated.Category, nullable(generated.Description), formatDate(generated.Date),
		formatTime(generated.CreatedAt))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert generated transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit materialize: %w", err)
	}
	return generated, nil
}

const selectSeries = `SELECT id, user_id, amount_cents, kind, category, description, frequency,
	start_date, end_date, last_processed, is_active, created_at FROM recurring_series`

func collectSeries(rows *sql.Rows) ([]core.RecurringSeries, error) {
	defer rows.Close()
	var out []core.RecurringSeries
	for rows.Next() {
		s, err := scanSeries(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series: %w", err)
	}
	return out, nil
}

func scanSeries(scan func(...any) error) (core.RecurringSeries, error) {
	var (
		s             core.RecurringSeries
		kind          string
		desc          sql.NullString
		freq          string
		startDate     string
		endDate       sql.NullString
		lastProcessed sql.NullString
		isActive      int
		createdAt     string
	)
	if err := scan(&s.ID, &s.UserID, &s.Amount.Cents, &kind, &s.Category, &desc, &freq,
		&startDate, &endDate, &lastProcessed, &isActive, &createdAt); err != nil {
		return core.RecurringSeries{}, err
	}
	s.Kind = core.TransactionKind(kind)
	s.Description = desc.String
	s.Frequency = core.Frequency(freq)
	s.StartDate = parseDate(startDate)
	if endDate.Valid {
		s.EndDate = parseDate(endDate.String)
	}
	if lastProcessed.Valid {
		s.LastProcessed = parseDate(lastProcessed.String)
	}
	s.IsActive = isActive != 0
	s.CreatedAt = parseTime(createdAt)
	return s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
