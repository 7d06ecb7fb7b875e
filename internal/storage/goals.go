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

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (id, user_id, title, target_cents, current_cents, deadline, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Title, g.Target.Cents, g.Current.Cents,
		nullableDate(g.Deadline), formatTime(g.CreatedAt))
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, target_cents, current_cents, deadline, created_at
		 FROM goals WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, userID, id string) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, target_cents, current_cents, deadline, created_at
		 FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	g, err := scanGoal(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.Goal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET title = ?, target_cents = ?, current_cents = ?, deadline = ?
		 WHERE id = ? AND user_id = ?`,
		g.Title, g.Target.Cents, g.Current.Cents, nullableDate(g.Deadline), g.ID, g.UserID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("goal %s: %w", g.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanGoal(scan func(...any) error) (core.Goal, error) {
	var (
		g         core.Goal
		deadline  sql.NullString
		createdAt string
	)
	if err := scan(&g.ID, &g.UserID, &g.Title, &g.Target.Cents, &g.Current.Cents, &deadline, &createdAt); err != nil {
		return core.Goal{}, err
	}
	if deadline.Valid {
		g.Deadline = parseDate(deadline.String)
	}
	g.CreatedAt = parseTime(createdAt)
	return g, nil
}
