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

// CreateUser inserts a password-based account. Returns ErrDuplicate
// when the email is taken.
func (r *SQLiteRepository) CreateUser(ctx context.Context, email, passwordHash, name string) (core.User, error) {
	u := core.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, name, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, nullable(passwordHash), nullable(u.Name), formatTime(u.CreatedAt))
	if isUniqueViolation(err) {
		return core.User{}, fmt.Errorf("create user %s: %w", email, ErrDuplicate)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// UpsertGoogleUser finds or creates the account linked to a Google
// identity. An existing email+password account gets the Google ID
// attached instead of a second row.
func (r *SQLiteRepository) UpsertGoogleUser(ctx context.Context, googleID, email, name string) (core.User, error) {
	u, err := r.getUserWhere(ctx, "google_id = ?", googleID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return core.User{}, err
	}

	u, err = r.getUserWhere(ctx, "email = ?", email)
	if err == nil {
		if _, uerr := r.db.ExecContext(ctx,
			`UPDATE users SET google_id = ? WHERE id = ?`, googleID, u.ID); uerr != nil {
			return core.User{}, fmt.Errorf("link google id: %w", uerr)
		}
		u.GoogleID = googleID
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return core.User{}, err
	}

	u = core.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		GoogleID:  googleID,
		CreatedAt: time.Now().UTC(),
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, google_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, nullable(u.Name), u.GoogleID, formatTime(u.CreatedAt))
	if err != nil {
		return core.User{}, fmt.Errorf("create google user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (core.User, error) {
	return r.getUserWhere(ctx, "id = ?", id)
}

// GetUserByEmail returns the user and their bcrypt hash (empty for
// OAuth-only accounts).
func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, string, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, name, google_id, created_at FROM users WHERE email = ?`, email)
	u, hash, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, "", fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return core.User{}, "", fmt.Errorf("get user by email: %w", err)
	}
	return u, hash, nil
}

func (r *SQLiteRepository) getUserWhere(ctx context.Context, where string, arg any) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, name, google_id, created_at FROM users WHERE `+where, arg)
	u, _, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func scanUser(row *sql.Row) (core.User, string, error) {
	var (
		u         core.User
		hash      sql.NullString
		name      sql.NullString
		googleID  sql.NullString
		createdAt string
	)
	if err := row.Scan(&u.ID, &u.Email, &hash, &name, &googleID, &createdAt); err != nil {
		return core.User{}, "", err
	}
	u.Name = name.String
	u.GoogleID = googleID.String
	u.CreatedAt = parseTime(createdAt)
	return u, hash.String, nil
}
