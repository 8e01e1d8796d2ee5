package auth

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Moderator is a panel account. The moderation API is administrative;
// nothing in this service mutates the repository without one.
type Moderator struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	TokenVersion int
	CreatedAt    time.Time
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Create(ctx context.Context, m Moderator) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO moderators (id, username, email, password_hash)
		VALUES (?, ?, ?, ?)
	`, m.ID, m.Username, m.Email, m.PasswordHash)

	if err != nil {
		return fmt.Errorf("create moderator: %w", err)
	}
	return nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*Moderator, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, token_version, created_at
		FROM moderators
		WHERE LOWER(email) = ?
	`, email)
	return scanModerator(row)
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (*Moderator, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, token_version, created_at
		FROM moderators
		WHERE username = ?
	`, strings.TrimSpace(username))
	return scanModerator(row)
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Moderator, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, token_version, created_at
		FROM moderators
		WHERE id = ?
	`, id)
	return scanModerator(row)
}

func scanModerator(row *sql.Row) (*Moderator, error) {
	var m Moderator
	if err := row.Scan(&m.ID, &m.Username, &m.Email, &m.PasswordHash, &m.TokenVersion, &m.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan moderator: %w", err)
	}
	return &m, nil
}

func (r *Repo) GetTokenVersion(ctx context.Context, id string) (int, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT token_version
		FROM moderators
		WHERE id = ?
	`, id)

	var version int
	if err := row.Scan(&version); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("get token version: %w", err)
	}
	return version, nil
}

func (r *Repo) UpdatePasswordAndBumpTokenVersion(ctx context.Context, id string, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE moderators
		SET password_hash = ?, token_version = token_version + 1
		WHERE id = ?
	`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update password: moderator not found")
	}
	return nil
}

func (r *Repo) BumpTokenVersion(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE moderators
		SET token_version = token_version + 1
		WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("bump token version: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("bump token version rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("bump token version: moderator not found")
	}
	return nil
}
