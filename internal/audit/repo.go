package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Actions recorded in the trail.
const (
	ActionStatus = "status"
	ActionDelete = "delete"
)

// Entry is one recorded moderation action. The trail is append-only;
// nothing in the panel ever rewrites history.
type Entry struct {
	ID        int64     `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	CommentID string    `json:"comment_id"`
	ParentID  string    `json:"parent_id,omitempty"`
	OldStatus string    `json:"old_status,omitempty"`
	NewStatus string    `json:"new_status,omitempty"`
	At        time.Time `json:"at"`
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Record(ctx context.Context, e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO moderation_audit (actor, action, comment_id, parent_id, old_status, new_status, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.Actor, e.Action, e.CommentID, e.ParentID, e.OldStatus, e.NewStatus, e.At)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *Repo) List(ctx context.Context, limit, offset int) ([]Entry, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM moderation_audit
	`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, actor, action, comment_id, parent_id, old_status, new_status, at
		FROM moderation_audit
		ORDER BY at DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit: %w", err)
	}
	defer rows.Close()

	out := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var parentID, oldStatus, newStatus sql.NullString
		var at time.Time

		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.CommentID, &parentID, &oldStatus, &newStatus, &at); err != nil {
			return nil, 0, fmt.Errorf("scan audit row: %w", err)
		}
		e.ParentID = parentID.String
		e.OldStatus = oldStatus.String
		e.NewStatus = newStatus.String
		e.At = at
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}
	return out, total, nil
}

// ListByComment returns the trail for a single comment, oldest first.
func (r *Repo) ListByComment(ctx context.Context, commentID string) ([]Entry, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, actor, action, comment_id, parent_id, old_status, new_status, at
		FROM moderation_audit
		WHERE comment_id = ?
		ORDER BY at ASC, id ASC
	`, commentID)
	if err != nil {
		return nil, fmt.Errorf("list audit by comment: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var parentID, oldStatus, newStatus sql.NullString
		var at time.Time

		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.CommentID, &parentID, &oldStatus, &newStatus, &at); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		e.ParentID = parentID.String
		e.OldStatus = oldStatus.String
		e.NewStatus = newStatus.String
		e.At = at
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}
