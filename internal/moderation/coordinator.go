package moderation

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"modpanel/internal/audit"
	"modpanel/internal/live"
	"modpanel/pkg/models"
)

// Mutator applies moderation decisions to the content repository.
type Mutator interface {
	UpdateStatus(ctx context.Context, commentID, status, approved string) error
	DeleteComment(ctx context.Context, commentID string) error
}

const deleteTokenTTL = 2 * time.Minute

type pendingDelete struct {
	CommentID string
	Actor     string
	ExpiresAt time.Time
}

// Coordinator serializes mutations against the repository. Every
// successful mutation is followed by exactly one snapshot refresh so
// the panel never trusts its own optimistic state.
type Coordinator struct {
	Repo  Mutator
	Store *Store
	Audit *audit.Repo
	Hub   *live.Hub

	mu      sync.Mutex
	pending map[string]pendingDelete
}

func NewCoordinator(repo Mutator, store *Store, auditRepo *audit.Repo, hub *live.Hub) *Coordinator {
	return &Coordinator{
		Repo:    repo,
		Store:   store,
		Audit:   auditRepo,
		Hub:     hub,
		pending: make(map[string]pendingDelete),
	}
}

func ValidStatus(status string) bool {
	switch status {
	case models.StatusPending, models.StatusApproved, models.StatusRejected:
		return true
	}
	return false
}

func (co *Coordinator) SetStatus(ctx context.Context, actor, commentID, status string) error {
	if !ValidStatus(status) {
		return fmt.Errorf("invalid status %q", status)
	}
	if commentID == "" {
		return fmt.Errorf("comment id required")
	}

	var oldStatus, parentID string
	if cur := co.Store.Find(commentID); cur != nil {
		oldStatus = cur.Status
		parentID = cur.ParentID
	}

	// the repository stores both the status string and the legacy
	// approved flag; keep them in lockstep
	approved := "false"
	if status == models.StatusApproved {
		approved = "true"
	}

	if err := co.Repo.UpdateStatus(ctx, commentID, status, approved); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	co.record(ctx, audit.Entry{
		Actor:     actor,
		Action:    audit.ActionStatus,
		CommentID: commentID,
		ParentID:  parentID,
		OldStatus: oldStatus,
		NewStatus: status,
	})

	if err := co.Store.Refresh(ctx); err != nil {
		// mutation landed; snapshot stays stale until the next refresh
		log.Printf("[moderation] refresh after status change failed: %v", err)
	}

	if co.Hub != nil {
		stats := co.Store.Snapshot().Stats
		co.Hub.Broadcast(live.Event{
			Type:      live.EventStatusChanged,
			CommentID: commentID,
			ParentID:  parentID,
			Status:    status,
			Actor:     actor,
			Stats:     &stats,
		})
	}
	return nil
}

// RequestDelete opens a confirmation window. Nothing is removed until
// the same token comes back via ConfirmDelete.
func (co *Coordinator) RequestDelete(actor, commentID string) (string, time.Time, error) {
	if commentID == "" {
		return "", time.Time{}, fmt.Errorf("comment id required")
	}
	if co.Store.Find(commentID) == nil {
		return "", time.Time{}, fmt.Errorf("unknown comment %q", commentID)
	}

	token := uuid.NewString()
	exp := time.Now().Add(deleteTokenTTL)

	co.mu.Lock()
	co.gcLocked()
	co.pending[token] = pendingDelete{CommentID: commentID, Actor: actor, ExpiresAt: exp}
	co.mu.Unlock()

	return token, exp, nil
}

func (co *Coordinator) CancelDelete(token string) bool {
	co.mu.Lock()
	defer co.mu.Unlock()
	_, ok := co.pending[token]
	delete(co.pending, token)
	return ok
}

func (co *Coordinator) ConfirmDelete(ctx context.Context, actor, token string) error {
	co.mu.Lock()
	pd, ok := co.pending[token]
	delete(co.pending, token)
	co.mu.Unlock()

	if !ok || time.Now().After(pd.ExpiresAt) {
		return fmt.Errorf("unknown or expired delete token")
	}

	var oldStatus, parentID string
	if cur := co.Store.Find(pd.CommentID); cur != nil {
		oldStatus = cur.Status
		parentID = cur.ParentID
	}

	if err := co.Repo.DeleteComment(ctx, pd.CommentID); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	co.record(ctx, audit.Entry{
		Actor:     actor,
		Action:    audit.ActionDelete,
		CommentID: pd.CommentID,
		ParentID:  parentID,
		OldStatus: oldStatus,
	})

	if err := co.Store.Refresh(ctx); err != nil {
		log.Printf("[moderation] refresh after delete failed: %v", err)
	}

	if co.Hub != nil {
		stats := co.Store.Snapshot().Stats
		co.Hub.Broadcast(live.Event{
			Type:      live.EventCommentDeleted,
			CommentID: pd.CommentID,
			ParentID:  parentID,
			Actor:     actor,
			Stats:     &stats,
		})
	}
	return nil
}

func (co *Coordinator) gcLocked() {
	now := time.Now()
	for tok, pd := range co.pending {
		if now.After(pd.ExpiresAt) {
			delete(co.pending, tok)
		}
	}
}

func (co *Coordinator) record(ctx context.Context, e audit.Entry) {
	if co.Audit == nil {
		return
	}
	if err := co.Audit.Record(ctx, e); err != nil {
		log.Printf("[moderation] audit record failed: %v", err)
	}
}
