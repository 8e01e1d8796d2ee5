package live

import (
	"time"

	"modpanel/pkg/models"
)

// Event types pushed to connected panel clients.
const (
	EventStatusChanged     = "comment.status"
	EventCommentDeleted    = "comment.delete"
	EventSnapshotRefreshed = "snapshot.refresh"
)

// Event is the single wire shape for all moderation feed messages.
type Event struct {
	Type      string                 `json:"type"`
	CommentID string                 `json:"comment_id,omitempty"`
	ParentID  string                 `json:"parent_id,omitempty"`
	Status    string                 `json:"status,omitempty"`
	Actor     string                 `json:"actor,omitempty"`
	Stats     *models.AggregateStats `json:"stats,omitempty"`
	At        time.Time              `json:"at"`
}
