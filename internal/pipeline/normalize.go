package pipeline

import (
	"log"
	"strings"
	"time"

	"modpanel/pkg/models"
)

// AnonymousAuthor is substituted when a comment node carries no author.
const AnonymousAuthor = "Anonymous"

// UnknownParent is the grouping key for comments whose storage path does
// not contain a blogs segment.
const UnknownParent = "unknown"

// Debug enables stage-boundary logging for the derivation pipeline.
// Off by default; wired from server config.
var Debug bool

func debugf(format string, args ...any) {
	if Debug {
		log.Printf("[pipeline] "+format, args...)
	}
}

// Normalize maps raw repository nodes into canonical comment records.
// It never fails: a malformed node degrades to safe defaults instead of
// aborting the batch.
func Normalize(nodes []models.CommentNode) []models.CommentRecord {
	debugf("normalize: %d nodes", len(nodes))

	out := make([]models.CommentRecord, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, normalizeNode(n))
	}
	return out
}

func normalizeNode(n models.CommentNode) models.CommentRecord {
	author := n.Author
	if author == "" {
		author = AnonymousAuthor
	}

	created := n.Created
	if created == "" {
		// keeps ordering stable for undated records; rendering still
		// guards against unparsable values independently
		created = time.Now().UTC().Format(time.RFC3339)
	}

	return models.CommentRecord{
		ID:          n.UUID,
		Author:      author,
		Body:        n.Comment,
		Status:      ResolveStatus(n.Status, n.Approved),
		Created:     created,
		ParentID:    ExtractParentID(n.Path),
		AuthorEmail: n.AuthorEmail,
		IPHash:      n.IPHash,
		UserAgent:   n.UserAgent,
	}
}

// ResolveStatus derives the canonical moderation status from a node's
// explicit status property and its legacy approved flag.
//
// Precedence is fixed: a non-empty explicit status wins, then the legacy
// flag, then pending. Comments created before status tracking existed
// only have the approved flag, so the fallback must stay.
func ResolveStatus(status, approved string) string {
	if status != "" {
		return status
	}
	if approved == "true" {
		return models.StatusApproved
	}
	return models.StatusPending
}

// ExtractParentID pulls the owning blog post id out of a comment's
// storage path, e.g.
//
//	/sites/demo/contents/ugc/blogs/post42/comments/c1 -> post42
//
// Returns "" when the path has no blogs segment or nothing follows it.
func ExtractParentID(path string) string {
	if path == "" {
		return ""
	}
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == "blogs" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

// FormatDateTime renders a raw repository timestamp as a date/time pair
// for display. Empty or unparsable input yields two empty strings, never
// an error.
func FormatDateTime(raw string) (date, clock string) {
	if raw == "" {
		return "", ""
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return "", ""
	}
	return t.Format("2006-01-02"), t.Format("15:04:05")
}
