package models

// Moderation status values. Every normalized comment carries exactly one
// of these; legacy records without a status property are mapped onto them
// during normalization.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Filter states accepted by the comment listing. FilterAll passes every
// record through; the other three match the status values above.
const FilterAll = "all"

// CommentRecord is the normalized, internal form of a comment node
// fetched from the content repository.
//
// Raw nodes are mapped into this structure once per fetch cycle; records
// are never patched in place, a re-fetch replaces the whole set.
type CommentRecord struct {
	ID       string `json:"id"`
	Author   string `json:"author"`    // "Anonymous" when the node has no author
	Body     string `json:"body"`      // empty when absent
	Status   string `json:"status"`    // always one of the Status* values
	Created  string `json:"created"`   // raw repository timestamp; "now" substituted when absent
	ParentID string `json:"parent_id"` // owning blog post id; "" when the path has no blogs segment

	// Optional UGC metadata persisted by the comment service; surfaced
	// read-only when present.
	AuthorEmail string `json:"author_email,omitempty"`
	IPHash      string `json:"ip_hash,omitempty"`
	UserAgent   string `json:"user_agent,omitempty"`
}

// AggregateStats is the per-status breakdown of the full comment set.
// Pending + Approved + Rejected always equals Total.
type AggregateStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// CommentGroup holds one parent post's comments in encounter order.
// Groups themselves are ordered by first appearance in the filtered set.
type CommentGroup struct {
	ParentID string          `json:"parent_id"` // "unknown" when extraction failed
	Title    string          `json:"title,omitempty"`
	Comments []CommentRecord `json:"comments"`
}
