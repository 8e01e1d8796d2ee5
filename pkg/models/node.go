package models

// CommentNode is the raw node record returned by the repository comments
// query. Every field may be empty: old comments predate status tracking,
// anonymous comments have no author, and malformed nodes can miss
// anything. The pipeline normalizer owns all defaulting.
type CommentNode struct {
	UUID        string `json:"uuid"`
	Path        string `json:"path"`
	Author      string `json:"author"`
	Comment     string `json:"comment"`
	Status      string `json:"status"`
	Approved    string `json:"approved"` // legacy boolean-like flag: "true" / "false" / ""
	Created     string `json:"created"`
	AuthorEmail string `json:"author_email,omitempty"`
	IPHash      string `json:"ip_hash,omitempty"`
	UserAgent   string `json:"user_agent,omitempty"`
}
