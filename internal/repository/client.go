package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"modpanel/pkg/models"
)

// DefaultLanguage is used whenever a query is issued without an explicit
// language code.
const DefaultLanguage = "en"

// Client talks to the content repository's GraphQL endpoint. The
// repository is the authoritative comment store; this service never
// persists comments itself and always replaces its in-memory set from a
// fresh query. Timeout and retry policy live here, not in the pipeline.
type Client struct {
	Endpoint string
	Token    string // optional bearer token for the repository API
	Client   *http.Client
}

func NewClient(endpoint, token string) *Client {
	return &Client{
		Endpoint: endpoint,
		Token:    token,
		Client:   &http.Client{Timeout: 15 * time.Second},
	}
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, query string, variables map[string]any, out any) error {
	payload, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("repository: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("repository: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("repository: request: %w", err)
	}

	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("repository: status %d: %s", resp.StatusCode, string(body))
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []gqlError      `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("repository: decode: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("repository: %s", envelope.Errors[0].Message)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("repository: decode data: %w", err)
		}
	}
	return nil
}

// propValue decodes a JCR property value. Most properties arrive as JSON
// strings, but legacy approved flags were stored as booleans on some
// nodes, so both forms are accepted.
type propValue struct {
	Value string
}

func (p *propValue) UnmarshalJSON(b []byte) error {
	var wire struct {
		Value any `json:"value"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	switch v := wire.Value.(type) {
	case string:
		p.Value = v
	case bool:
		if v {
			p.Value = "true"
		} else {
			p.Value = "false"
		}
	case nil:
		// property exists without a value; keep empty
	default:
		p.Value = fmt.Sprintf("%v", v)
	}
	return nil
}

func propString(p *propValue) string {
	if p == nil {
		return ""
	}
	return p.Value
}

type wireNode struct {
	UUID        string     `json:"uuid"`
	Path        string     `json:"path"`
	Author      *propValue `json:"author"`
	Comment     *propValue `json:"comment"`
	Status      *propValue `json:"status"`
	Approved    *propValue `json:"approved"`
	Created     *propValue `json:"created"`
	AuthorEmail *propValue `json:"authorEmail"`
	IPHash      *propValue `json:"ipHash"`
	UserAgent   *propValue `json:"ua"`
}

func (n wireNode) toNode() models.CommentNode {
	return models.CommentNode{
		UUID:        n.UUID,
		Path:        n.Path,
		Author:      propString(n.Author),
		Comment:     propString(n.Comment),
		Status:      propString(n.Status),
		Approved:    propString(n.Approved),
		Created:     propString(n.Created),
		AuthorEmail: propString(n.AuthorEmail),
		IPHash:      propString(n.IPHash),
		UserAgent:   propString(n.UserAgent),
	}
}

// FetchComments queries every comment node for the given language.
// Malformed nodes are passed through as-is; the pipeline normalizer owns
// defaulting and never drops a record.
func (c *Client) FetchComments(ctx context.Context, lang string) ([]models.CommentNode, error) {
	if strings.TrimSpace(lang) == "" {
		lang = DefaultLanguage
	}

	var data struct {
		JCR struct {
			NodesByCriteria struct {
				Nodes []wireNode `json:"nodes"`
			} `json:"nodesByCriteria"`
		} `json:"jcr"`
	}
	if err := c.do(ctx, queryAllComments, map[string]any{"lang": lang}, &data); err != nil {
		return nil, fmt.Errorf("fetch comments: %w", err)
	}

	nodes := make([]models.CommentNode, 0, len(data.JCR.NodesByCriteria.Nodes))
	for _, n := range data.JCR.NodesByCriteria.Nodes {
		nodes = append(nodes, n.toNode())
	}
	return nodes, nil
}

// LookupTitle resolves the display title of a parent blog post. Returns
// "" without error when the node exists but carries no display name.
func (c *Client) LookupTitle(ctx context.Context, parentID, lang string) (string, error) {
	if strings.TrimSpace(lang) == "" {
		lang = DefaultLanguage
	}

	var data struct {
		JCR struct {
			NodeByID *struct {
				UUID        string `json:"uuid"`
				DisplayName string `json:"displayName"`
			} `json:"nodeById"`
		} `json:"jcr"`
	}
	if err := c.do(ctx, queryPostByID, map[string]any{"postId": parentID, "lang": lang}, &data); err != nil {
		return "", fmt.Errorf("lookup title %s: %w", parentID, err)
	}
	if data.JCR.NodeByID == nil {
		return "", nil
	}
	return data.JCR.NodeByID.DisplayName, nil
}

// UpdateStatus writes both the canonical status and the legacy approved
// flag onto the comment node, keeping pre-status-tracking consumers
// working.
func (c *Client) UpdateStatus(ctx context.Context, commentID, status, approved string) error {
	vars := map[string]any{
		"commentId": commentID,
		"status":    status,
		"approved":  approved,
	}
	if err := c.do(ctx, mutationUpdateStatus, vars, nil); err != nil {
		return fmt.Errorf("update status %s: %w", commentID, err)
	}
	return nil
}

// DeleteComment removes the comment node from the repository.
func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	var data struct {
		JCR struct {
			DeleteNode bool `json:"deleteNode"`
		} `json:"jcr"`
	}
	if err := c.do(ctx, mutationDeleteComment, map[string]any{"commentId": commentID}, &data); err != nil {
		return fmt.Errorf("delete comment %s: %w", commentID, err)
	}
	if !data.JCR.DeleteNode {
		return fmt.Errorf("delete comment %s: repository refused", commentID)
	}
	return nil
}
