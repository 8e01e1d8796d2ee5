package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// fakeRepo records the last GraphQL request and serves a canned response.
type fakeRepo struct {
	lastQuery string
	lastVars  map[string]any
	respond   string
	status    int
}

func (f *fakeRepo) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.lastQuery = req.Query
		f.lastVars = req.Variables

		status := f.status
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(f.respond))
	}
}

func newTestClient(t *testing.T, f *fakeRepo) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "")
}

func TestFetchCommentsDecoding(t *testing.T) {
	fake := &fakeRepo{respond: `{
		"data": {
			"jcr": {
				"nodesByCriteria": {
					"nodes": [
						{
							"uuid": "c1",
							"path": "/sites/demo/contents/ugc/blogs/post42/comments/c1",
							"author": {"value": "Jo"},
							"comment": {"value": "hello"},
							"status": {"value": "approved"},
							"approved": {"value": "true"},
							"created": {"value": "2024-03-01T14:30:05Z"}
						},
						{
							"uuid": "c2",
							"path": "",
							"author": null,
							"approved": {"value": true}
						}
					]
				}
			}
		}
	}`}

	c := newTestClient(t, fake)
	nodes, err := c.FetchComments(context.Background(), "")
	if err != nil {
		t.Fatalf("FetchComments failed: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(nodes))
	}

	if fake.lastVars["lang"] != "en" {
		t.Errorf("lang variable = %v, want default en", fake.lastVars["lang"])
	}

	n := nodes[0]
	if n.UUID != "c1" || n.Author != "Jo" || n.Comment != "hello" || n.Status != "approved" {
		t.Errorf("node 0 decoded wrong: %+v", n)
	}
	if n.Created != "2024-03-01T14:30:05Z" {
		t.Errorf("created = %q", n.Created)
	}

	// null property and boolean approved flag
	sparse := nodes[1]
	if sparse.Author != "" {
		t.Errorf("null author decoded to %q", sparse.Author)
	}
	if sparse.Approved != "true" {
		t.Errorf("boolean approved decoded to %q, want \"true\"", sparse.Approved)
	}
}

func TestFetchCommentsGraphQLError(t *testing.T) {
	fake := &fakeRepo{respond: `{"errors": [{"message": "workspace unavailable"}]}`}
	c := newTestClient(t, fake)

	if _, err := c.FetchComments(context.Background(), "en"); err == nil {
		t.Fatal("expected error from errors envelope")
	}
}

func TestFetchCommentsHTTPError(t *testing.T) {
	fake := &fakeRepo{respond: `boom`, status: http.StatusBadGateway}
	c := newTestClient(t, fake)

	if _, err := c.FetchComments(context.Background(), "en"); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}

func TestLookupTitle(t *testing.T) {
	fake := &fakeRepo{respond: `{
		"data": {"jcr": {"nodeById": {"uuid": "post42", "displayName": "My First Post"}}}
	}`}
	c := newTestClient(t, fake)

	title, err := c.LookupTitle(context.Background(), "post42", "en")
	if err != nil {
		t.Fatalf("LookupTitle failed: %v", err)
	}
	if title != "My First Post" {
		t.Errorf("title = %q", title)
	}
	if fake.lastVars["postId"] != "post42" {
		t.Errorf("postId variable = %v", fake.lastVars["postId"])
	}
}

func TestLookupTitleAbsentNode(t *testing.T) {
	fake := &fakeRepo{respond: `{"data": {"jcr": {"nodeById": null}}}`}
	c := newTestClient(t, fake)

	title, err := c.LookupTitle(context.Background(), "gone", "en")
	if err != nil {
		t.Fatalf("LookupTitle failed: %v", err)
	}
	if title != "" {
		t.Errorf("title = %q, want empty for absent node", title)
	}
}

func TestUpdateStatusCarriesLegacyFlag(t *testing.T) {
	fake := &fakeRepo{respond: `{"data": {"jcr": {"mutateNode": {}}}}`}
	c := newTestClient(t, fake)

	if err := c.UpdateStatus(context.Background(), "c1", "approved", "true"); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if fake.lastVars["status"] != "approved" || fake.lastVars["approved"] != "true" {
		t.Errorf("mutation variables = %v", fake.lastVars)
	}
}

func TestDeleteComment(t *testing.T) {
	fake := &fakeRepo{respond: `{"data": {"jcr": {"deleteNode": true}}}`}
	c := newTestClient(t, fake)

	if err := c.DeleteComment(context.Background(), "c1"); err != nil {
		t.Fatalf("DeleteComment failed: %v", err)
	}
	if fake.lastVars["commentId"] != "c1" {
		t.Errorf("commentId variable = %v", fake.lastVars["commentId"])
	}

	refused := &fakeRepo{respond: `{"data": {"jcr": {"deleteNode": false}}}`}
	c = newTestClient(t, refused)
	if err := c.DeleteComment(context.Background(), "c1"); err == nil {
		t.Fatal("expected error when repository refuses delete")
	}
}
