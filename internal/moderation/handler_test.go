package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"modpanel/pkg/models"
)

type fakeSource struct {
	nodes      []models.CommentNode
	fetchCount int
	fail       bool
}

func (f *fakeSource) FetchComments(ctx context.Context, lang string) ([]models.CommentNode, error) {
	if f.fail {
		return nil, fmt.Errorf("repository down")
	}
	f.fetchCount++
	return f.nodes, nil
}

type fakeMutator struct {
	updates []string // "id/status/approved"
	deletes []string
	fail    bool
}

func (f *fakeMutator) UpdateStatus(ctx context.Context, commentID, status, approved string) error {
	if f.fail {
		return fmt.Errorf("mutation rejected")
	}
	f.updates = append(f.updates, commentID+"/"+status+"/"+approved)
	return nil
}

func (f *fakeMutator) DeleteComment(ctx context.Context, commentID string) error {
	if f.fail {
		return fmt.Errorf("mutation rejected")
	}
	f.deletes = append(f.deletes, commentID)
	return nil
}

func sampleNodes() []models.CommentNode {
	return []models.CommentNode{
		{UUID: "c1", Path: "/sites/demo/contents/ugc/blogs/post1/comments/c1", Author: "alice", Comment: "first", Status: "pending", Created: "2026-01-10T09:30:00Z"},
		{UUID: "c2", Path: "/sites/demo/contents/ugc/blogs/post2/comments/c2", Author: "bob", Comment: "second", Approved: "true", Created: "2026-01-10T10:00:00Z"},
		{UUID: "c3", Comment: "orphaned", Status: "rejected"},
	}
}

func newTestPanel(t *testing.T, src *fakeSource, mut *fakeMutator) (*gin.Engine, *Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := NewStore(src, "en", nil, nil)
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("initial refresh: %v", err)
	}

	co := NewCoordinator(mut, store, nil, nil)
	h := NewHandler(store, co, nil, nil, "Demo Site", "en")

	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))
	return r, store
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListCommentsGroupsAndStats(t *testing.T) {
	src := &fakeSource{nodes: sampleNodes()}
	r, _ := newTestPanel(t, src, &fakeMutator{})

	w := doJSON(t, r, http.MethodGet, "/api/comments", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Filter string `json:"filter"`
		Groups []struct {
			ParentID string `json:"parent_id"`
			Title    string `json:"title"`
			Comments []struct {
				ID     string `json:"id"`
				Author string `json:"author"`
				Status string `json:"status"`
				Date   string `json:"date"`
			} `json:"comments"`
		} `json:"groups"`
		Stats models.AggregateStats `json:"stats"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if resp.Filter != models.FilterAll {
		t.Errorf("filter = %q, want all", resp.Filter)
	}
	if len(resp.Groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(resp.Groups))
	}
	order := []string{"post1", "post2", "unknown"}
	for i, want := range order {
		if resp.Groups[i].ParentID != want {
			t.Errorf("group[%d] = %q, want %q", i, resp.Groups[i].ParentID, want)
		}
	}
	if resp.Groups[2].Comments[0].ID != "c3" || resp.Groups[2].Comments[0].Author != "Anonymous" {
		t.Errorf("unknown group holds wrong comment: %+v", resp.Groups[2].Comments)
	}
	if resp.Groups[0].Comments[0].Date != "2026-01-10" {
		t.Errorf("date = %q, want 2026-01-10", resp.Groups[0].Comments[0].Date)
	}

	want := models.AggregateStats{Total: 3, Pending: 1, Approved: 1, Rejected: 1}
	if resp.Stats != want {
		t.Errorf("stats = %+v, want %+v", resp.Stats, want)
	}
}

func TestListCommentsFilteredStatsStayGlobal(t *testing.T) {
	src := &fakeSource{nodes: sampleNodes()}
	r, _ := newTestPanel(t, src, &fakeMutator{})

	w := doJSON(t, r, http.MethodGet, "/api/comments?filter=pending", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var resp struct {
		Groups []struct {
			ParentID string `json:"parent_id"`
		} `json:"groups"`
		Stats models.AggregateStats `json:"stats"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Groups) != 1 || resp.Groups[0].ParentID != "post1" {
		t.Errorf("filtered groups wrong: %+v", resp.Groups)
	}
	if resp.Stats.Total != 3 {
		t.Errorf("stats must cover the full set, got total=%d", resp.Stats.Total)
	}
}

func TestListCommentsInvalidFilter(t *testing.T) {
	src := &fakeSource{nodes: sampleNodes()}
	r, _ := newTestPanel(t, src, &fakeMutator{})

	w := doJSON(t, r, http.MethodGet, "/api/comments?filter=bogus", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", w.Code)
	}
}

func TestSetStatusRefetchesExactlyOnce(t *testing.T) {
	src := &fakeSource{nodes: sampleNodes()}
	mut := &fakeMutator{}
	r, _ := newTestPanel(t, src, mut)

	before := src.fetchCount
	w := doJSON(t, r, http.MethodPost, "/api/comments/c1/status", gin.H{"status": "approved"})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body.String())
	}

	if len(mut.updates) != 1 || mut.updates[0] != "c1/approved/true" {
		t.Errorf("updates = %v, want [c1/approved/true]", mut.updates)
	}
	if src.fetchCount != before+1 {
		t.Errorf("fetch count = %d, want %d (one re-fetch per mutation)", src.fetchCount, before+1)
	}
}

func TestSetStatusRejectedCarriesApprovedFalse(t *testing.T) {
	src := &fakeSource{nodes: sampleNodes()}
	mut := &fakeMutator{}
	r, _ := newTestPanel(t, src, mut)

	w := doJSON(t, r, http.MethodPost, "/api/comments/c2/status", gin.H{"status": "rejected"})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if len(mut.updates) != 1 || mut.updates[0] != "c2/rejected/false" {
		t.Errorf("updates = %v, want [c2/rejected/false]", mut.updates)
	}
}

func TestSetStatusFailureSkipsRefetch(t *testing.T) {
	src := &fakeSource{nodes: sampleNodes()}
	mut := &fakeMutator{fail: true}
	r, _ := newTestPanel(t, src, mut)

	before := src.fetchCount
	w := doJSON(t, r, http.MethodPost, "/api/comments/c1/status", gin.H{"status": "approved"})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status %d, want 502", w.Code)
	}
	if src.fetchCount != before {
		t.Errorf("fetch count changed on failed mutation: %d -> %d", before, src.fetchCount)
	}
}

func TestSetStatusInvalidValue(t *testing.T) {
	src := &fakeSource{nodes: sampleNodes()}
	mut := &fakeMutator{}
	r, _ := newTestPanel(t, src, mut)

	w := doJSON(t, r, http.MethodPost, "/api/comments/c1/status", gin.H{"status": "spam"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", w.Code)
	}
	if len(mut.updates) != 0 {
		t.Errorf("mutator called on invalid status: %v", mut.updates)
	}
}

func TestDeleteConfirmationFlow(t *testing.T) {
	src := &fakeSource{nodes: sampleNodes()}
	mut := &fakeMutator{}
	r, _ := newTestPanel(t, src, mut)

	// request
	w := doJSON(t, r, http.MethodPost, "/api/comments/c1/delete-request", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("request status %d", w.Code)
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("no token in response: %s", w.Body.String())
	}

	// wrong token must not delete
	w = doJSON(t, r, http.MethodPost, "/api/delete-confirm", gin.H{"token": "nope"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("confirm with bad token: status %d, want 404", w.Code)
	}
	if len(mut.deletes) != 0 {
		t.Fatalf("delete ran without a valid token: %v", mut.deletes)
	}

	// confirm
	before := src.fetchCount
	w = doJSON(t, r, http.MethodPost, "/api/delete-confirm", gin.H{"token": resp.Token})
	if w.Code != http.StatusOK {
		t.Fatalf("confirm status %d, body %s", w.Code, w.Body.String())
	}
	if len(mut.deletes) != 1 || mut.deletes[0] != "c1" {
		t.Errorf("deletes = %v, want [c1]", mut.deletes)
	}
	if src.fetchCount != before+1 {
		t.Errorf("fetch count = %d, want %d", src.fetchCount, before+1)
	}

	// token is single-use
	w = doJSON(t, r, http.MethodPost, "/api/delete-confirm", gin.H{"token": resp.Token})
	if w.Code != http.StatusNotFound {
		t.Errorf("reused token: status %d, want 404", w.Code)
	}
}

func TestDeleteCancel(t *testing.T) {
	src := &fakeSource{nodes: sampleNodes()}
	mut := &fakeMutator{}
	r, _ := newTestPanel(t, src, mut)

	w := doJSON(t, r, http.MethodPost, "/api/comments/c2/delete-request", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("request status %d", w.Code)
	}
	var resp struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)

	w = doJSON(t, r, http.MethodPost, "/api/delete-cancel", gin.H{"token": resp.Token})
	if w.Code != http.StatusOK {
		t.Fatalf("cancel status %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/delete-confirm", gin.H{"token": resp.Token})
	if w.Code != http.StatusNotFound {
		t.Errorf("confirm after cancel: status %d, want 404", w.Code)
	}
	if len(mut.deletes) != 0 {
		t.Errorf("delete ran after cancel: %v", mut.deletes)
	}
}

func TestDeleteRequestUnknownComment(t *testing.T) {
	src := &fakeSource{nodes: sampleNodes()}
	r, _ := newTestPanel(t, src, &fakeMutator{})

	w := doJSON(t, r, http.MethodPost, "/api/comments/ghost/delete-request", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", w.Code)
	}
}

func TestRefreshFailureKeepsSnapshot(t *testing.T) {
	src := &fakeSource{nodes: sampleNodes()}
	r, store := newTestPanel(t, src, &fakeMutator{})

	src.fail = true
	w := doJSON(t, r, http.MethodPost, "/api/refresh", nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status %d, want 502", w.Code)
	}
	if got := len(store.Snapshot().Comments); got != 3 {
		t.Errorf("snapshot lost on failed refresh: %d comments", got)
	}
}

func TestPanelContext(t *testing.T) {
	src := &fakeSource{nodes: sampleNodes()}
	r, _ := newTestPanel(t, src, &fakeMutator{})

	w := doJSON(t, r, http.MethodGet, "/api/context", nil)
	var resp map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["site"] != "Demo Site" || resp["lang"] != "en" {
		t.Errorf("defaults wrong: %v", resp)
	}

	w = doJSON(t, r, http.MethodGet, "/api/context?site=Other&lang=fr", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["site"] != "Other" || resp["lang"] != "fr" {
		t.Errorf("override wrong: %v", resp)
	}
}
