package pipeline

import (
	"testing"

	"modpanel/pkg/models"
)

func TestResolveStatus(t *testing.T) {
	cases := []struct {
		name     string
		status   string
		approved string
		want     string
	}{
		{name: "explicit status wins", status: "rejected", approved: "true", want: "rejected"},
		{name: "explicit pending kept", status: "pending", approved: "true", want: "pending"},
		{name: "legacy approved true", status: "", approved: "true", want: "approved"},
		{name: "legacy approved false", status: "", approved: "false", want: "pending"},
		{name: "nothing set", status: "", approved: "", want: "pending"},
		{name: "garbage approved", status: "", approved: "yes", want: "pending"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveStatus(tc.status, tc.approved); got != tc.want {
				t.Fatalf("ResolveStatus(%q, %q) = %q, want %q", tc.status, tc.approved, got, tc.want)
			}
		})
	}
}

func TestResolveStatusAlwaysEnumerated(t *testing.T) {
	valid := map[string]bool{
		models.StatusPending:  true,
		models.StatusApproved: true,
		models.StatusRejected: true,
	}
	inputs := []models.CommentNode{
		{},
		{Approved: "true"},
		{Approved: "false"},
		{Approved: "1"},
		{Status: "pending"},
		{Status: "approved", Approved: "false"},
		{Status: "rejected"},
	}
	for _, n := range inputs {
		got := ResolveStatus(n.Status, n.Approved)
		if !valid[got] {
			t.Errorf("ResolveStatus(%q, %q) = %q, not an enumerated status", n.Status, n.Approved, got)
		}
	}
}

func TestExtractParentID(t *testing.T) {
	cases := []struct {
		name string
		path string
		want string
	}{
		{
			name: "full ugc path",
			path: "/sites/demo/contents/ugc/blogs/post42/comments/c1",
			want: "post42",
		},
		{name: "no blogs segment", path: "/sites/demo/contents/pages/home", want: ""},
		{name: "blogs is last segment", path: "/sites/demo/contents/ugc/blogs", want: ""},
		{name: "empty path", path: "", want: ""},
		{name: "blogs at root", path: "blogs/p1", want: "p1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractParentID(tc.path); got != tc.want {
				t.Fatalf("ExtractParentID(%q) = %q, want %q", tc.path, got, tc.want)
			}
		})
	}
}

func TestFormatDateTime(t *testing.T) {
	date, clock := FormatDateTime("2024-03-01T14:30:05Z")
	if date != "2024-03-01" || clock != "14:30:05" {
		t.Fatalf("got (%q, %q)", date, clock)
	}

	// malformed input degrades to a blank pair instead of failing
	date, clock = FormatDateTime("not-a-date")
	if date != "" || clock != "" {
		t.Fatalf("malformed input: got (%q, %q), want empty pair", date, clock)
	}

	date, clock = FormatDateTime("")
	if date != "" || clock != "" {
		t.Fatalf("empty input: got (%q, %q), want empty pair", date, clock)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	records := Normalize([]models.CommentNode{
		{UUID: "c1"}, // everything missing
		{
			UUID:    "c2",
			Path:    "/sites/demo/contents/ugc/blogs/post42/comments/c2",
			Author:  "Jo",
			Comment: "nice post",
			Status:  "approved",
			Created: "2024-03-01T14:30:05Z",
		},
	})

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	empty := records[0]
	if empty.Author != AnonymousAuthor {
		t.Errorf("author = %q, want %q", empty.Author, AnonymousAuthor)
	}
	if empty.Body != "" {
		t.Errorf("body = %q, want empty", empty.Body)
	}
	if empty.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", empty.Status)
	}
	if empty.Created == "" {
		t.Error("created should default to now, not stay empty")
	}
	if empty.ParentID != "" {
		t.Errorf("parent id = %q, want empty", empty.ParentID)
	}

	full := records[1]
	if full.ParentID != "post42" {
		t.Errorf("parent id = %q, want post42", full.ParentID)
	}
	if full.Status != models.StatusApproved {
		t.Errorf("status = %q, want approved", full.Status)
	}
	if full.Created != "2024-03-01T14:30:05Z" {
		t.Errorf("created = %q, should pass through raw", full.Created)
	}
}

func TestNormalizeLegacyScenario(t *testing.T) {
	// legacy node without status plus a new-format rejected node
	records := Normalize([]models.CommentNode{
		{UUID: "old", Approved: "true"},
		{UUID: "new", Status: "rejected", Approved: "true"},
	})

	if records[0].Status != models.StatusApproved {
		t.Errorf("legacy node status = %q, want approved", records[0].Status)
	}
	if records[1].Status != models.StatusRejected {
		t.Errorf("new node status = %q, want rejected", records[1].Status)
	}

	stats := CalcStats(records)
	want := models.AggregateStats{Total: 2, Pending: 0, Approved: 1, Rejected: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}
