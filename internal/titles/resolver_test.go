package titles

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type countingLookup struct {
	mu     sync.Mutex
	calls  map[string]int
	titles map[string]string
	fail   map[string]bool
}

func newCountingLookup() *countingLookup {
	return &countingLookup{
		calls:  make(map[string]int),
		titles: make(map[string]string),
		fail:   make(map[string]bool),
	}
}

func (l *countingLookup) LookupTitle(_ context.Context, id, _ string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls[id]++
	if l.fail[id] {
		return "", errors.New("lookup failed")
	}
	return l.titles[id], nil
}

func (l *countingLookup) callCount(id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[id]
}

func TestKickResolvesTitles(t *testing.T) {
	lookup := newCountingLookup()
	lookup.titles["post1"] = "First Post"
	lookup.titles["post2"] = "Second Post"

	r := NewResolver(lookup, "en")
	r.Kick([]string{"post1", "post2", ""})
	r.Wait()

	if got := r.Title("post1"); got != "First Post" {
		t.Errorf("post1 title = %q", got)
	}
	if got := r.Title("post2"); got != "Second Post" {
		t.Errorf("post2 title = %q", got)
	}
	if lookup.callCount("") != 0 {
		t.Error("empty id should never be looked up")
	}
}

func TestKickFetchesEachIDOnce(t *testing.T) {
	lookup := newCountingLookup()
	lookup.titles["post1"] = "First Post"

	r := NewResolver(lookup, "en")
	r.Kick([]string{"post1", "post1"})
	r.Wait()
	r.Kick([]string{"post1"}) // second comment-set change, same id
	r.Wait()

	if n := lookup.callCount("post1"); n != 1 {
		t.Fatalf("post1 fetched %d times, want exactly 1", n)
	}
}

func TestFailedLookupFallsBackToRawID(t *testing.T) {
	lookup := newCountingLookup()
	lookup.fail["broken"] = true

	r := NewResolver(lookup, "en")
	r.Kick([]string{"broken"})
	r.Wait()

	if got := r.Title("broken"); got != "broken" {
		t.Errorf("fallback title = %q, want raw id", got)
	}
	// failure consumes the single per-session attempt
	r.Kick([]string{"broken"})
	r.Wait()
	if n := lookup.callCount("broken"); n != 1 {
		t.Errorf("broken fetched %d times, want 1", n)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	lookup := newCountingLookup()
	lookup.titles["post1"] = "First Post"

	r := NewResolver(lookup, "en")
	r.Kick([]string{"post1"})
	r.Wait()

	snap := r.Snapshot()
	snap["post1"] = "tampered"
	if got := r.Title("post1"); got != "First Post" {
		t.Errorf("cache affected by snapshot mutation: %q", got)
	}
}
