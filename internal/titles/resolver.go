package titles

import (
	"context"
	"log"
	"sync"
)

// Lookup resolves one parent item's display title, typically backed by
// the repository client.
type Lookup interface {
	LookupTitle(ctx context.Context, parentID, lang string) (string, error)
}

// Resolver maps parent post ids to display titles, fetching each id at
// most once per session. The cache only ever grows: entries are never
// evicted or rewritten, so late results merging after a newer comment
// set has rendered are harmless.
type Resolver struct {
	lookup Lookup
	lang   string

	mu        sync.Mutex
	titles    map[string]string
	requested map[string]struct{}
	wg        sync.WaitGroup
}

func NewResolver(lookup Lookup, lang string) *Resolver {
	return &Resolver{
		lookup:    lookup,
		lang:      lang,
		titles:    make(map[string]string),
		requested: make(map[string]struct{}),
	}
}

// Kick issues one background lookup for every id not requested before.
// Lookups for different ids run independently; none are cancelled when
// the comment set changes underneath them.
func (r *Resolver) Kick(parentIDs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range parentIDs {
		if id == "" {
			continue
		}
		if _, seen := r.requested[id]; seen {
			continue
		}
		r.requested[id] = struct{}{}
		r.wg.Add(1)
		go r.resolve(id)
	}
}

func (r *Resolver) resolve(id string) {
	defer r.wg.Done()

	// deliberately not tied to the triggering request's context: results
	// arriving after the next fetch are still merged
	title, err := r.lookup.LookupTitle(context.Background(), id, r.lang)
	if err != nil {
		log.Printf("[titles] lookup %s failed: %v", id, err)
		return
	}
	if title == "" {
		return
	}

	r.mu.Lock()
	r.titles[id] = title
	r.mu.Unlock()
}

// Title returns the cached title, or the raw id as display fallback for
// unresolved entries.
func (r *Resolver) Title(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.titles[id]; ok {
		return t
	}
	return id
}

// Snapshot copies the current cache.
func (r *Resolver) Snapshot() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.titles))
	for k, v := range r.titles {
		out[k] = v
	}
	return out
}

// Wait blocks until all in-flight lookups finish. Used by one-shot
// tooling and tests; the server never waits.
func (r *Resolver) Wait() {
	r.wg.Wait()
}
