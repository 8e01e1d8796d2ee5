package moderation

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"modpanel/internal/live"
	"modpanel/internal/pipeline"
	"modpanel/internal/titles"
	"modpanel/pkg/models"
)

// Source is where comments actually live. The panel never persists
// them; every view is served from the latest fetched snapshot.
type Source interface {
	FetchComments(ctx context.Context, lang string) ([]models.CommentNode, error)
}

type Snapshot struct {
	Comments  []models.CommentRecord
	Stats     models.AggregateStats
	FetchedAt time.Time
}

type Store struct {
	source Source
	lang   string
	titles *titles.Resolver
	hub    *live.Hub

	mu   sync.RWMutex
	snap Snapshot
}

func NewStore(source Source, lang string, resolver *titles.Resolver, hub *live.Hub) *Store {
	return &Store{source: source, lang: lang, titles: resolver, hub: hub}
}

// Refresh fetches the full comment set and swaps the snapshot in one
// step. On fetch failure the previous snapshot stays in place.
func (s *Store) Refresh(ctx context.Context) error {
	nodes, err := s.source.FetchComments(ctx, s.lang)
	if err != nil {
		return fmt.Errorf("fetch comments: %w", err)
	}

	records := pipeline.Normalize(nodes)
	snap := Snapshot{
		Comments:  records,
		Stats:     pipeline.CalcStats(records),
		FetchedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	if s.titles != nil {
		ids := make([]string, 0, len(records))
		for _, r := range records {
			ids = append(ids, r.ParentID)
		}
		s.titles.Kick(ids)
	}

	log.Printf("[moderation] snapshot refreshed: %d comments", len(records))

	if s.hub != nil {
		stats := snap.Stats
		s.hub.Broadcast(live.Event{
			Type:  live.EventSnapshotRefreshed,
			Stats: &stats,
		})
	}
	return nil
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Find returns the current record for a comment id, or nil.
func (s *Store) Find(id string) *models.CommentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.snap.Comments {
		if s.snap.Comments[i].ID == id {
			r := s.snap.Comments[i]
			return &r
		}
	}
	return nil
}
