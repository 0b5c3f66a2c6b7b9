// Package store holds the in-memory item collections backing the review
// views. It is the single source of truth for "what does this view show",
// reconciling server snapshots with post-confirmation local removals.
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/examflux/examflux/internal/item"
)

// Scope names one held collection.
type Scope string

const (
	// ScopeQueue is the review queue: items awaiting a decision.
	ScopeQueue Scope = "queue"
	// ScopeCart is the staging view: approved but uncommitted items.
	ScopeCart Scope = "cart"
)

// Fetcher is the slice of the review client the store needs to refresh.
type Fetcher interface {
	ListItems(ctx context.Context) ([]item.Item, error)
	CartList(ctx context.Context) ([]item.Item, error)
}

// Store is constructed per review session and passed to whichever
// controller needs it; there is no package-level instance.
type Store struct {
	fetch Fetcher

	mu          sync.Mutex
	collections map[Scope][]item.Item
	issued      map[Scope]uint64
}

// New creates an empty store backed by the given fetcher.
func New(fetch Fetcher) *Store {
	return &Store{
		fetch:       fetch,
		collections: make(map[Scope][]item.Item),
		issued:      make(map[Scope]uint64),
	}
}

// Refresh replaces a scope's collection wholesale with the server's current
// snapshot. Each refresh takes a per-scope sequence number; a response is
// applied only if no newer refresh was issued meanwhile, so a stale reply
// can never clobber a fresher one. On failure the prior collection is
// untouched.
func (s *Store) Refresh(ctx context.Context, scope Scope) error {
	var fetch func(context.Context) ([]item.Item, error)
	switch scope {
	case ScopeQueue:
		fetch = s.fetch.ListItems
	case ScopeCart:
		fetch = s.fetch.CartList
	default:
		return fmt.Errorf("unknown scope: %s", scope)
	}

	s.mu.Lock()
	s.issued[scope]++
	seq := s.issued[scope]
	s.mu.Unlock()

	items, err := fetch(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.issued[scope] {
		// A newer refresh is in flight or already landed; drop this one.
		return nil
	}
	s.collections[scope] = items
	return nil
}

// ApplyApproved removes the item from the queue after the server confirmed
// the approve. The mutation is post-hoc only, so there is no rollback path.
func (s *Store) ApplyApproved(id item.ID) {
	s.removeFromQueue(id)
}

// ApplyRejected is the reject counterpart of ApplyApproved.
func (s *Store) ApplyRejected(id item.ID) {
	s.removeFromQueue(id)
}

func (s *Store) removeFromQueue(id item.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	held := s.collections[ScopeQueue]
	kept := make([]item.Item, 0, len(held))
	for _, it := range held {
		if !it.ID.Equal(id) {
			kept = append(kept, it)
		}
	}
	s.collections[ScopeQueue] = kept
}

// Items returns a snapshot copy of a scope's collection.
func (s *Store) Items(scope Scope) []item.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]item.Item(nil), s.collections[scope]...)
}

// FilteredQueue derives the review-queue view: items whose stringified id
// or lowercased status contains the trimmed, lowercased query, and which
// are still reviewable. An empty query matches everything. The underlying
// collection is never mutated.
func (s *Store) FilteredQueue(query string) []item.Item {
	q := strings.ToLower(strings.TrimSpace(query))

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []item.Item
	for _, it := range s.collections[ScopeQueue] {
		if !item.IsReviewable(it) {
			continue
		}
		if q == "" ||
			strings.Contains(it.ID.String(), q) ||
			strings.Contains(strings.ToLower(string(it.Status)), q) {
			out = append(out, it)
		}
	}
	return out
}
