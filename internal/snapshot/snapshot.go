// Package snapshot holds the recognition side's read-only copy of the identity
// store and the time-based policy that refreshes it.
package snapshot

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kozaktomas/face-index/internal/constants"
	"github.com/kozaktomas/face-index/internal/identity"
	"github.com/kozaktomas/face-index/internal/store"
	"github.com/rs/zerolog/log"
)

// DefaultRefreshInterval bounds how stale a snapshot can get.
const DefaultRefreshInterval = constants.DefaultRefreshInterval

// Snapshot is an immutable copy of the store contents at LoadedAt.
type Snapshot struct {
	entries  []identity.Entry
	LoadedAt time.Time
}

// New builds a snapshot that owns a private copy of entries.
func New(entries []identity.Entry, loadedAt time.Time) *Snapshot {
	return &Snapshot{entries: identity.CloneAll(entries), LoadedAt: loadedAt}
}

// Len returns the number of entries. A nil snapshot is empty.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Label returns the label stored at index i.
func (s *Snapshot) Label(i int) string {
	return s.entries[i].Label
}

// Embedding returns the vector stored at index i. Callers must not modify it.
func (s *Snapshot) Embedding(i int) []float32 {
	return s.entries[i].Embedding
}

// Labels returns the number of entries per label.
func (s *Snapshot) Labels() map[string]int {
	counts := make(map[string]int)
	for i := range s.Len() {
		counts[s.entries[i].Label]++
	}
	return counts
}

// Cache owns the current snapshot and replaces it wholesale when a refresh is due.
// Current is lock-free; refreshes are serialized among themselves.
type Cache struct {
	reader   store.Reader
	interval time.Duration

	current atomic.Pointer[Snapshot]

	mu          sync.Mutex
	lastRefresh time.Time
}

// NewCache loads the initial snapshot from reader. An empty store gives an empty snapshot.
func NewCache(ctx context.Context, reader store.Reader, interval time.Duration, now time.Time) (*Cache, error) {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	c := &Cache{reader: reader, interval: interval}

	entries, err := reader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial snapshot: %w", err)
	}
	c.swap(entries, now)
	return c, nil
}

// Current returns the snapshot in effect. Hold on to it for a consistent view.
func (c *Cache) Current() *Snapshot {
	return c.current.Load()
}

// Interval returns the refresh interval.
func (c *Cache) Interval() time.Duration {
	return c.interval
}

// LastRefresh returns when the cache last attempted a reload.
func (c *Cache) LastRefresh() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRefresh
}

// RefreshIfDue reloads the store when at least the refresh interval has passed
// since the last attempt. It reports whether a new snapshot was installed.
// On a failed load the previous snapshot stays in effect and the next attempt
// waits another full interval.
func (c *Cache) RefreshIfDue(ctx context.Context, now time.Time) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if now.Sub(c.lastRefresh) < c.interval {
		return false, nil
	}
	return c.reloadLocked(ctx, now)
}

// Refresh reloads unconditionally.
func (c *Cache) Refresh(ctx context.Context, now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.reloadLocked(ctx, now)
	return err
}

func (c *Cache) reloadLocked(ctx context.Context, now time.Time) (bool, error) {
	c.lastRefresh = now

	entries, err := c.reader.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to reload snapshot: %w", err)
	}

	prev := c.Current().Len()
	c.swap(entries, now)
	log.Debug().Int("entries", len(entries)).Int("previous", prev).Msg("reloaded identity snapshot")
	return true, nil
}

func (c *Cache) swap(entries []identity.Entry, now time.Time) {
	// Load hands over ownership of the returned slices, so no copy is needed.
	c.current.Store(&Snapshot{entries: entries, LoadedAt: now})
	c.lastRefresh = now
}
