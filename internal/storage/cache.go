// cache.go - In-memory cache for session record lists

package storage

import (
	"context"
	"sync"
	"time"

	"github.com/Mstr-Creta/Document-Extractor/internal/document"
)

// RecordCacheTTL bounds how long a listed session is served from memory
const RecordCacheTTL = 5 * time.Minute

type cachedSession struct {
	records  []document.Record
	loadedAt time.Time
}

// CachedStore serves repeated List calls from memory. Writes go straight to
// the wrapped store and drop the cached session.
type CachedStore struct {
	store RecordStore
	ttl   time.Duration
	now   func() time.Time

	mu       sync.RWMutex
	sessions map[string]cachedSession
	// generations is bumped on every write so an in-flight List cannot
	// cache a list loaded before the write
	generations map[string]uint64
}

// NewCachedStore wraps store with a per-session list cache
func NewCachedStore(store RecordStore, ttl time.Duration) *CachedStore {
	return &CachedStore{
		store:    store,
		ttl:      ttl,
		now:      time.Now,
		sessions:    make(map[string]cachedSession),
		generations: make(map[string]uint64),
	}
}

func (c *CachedStore) Append(ctx context.Context, rec document.Record) error {
	if err := c.store.Append(ctx, rec); err != nil {
		return err
	}
	c.invalidate(rec.SessionID)
	return nil
}

// List retrieves records from cache or loads them from the wrapped store
func (c *CachedStore) List(ctx context.Context, sessionID string) ([]document.Record, error) {
	c.mu.RLock()
	cached, exists := c.sessions[sessionID]
	gen := c.generations[sessionID]
	c.mu.RUnlock()

	if exists && c.now().Sub(cached.loadedAt) < c.ttl {
		return copyRecords(cached.records), nil
	}

	records, err := c.store.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.generations[sessionID] == gen {
		c.sessions[sessionID] = cachedSession{records: copyRecords(records), loadedAt: c.now()}
	}
	c.mu.Unlock()

	return records, nil
}

func (c *CachedStore) Clear(ctx context.Context, sessionID string) error {
	if err := c.store.Clear(ctx, sessionID); err != nil {
		return err
	}
	c.invalidate(sessionID)
	return nil
}

func (c *CachedStore) Close(ctx context.Context) error {
	c.mu.Lock()
	c.sessions = make(map[string]cachedSession)
	for id := range c.generations {
		c.generations[id]++
	}
	c.mu.Unlock()
	return c.store.Close(ctx)
}

func (c *CachedStore) invalidate(sessionID string) {
	c.mu.Lock()
	delete(c.sessions, sessionID)
	c.generations[sessionID]++
	c.mu.Unlock()
}

func copyRecords(records []document.Record) []document.Record {
	out := make([]document.Record, len(records))
	for i, rec := range records {
		rec.Fields = rec.Fields.Clone()
		out[i] = rec
	}
	return out
}
