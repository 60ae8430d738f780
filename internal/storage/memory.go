// memory.go - In-process record store

package storage

import (
	"context"
	"sync"

	"github.com/Mstr-Creta/Document-Extractor/internal/document"
)

// MemoryStore keeps records per session in a map. Records are copied on the
// way in and out so callers never share field maps with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]document.Record
}

// NewMemoryStore returns an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]document.Record)}
}

func (s *MemoryStore) Append(ctx context.Context, rec document.Record) error {
	if rec.SessionID == "" {
		return ErrSessionRequired
	}
	rec.Fields = rec.Fields.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[rec.SessionID] = append(s.sessions[rec.SessionID], rec)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, sessionID string) ([]document.Record, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyRecords(s.sessions[sessionID]), nil
}

func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrSessionRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
