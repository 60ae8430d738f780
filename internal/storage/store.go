// store.go - Session-scoped record history

package storage

import (
	"context"
	"errors"
	"log"

	"github.com/Mstr-Creta/Document-Extractor/configs"
	"github.com/Mstr-Creta/Document-Extractor/internal/document"
)

// ErrSessionRequired is returned when a record or query has no session ID.
var ErrSessionRequired = errors.New("session id is required")

// RecordStore keeps the records produced during a session, oldest first.
type RecordStore interface {
	Append(ctx context.Context, rec document.Record) error
	List(ctx context.Context, sessionID string) ([]document.Record, error)
	Clear(ctx context.Context, sessionID string) error
	Close(ctx context.Context) error
}

// NewRecordStore connects to MongoDB when MONGO_URI is configured and
// otherwise keeps records in memory for the life of the process.
func NewRecordStore(ctx context.Context) (RecordStore, error) {
	if configs.MONGO_URI == "" {
		log.Println("📦 MONGO_URI not set, keeping records in memory")
		return NewMemoryStore(), nil
	}

	store, err := NewMongoStore(ctx, configs.MONGO_URI, configs.MONGO_DB_NAME, configs.MONGO_COLLECTION)
	if err != nil {
		return nil, err
	}
	return NewCachedStore(store, RecordCacheTTL), nil
}
