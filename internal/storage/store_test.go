package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Mstr-Creta/Document-Extractor/internal/document"
	"go.mongodb.org/mongo-driver/bson"
)

func panRecord(session, file string, at time.Time) document.Record {
	docType, fields := document.Parse("INCOME TAX DEPARTMENT\nABCDE1234F\n01/02/1990")
	return document.NewRecord(session, file, at, docType, fields)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	start := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	if err := store.Append(ctx, panRecord("s1", "a.jpg", start)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Append(ctx, panRecord("s1", "b.jpg", start.Add(time.Second))); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Append(ctx, panRecord("s2", "c.jpg", start)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	records, err := store.List(ctx, "s1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 2 || records[0].FileName != "a.jpg" || records[1].FileName != "b.jpg" {
		t.Fatalf("unexpected records: %+v", records)
	}

	// mutating a listed record must not leak into the store
	records[0].Fields.Set(document.FieldIDNumber, document.Found("CHANGED"))
	again, _ := store.List(ctx, "s1")
	if v, _ := again[0].Fields.Get(document.FieldIDNumber); v.Value != "ABCDE1234F" {
		t.Errorf("stored record was mutated: %q", v.Value)
	}

	if err := store.Clear(ctx, "s1"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if records, _ := store.List(ctx, "s1"); len(records) != 0 {
		t.Errorf("expected empty session after Clear, got %d", len(records))
	}
	if records, _ := store.List(ctx, "s2"); len(records) != 1 {
		t.Errorf("Clear touched another session")
	}
}

func TestMemoryStore_SessionRequired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Append(ctx, panRecord("", "a.jpg", time.Now())); !errors.Is(err, ErrSessionRequired) {
		t.Errorf("Append() error = %v", err)
	}
	if _, err := store.List(ctx, ""); !errors.Is(err, ErrSessionRequired) {
		t.Errorf("List() error = %v", err)
	}
	if err := store.Clear(ctx, ""); !errors.Is(err, ErrSessionRequired) {
		t.Errorf("Clear() error = %v", err)
	}
}

type countingStore struct {
	*MemoryStore
	lists int
}

func (c *countingStore) List(ctx context.Context, sessionID string) ([]document.Record, error) {
	c.lists++
	return c.MemoryStore.List(ctx, sessionID)
}

func TestCachedStore(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{MemoryStore: NewMemoryStore()}
	cache := NewCachedStore(backing, time.Minute)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.Append(ctx, panRecord("s", "a.jpg", now))
	cache.List(ctx, "s")
	cache.List(ctx, "s")
	if backing.lists != 1 {
		t.Errorf("lists = %d, want 1 (second call cached)", backing.lists)
	}

	cache.Append(ctx, panRecord("s", "b.jpg", now))
	records, _ := cache.List(ctx, "s")
	if len(records) != 2 || backing.lists != 2 {
		t.Errorf("append did not invalidate: records=%d lists=%d", len(records), backing.lists)
	}

	now = now.Add(2 * time.Minute)
	cache.List(ctx, "s")
	if backing.lists != 3 {
		t.Errorf("expired entry was served: lists = %d", backing.lists)
	}

	cache.Clear(ctx, "s")
	if records, _ := cache.List(ctx, "s"); len(records) != 0 {
		t.Errorf("expected empty session after Clear")
	}
}

// pausingStore blocks inside List until release is closed
type pausingStore struct {
	*MemoryStore
	listing chan struct{}
	release chan struct{}
}

func (p *pausingStore) List(ctx context.Context, sessionID string) ([]document.Record, error) {
	records, err := p.MemoryStore.List(ctx, sessionID)
	close(p.listing)
	<-p.release
	return records, err
}

func TestCachedStore_AppendDuringList(t *testing.T) {
	ctx := context.Background()
	backing := &pausingStore{
		MemoryStore: NewMemoryStore(),
		listing:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	cache := NewCachedStore(backing, time.Minute)

	done := make(chan struct{})
	go func() {
		defer close(done)
		cache.List(ctx, "s")
	}()

	<-backing.listing
	if err := cache.Append(ctx, panRecord("s", "a.jpg", time.Now())); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	close(backing.release)
	<-done

	// the next List loads from the backing store again
	backing.listing = make(chan struct{})
	records, err := cache.List(ctx, "s")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("List after Append returned %d records, want 1", len(records))
	}
}

func TestRecordOrder(t *testing.T) {
	if len(recordOrder) != 2 || recordOrder[0].Key != "createdat" || recordOrder[1].Key != "_id" {
		t.Errorf("recordOrder = %v, want createdat then _id", recordOrder)
	}
	for _, e := range recordOrder {
		if e.Value != 1 {
			t.Errorf("%s sorts %v, want ascending", e.Key, e.Value)
		}
	}
}

func TestFieldsBSONRoundTrip(t *testing.T) {
	_, fields := document.Parse("INCOME TAX DEPARTMENT\nunreadable")

	d := fieldsToBSON(fields)
	if len(d) != 3 || d[0].Key != document.FieldIDNumber || d[0].Value != nil {
		t.Fatalf("unexpected bson: %v", d)
	}

	raw, err := bson.Marshal(bson.D{{Key: "fields", Value: d}})
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Fields bson.D `bson:"fields"`
	}
	if err := bson.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}

	back := fieldsFromBSON(decoded.Fields)
	if got, want := back.Keys(), fields.Keys(); len(got) != len(want) || got[0] != want[0] || got[2] != want[2] {
		t.Errorf("keys = %v, want %v", got, want)
	}
	if v, ok := back.Get(document.FieldName); !ok || v.Value != document.ManualCheckNeeded {
		t.Errorf("Name = %+v, want %q", v, document.ManualCheckNeeded)
	}
	if v, _ := back.Get(document.FieldDOB); v.Found {
		t.Errorf("DOB = %+v, want absent", v)
	}
}
