// Package store persists assignment run records.
//
// A run record captures everything needed to audit or replay one assignment:
// the graph hash, the full configuration, the resulting table, and timing.
// The API server saves a record per request; the CLI does not use this
// package.
//
// Two implementations are provided: [MongoStore] for deployments and
// [MemoryStore] for tests and single-process setups.
package store

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/covtools/edgemark/pkg/assign"
	"github.com/covtools/edgemark/pkg/emit"
)

// ErrNotFound is returned when a run record does not exist.
var ErrNotFound = errors.New("run not found")

// RunRecord is one persisted assignment run.
type RunRecord struct {
	ID        string        `json:"id" bson:"_id"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
	GraphHash string        `json:"graph_hash" bson:"graph_hash"`
	Config    assign.Config `json:"config" bson:"config"`
	Table     emit.Table    `json:"table" bson:"table"`
	Stats     assign.Stats  `json:"stats" bson:"stats"`
	Duration  time.Duration `json:"duration_ns" bson:"duration_ns"`
}

// NewRunRecord builds a record with a fresh UUID and the current time.
func NewRunRecord(graphHash string, cfg assign.Config, table *assign.Table, duration time.Duration) *RunRecord {
	return &RunRecord{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		GraphHash: graphHash,
		Config:    cfg,
		Table:     emit.FromTable(table),
		Stats:     table.Stats,
		Duration:  duration,
	}
}

// Store is the interface for run record persistence.
type Store interface {
	// Save persists a record.
	Save(ctx context.Context, rec *RunRecord) error

	// Get retrieves a record by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*RunRecord, error)

	// List returns up to limit records, newest first.
	List(ctx context.Context, limit int) ([]*RunRecord, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// MemoryStore keeps run records in process memory. Records are lost on
// restart; use MongoStore for anything durable.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[string]*RunRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]*RunRecord)}
}

// Save persists a record.
func (s *MemoryStore) Save(ctx context.Context, rec *RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.recs[rec.ID] = &cp
	return nil
}

// Get retrieves a record by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// List returns up to limit records, newest first.
func (s *MemoryStore) List(ctx context.Context, limit int) ([]*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]*RunRecord, 0, len(s.recs))
	for _, rec := range s.recs {
		cp := *rec
		recs = append(recs, &cp)
	}
	slices.SortFunc(recs, func(a, b *RunRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// Close does nothing for the in-memory store.
func (s *MemoryStore) Close(ctx context.Context) error { return nil }

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
