// Package history records answered questions. The store is an interface
// because durable persistence lives outside this service; the in-memory
// implementation backs tests and single-process deployments.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rickey-cpu/AIQuery/pkg/models"
)

// Store is an append-only sink for answered questions.
type Store interface {
	// Append records one answered question. Failures are the caller's to
	// log; history must never fail a query.
	Append(ctx context.Context, record models.HistoryRecord) error

	// Recent returns up to limit records for an agent, newest first.
	Recent(ctx context.Context, agentID uuid.UUID, limit int) ([]models.HistoryRecord, error)
}

// MemoryStore keeps history in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records []models.HistoryRecord
}

// NewMemoryStore creates an empty in-memory history store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append implements Store.
func (s *MemoryStore) Append(_ context.Context, record models.HistoryRecord) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// Recent implements Store.
func (s *MemoryStore) Recent(_ context.Context, agentID uuid.UUID, limit int) ([]models.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.HistoryRecord
	for i := len(s.records) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if s.records[i].AgentID == agentID.String() {
			out = append(out, s.records[i])
		}
	}
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
