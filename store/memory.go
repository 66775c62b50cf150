package store

import (
	"context"
	"iter"
	"sync"

	"prediction-history-api/models"
)

// MemoryStore keeps records in process memory. Safe for concurrent use.
type MemoryStore struct {
	mu         sync.RWMutex
	partitions map[string]map[string]models.PredictionRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{partitions: make(map[string]map[string]models.PredictionRecord)}
}

func (s *MemoryStore) EnsureSchema(context.Context) error { return nil }

func (s *MemoryStore) Append(ctx context.Context, rec models.PredictionRecord) error {
	if err := ctx.Err(); err != nil {
		return transient("append", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, ok := s.partitions[rec.Partition]
	if !ok {
		rows = make(map[string]models.PredictionRecord)
		s.partitions[rec.Partition] = rows
	}
	if _, exists := rows[rec.ID]; exists {
		return duplicate(rec.Partition, rec.ID)
	}
	rows[rec.ID] = rec
	return nil
}

func (s *MemoryStore) ListByPartition(ctx context.Context, partition string) iter.Seq2[models.PredictionRecord, error] {
	return func(yield func(models.PredictionRecord, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(models.PredictionRecord{}, transient("list", err))
			return
		}

		// Snapshot under the lock so yield never runs while holding it.
		s.mu.RLock()
		snapshot := make([]models.PredictionRecord, 0, len(s.partitions[partition]))
		for _, rec := range s.partitions[partition] {
			snapshot = append(snapshot, rec)
		}
		s.mu.RUnlock()

		for _, rec := range snapshot {
			if !yield(rec, nil) {
				return
			}
		}
	}
}
