package store

import (
	"context"
	"iter"

	"prediction-history-api/models"
)

// RecordStore is the boundary between the prediction service and the table store.
//
// ListByPartition is lazy: nothing is fetched until the sequence is ranged over,
// and every range issues a fresh query. Order is not guaranteed.
type RecordStore interface {
	EnsureSchema(ctx context.Context) error
	Append(ctx context.Context, rec models.PredictionRecord) error
	ListByPartition(ctx context.Context, partition string) iter.Seq2[models.PredictionRecord, error]
}

// Unavailable is the degraded adapter installed when no credential is configured.
type Unavailable struct{}

func (Unavailable) EnsureSchema(context.Context) error { return ErrStoreUnavailable }

func (Unavailable) Append(context.Context, models.PredictionRecord) error {
	return ErrStoreUnavailable
}

func (Unavailable) ListByPartition(context.Context, string) iter.Seq2[models.PredictionRecord, error] {
	return func(yield func(models.PredictionRecord, error) bool) {
		yield(models.PredictionRecord{}, ErrStoreUnavailable)
	}
}

// IsAvailable reports whether s is backed by a real store.
func IsAvailable(s RecordStore) bool {
	switch s.(type) {
	case nil, Unavailable, *Unavailable:
		return false
	}
	return true
}
