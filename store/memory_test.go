package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"prediction-history-api/models"
)

func newRecord(id, input string) models.PredictionRecord {
	return models.PredictionRecord{
		Partition:      models.DefaultPartition,
		ID:             id,
		InputText:      input,
		PredictionText: "RESULT_" + input,
		CreatedAt:      time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
	}
}

func collect(t *testing.T, s RecordStore, partition string) []models.PredictionRecord {
	t.Helper()
	var out []models.PredictionRecord
	for rec, err := range s.ListByPartition(context.Background(), partition) {
		if err != nil {
			t.Fatalf("ListByPartition error: %v", err)
		}
		out = append(out, rec)
	}
	return out
}

func TestMemoryStoreAppendAndList(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("second EnsureSchema failed: %v", err)
	}

	if got := collect(t, s, models.DefaultPartition); len(got) != 0 {
		t.Fatalf("empty store returned %d records", len(got))
	}

	for _, id := range []string{"a", "b", "c"} {
		if err := s.Append(ctx, newRecord(id, "in-"+id)); err != nil {
			t.Fatalf("Append(%s) failed: %v", id, err)
		}
	}

	got := collect(t, s, models.DefaultPartition)
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	if other := collect(t, s, "Other"); len(other) != 0 {
		t.Errorf("other partition returned %d records, want 0", len(other))
	}
}

func TestMemoryStoreDuplicateKey(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Append(ctx, newRecord("1", "first")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	err := s.Append(ctx, newRecord("1", "second"))
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("Append duplicate = %v, want ErrDuplicateKey", err)
	}

	got := collect(t, s, models.DefaultPartition)
	if len(got) != 1 || got[0].InputText != "first" {
		t.Errorf("stored records = %+v, want only the first", got)
	}
}

func TestMemoryStoreListIsRestartable(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seq := s.ListByPartition(ctx, models.DefaultPartition)

	_ = s.Append(ctx, newRecord("a", "x"))

	count := 0
	for _, err := range seq {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		count++
	}
	if count != 1 {
		t.Errorf("first range saw %d records, want 1", count)
	}

	_ = s.Append(ctx, newRecord("b", "y"))

	count = 0
	for range seq {
		count++
	}
	if count != 2 {
		t.Errorf("second range saw %d records, want 2", count)
	}
}

func TestMemoryStoreEarlyBreak(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_ = s.Append(ctx, newRecord(fmt.Sprintf("id-%d", i), "x"))
	}

	seen := 0
	for range s.ListByPartition(ctx, models.DefaultPartition) {
		seen++
		break
	}
	if seen != 1 {
		t.Errorf("seen = %d, want 1", seen)
	}

	// Lock must have been released by the abandoned range.
	if err := s.Append(ctx, newRecord("after", "x")); err != nil {
		t.Fatalf("Append after break failed: %v", err)
	}
}

func TestMemoryStoreConcurrentAppend(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := s.Append(ctx, newRecord(fmt.Sprintf("id-%d", i), "x")); err != nil {
				t.Errorf("Append failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if got := collect(t, s, models.DefaultPartition); len(got) != 50 {
		t.Errorf("got %d records, want 50", len(got))
	}
}

func TestMemoryStoreCanceledContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var transientErr *TransientError
	if err := s.Append(ctx, newRecord("a", "x")); !errors.As(err, &transientErr) {
		t.Errorf("Append with canceled context = %v, want *TransientError", err)
	}
	for _, err := range s.ListByPartition(ctx, models.DefaultPartition) {
		if !errors.Is(err, context.Canceled) {
			t.Errorf("ListByPartition error = %v, want context.Canceled", err)
		}
	}
}

func TestUnavailable(t *testing.T) {
	var s RecordStore = Unavailable{}
	ctx := context.Background()

	if err := s.EnsureSchema(ctx); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("EnsureSchema = %v, want ErrStoreUnavailable", err)
	}
	if err := s.Append(ctx, newRecord("a", "x")); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Append = %v, want ErrStoreUnavailable", err)
	}

	calls := 0
	for _, err := range s.ListByPartition(ctx, models.DefaultPartition) {
		calls++
		if !errors.Is(err, ErrStoreUnavailable) {
			t.Errorf("ListByPartition = %v, want ErrStoreUnavailable", err)
		}
	}
	if calls != 1 {
		t.Errorf("ListByPartition yielded %d times, want 1", calls)
	}
}

func TestIsAvailable(t *testing.T) {
	tests := []struct {
		name  string
		store RecordStore
		want  bool
	}{
		{"nil", nil, false},
		{"unavailable", Unavailable{}, false},
		{"unavailable pointer", &Unavailable{}, false},
		{"memory", NewMemoryStore(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAvailable(tt.store); got != tt.want {
				t.Errorf("IsAvailable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransientErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := transient("list", cause)

	if !errors.Is(err, cause) {
		t.Error("TransientError should unwrap to its cause")
	}
	want := "store: list failed: connection reset"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
