package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"prediction-history-api/models"

	"go.uber.org/zap"
)

func newTestSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "predictions.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	return s
}

func TestSQLStoreMissingCredential(t *testing.T) {
	if _, err := NewSQLiteStore("", zap.NewNop()); !errors.Is(err, ErrConfigurationMissing) {
		t.Errorf("NewSQLiteStore(\"\") = %v, want ErrConfigurationMissing", err)
	}
	if _, err := NewPostgresStore("", zap.NewNop()); !errors.Is(err, ErrConfigurationMissing) {
		t.Errorf("NewPostgresStore(\"\") = %v, want ErrConfigurationMissing", err)
	}
}

func TestSQLStoreEnsureSchemaTwice(t *testing.T) {
	s := newTestSQLiteStore(t)
	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("second EnsureSchema failed: %v", err)
	}
}

func TestSQLStoreAppendAndList(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	if got := collect(t, s, models.DefaultPartition); len(got) != 0 {
		t.Fatalf("empty table returned %d records", len(got))
	}

	if err := s.Append(ctx, newRecord("a", "hello")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := s.Append(ctx, newRecord("b", "world")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	other := newRecord("c", "elsewhere")
	other.Partition = "Other"
	if err := s.Append(ctx, other); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got := collect(t, s, models.DefaultPartition)
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	for _, rec := range got {
		if rec.Partition != models.DefaultPartition {
			t.Errorf("Partition = %q, want %q", rec.Partition, models.DefaultPartition)
		}
		if rec.ID == "a" {
			if rec.InputText != "hello" || rec.PredictionText != "RESULT_hello" {
				t.Errorf("unexpected record: %+v", rec)
			}
			want := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
			if !rec.CreatedAt.Equal(want) {
				t.Errorf("CreatedAt = %v, want %v", rec.CreatedAt, want)
			}
		}
	}
}

func TestSQLStoreDuplicateKey(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := s.Append(ctx, newRecord("1", "first")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := s.Append(ctx, newRecord("1", "second")); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("second Append = %v, want ErrDuplicateKey", err)
	}

	got := collect(t, s, models.DefaultPartition)
	if len(got) != 1 || got[0].InputText != "first" {
		t.Errorf("records = %+v, want only the first", got)
	}
}

func TestSQLStoreSameIDDifferentPartition(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := newRecord("1", "x")
	if err := s.Append(ctx, rec); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	rec.Partition = "Other"
	if err := s.Append(ctx, rec); err != nil {
		t.Errorf("same id in another partition should not collide: %v", err)
	}
}
