package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"prediction-history-api/config"
	"prediction-history-api/services"
	"prediction-history-api/store"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestOpenStoreDegraded(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.StoreConfig
	}{
		{"missing azure connection string", config.StoreConfig{Backend: config.BackendAzure, TableName: "modelpredictions"}},
		{"missing postgres dsn", config.StoreConfig{Backend: config.BackendPostgres}},
		{"sqlite file cannot be created", config.StoreConfig{
			Backend:    config.BackendSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "missing", "dir", "predictions.db"),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := openStore(ctx, tt.cfg, zap.NewNop())
			if store.IsAvailable(s) {
				t.Fatalf("openStore() = %T, want store.Unavailable", s)
			}

			svc := services.NewPredictionService(s, zap.NewNop())
			if svc.StorageAvailable() {
				t.Error("StorageAvailable() should be false")
			}
			if _, err := svc.RecordPrediction(ctx, "hello"); !errors.Is(err, store.ErrStoreUnavailable) {
				t.Errorf("RecordPrediction = %v, want ErrStoreUnavailable", err)
			}
			if _, err := svc.FetchHistory(ctx); !errors.Is(err, store.ErrStoreUnavailable) {
				t.Errorf("FetchHistory = %v, want ErrStoreUnavailable", err)
			}
		})
	}
}

func TestOpenStoreAvailable(t *testing.T) {
	s := openStore(context.Background(), config.StoreConfig{Backend: config.BackendMemory}, zap.NewNop())
	if !store.IsAvailable(s) {
		t.Fatalf("openStore() = %T, want an available store", s)
	}
}

func TestOpenStoreRequiredIsFatal(t *testing.T) {
	logger := zap.NewNop().WithOptions(zap.WithFatalHook(zapcore.WriteThenPanic))
	cfg := config.StoreConfig{Backend: config.BackendAzure, Required: true}

	defer func() {
		if recover() == nil {
			t.Error("openStore should abort when the store is required")
		}
	}()
	openStore(context.Background(), cfg, logger)
}
