package store

import (
	"context"
	"fmt"
	"io"

	"prediction-history-api/config"

	"go.uber.org/zap"
)

// Open builds the backend named by cfg.Backend and ensures its table exists.
// A missing credential yields ErrConfigurationMissing before any network call.
func Open(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (RecordStore, error) {
	var (
		s   RecordStore
		err error
	)

	switch cfg.Backend {
	case config.BackendAzure:
		s, err = NewTableStore(cfg.ConnectionString, cfg.TableName, logger)
	case config.BackendPostgres:
		s, err = NewPostgresStore(cfg.DSN, logger)
	case config.BackendSQLite:
		s, err = NewSQLiteStore(cfg.SQLitePath, logger)
	case config.BackendMemory:
		s = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if err := s.EnsureSchema(ctx); err != nil {
		if closer, ok := s.(io.Closer); ok {
			_ = closer.Close()
		}
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	logger.Info("Record store initialized", zap.String("backend", cfg.Backend))
	return s, nil
}
