package store

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"prediction-history-api/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLStore keeps records in a relational table keyed by (partition_key, row_key).
type SQLStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewPostgresStore(dsn string, log *zap.Logger) (*SQLStore, error) {
	if dsn == "" {
		return nil, ErrConfigurationMissing
	}
	return openSQL(postgres.Open(dsn), log)
}

func NewSQLiteStore(path string, log *zap.Logger) (*SQLStore, error) {
	if path == "" {
		return nil, ErrConfigurationMissing
	}
	return openSQL(sqlite.Open(path), log)
}

func openSQL(dialector gorm.Dialector, log *zap.Logger) (*SQLStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &SQLStore{db: db, logger: log}, nil
}

func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&models.PredictionRecord{}); err != nil {
		return transient("migrate", err)
	}
	s.logger.Debug("Predictions table ready")
	return nil
}

func (s *SQLStore) Append(ctx context.Context, rec models.PredictionRecord) error {
	err := s.db.WithContext(ctx).Create(&rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return duplicate(rec.Partition, rec.ID)
	}
	if err != nil {
		return transient("insert", err)
	}
	return nil
}

func (s *SQLStore) ListByPartition(ctx context.Context, partition string) iter.Seq2[models.PredictionRecord, error] {
	return func(yield func(models.PredictionRecord, error) bool) {
		tx := s.db.WithContext(ctx).Model(&models.PredictionRecord{}).Where("partition_key = ?", partition)
		rows, err := tx.Rows()
		if err != nil {
			yield(models.PredictionRecord{}, transient("query", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var rec models.PredictionRecord
			if err := s.db.ScanRows(rows, &rec); err != nil {
				s.logger.Error("Failed to scan prediction", zap.Error(err))
				continue
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.PredictionRecord{}, transient("query", err))
		}
	}
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
