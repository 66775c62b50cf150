package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"prediction-history-api/metrics"
	"prediction-history-api/models"
	"prediction-history-api/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const PredictionPrefix = "RESULT_"

// Predictor turns an input into a prediction. It is the swap point for a real model.
type Predictor interface {
	Predict(input string) string
}

// UppercasePredictor is the placeholder model.
type UppercasePredictor struct{}

func (UppercasePredictor) Predict(input string) string {
	return PredictionPrefix + strings.ToUpper(input)
}

// IDGenerator returns the row id for a new record.
type IDGenerator func() string

func UUIDGenerator() string { return uuid.NewString() }

// FixedIDGenerator reuses one id for every record, so every insert after the
// first collides. Kept for regression tests only.
func FixedIDGenerator(id string) IDGenerator {
	return func() string { return id }
}

// Publisher receives records after they are stored.
type Publisher interface {
	PublishPrediction(ctx context.Context, rec models.PredictionRecord) error
}

type PredictionService struct {
	store     store.RecordStore
	predictor Predictor
	publisher Publisher
	newID     IDGenerator
	now       func() time.Time
	logger    *zap.Logger
}

type Option func(*PredictionService)

func WithPredictor(p Predictor) Option {
	return func(s *PredictionService) { s.predictor = p }
}

func WithPublisher(p Publisher) Option {
	return func(s *PredictionService) { s.publisher = p }
}

func WithIDGenerator(g IDGenerator) Option {
	return func(s *PredictionService) { s.newID = g }
}

func WithClock(now func() time.Time) Option {
	return func(s *PredictionService) { s.now = now }
}

func NewPredictionService(st store.RecordStore, logger *zap.Logger, opts ...Option) *PredictionService {
	s := &PredictionService{
		store:     st,
		predictor: UppercasePredictor{},
		newID:     UUIDGenerator,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PredictionService) Predict(input string) string {
	return s.predictor.Predict(input)
}

// StorageAvailable reports whether the service is backed by a configured store.
func (s *PredictionService) StorageAvailable() bool {
	return store.IsAvailable(s.store)
}

// RecordPrediction predicts, stores the record and returns it.
func (s *PredictionService) RecordPrediction(ctx context.Context, input string) (models.PredictionRecord, error) {
	rec := models.PredictionRecord{
		Partition:      models.DefaultPartition,
		ID:             s.newID(),
		InputText:      input,
		PredictionText: s.Predict(input),
		CreatedAt:      s.now().UTC(),
	}

	if err := s.store.Append(ctx, rec); err != nil {
		metrics.StoreErrors.WithLabelValues("append").Inc()
		return models.PredictionRecord{}, fmt.Errorf("failed to store prediction: %w", err)
	}
	metrics.PredictionsRecorded.Inc()

	s.logger.Info("Prediction stored",
		zap.String("id", rec.ID),
		zap.String("prediction", rec.PredictionText))

	if s.publisher != nil {
		if err := s.publisher.PublishPrediction(ctx, rec); err != nil {
			s.logger.Warn("Failed to publish prediction", zap.String("id", rec.ID), zap.Error(err))
		}
	}

	return rec, nil
}

// FetchHistory lists every record in the default partition. The result is
// never nil.
func (s *PredictionService) FetchHistory(ctx context.Context) ([]models.PredictionRecord, error) {
	history := []models.PredictionRecord{}
	for rec, err := range s.store.ListByPartition(ctx, models.DefaultPartition) {
		if err != nil {
			metrics.StoreErrors.WithLabelValues("list").Inc()
			return nil, fmt.Errorf("failed to list predictions: %w", err)
		}
		history = append(history, rec)
	}
	metrics.HistoryReads.Inc()
	return history, nil
}

// HistoryEntries reshapes records for presentation.
func HistoryEntries(records []models.PredictionRecord) []models.HistoryEntry {
	entries := make([]models.HistoryEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, rec.Entry())
	}
	return entries
}
