package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"prediction-history-api/metrics"
	"prediction-history-api/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	LiveChannel  = "predictions:live"
	pingAttempts = 3
)

// EventBus fans stored predictions out over Redis pub/sub. A bus without a
// client is valid and drops every event.
type EventBus struct {
	client *redis.Client
	logger *zap.Logger
}

func NewEventBus(redisURL string, logger *zap.Logger) (*EventBus, error) {
	if redisURL == "" {
		return &EventBus{logger: logger}, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return &EventBus{logger: logger}, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	err = retry(pingAttempts, time.Second, time.Sleep, func(attempt int) error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis ping failed", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		_ = client.Close()
		return &EventBus{logger: logger}, fmt.Errorf("redis ping failed after %d attempts: %w", pingAttempts, err)
	}

	logger.Info("Redis connected", zap.String("addr", opts.Addr))
	return &EventBus{client: client, logger: logger}, nil
}

// retry calls fn up to attempts times and sleeps only between attempts.
func retry(attempts int, delay time.Duration, sleep func(time.Duration), fn func(attempt int) error) error {
	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(i); err == nil {
			return nil
		}
		if i < attempts {
			sleep(delay)
		}
	}
	return err
}

func (b *EventBus) Available() bool {
	return b != nil && b.client != nil
}

func (b *EventBus) PublishPrediction(ctx context.Context, rec models.PredictionRecord) error {
	if !b.Available() {
		return nil
	}
	data, err := json.Marshal(rec.Entry())
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, LiveChannel, data).Err(); err != nil {
		return err
	}
	metrics.EventsPublished.Inc()
	return nil
}

func (b *EventBus) Subscribe(ctx context.Context) *redis.PubSub {
	if !b.Available() {
		return nil
	}
	return b.client.Subscribe(ctx, LiveChannel)
}

func (b *EventBus) Close() error {
	if !b.Available() {
		return nil
	}
	return b.client.Close()
}
