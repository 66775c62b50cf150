package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prediction-history-api/config"
	"prediction-history-api/logging"
	"prediction-history-api/models"
	"prediction-history-api/services"
	"prediction-history-api/store"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// InputPayload is the MQTT message body.
type InputPayload struct {
	InputData *string `json:"input_data"`
}

var (
	msgsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prediction_collector_messages_received_total",
		Help: "Total number of MQTT messages received by the collector.",
	})
	msgsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prediction_collector_messages_failed_total",
		Help: "Total number of MQTT messages rejected or failed to store.",
	})
)

type recorder interface {
	RecordPrediction(ctx context.Context, input string) (models.PredictionRecord, error)
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Mode)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Ingest without a store would drop every message, so the store is always required here.
	recordStore, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatal("Failed to open record store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	if closer, ok := recordStore.(io.Closer); ok {
		defer closer.Close()
	}

	bus, err := services.NewEventBus(cfg.Redis.URL, logger)
	if err != nil {
		logger.Warn("Live feed disabled", zap.Error(err))
	}
	defer bus.Close()

	svc := services.NewPredictionService(recordStore, logger, services.WithPublisher(bus))

	go serveHTTP(cfg.MQTT.MetricsAddr, logger)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTT.URL)
	opts.SetClientID("prediction-collector-" + time.Now().Format("20060102150405"))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetDefaultPublishHandler(func(client mqtt.Client, message mqtt.Message) {
		processMessage(ctx, svc, logger, message.Payload())
	})
	opts.OnConnect = func(client mqtt.Client) {
		token := client.Subscribe(cfg.MQTT.Topic, 1, nil)
		token.Wait()
		if token.Error() != nil {
			logger.Error("MQTT subscribe failed", zap.Error(token.Error()))
			return
		}
		logger.Info("Collector subscribed", zap.String("topic", cfg.MQTT.Topic))
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", zap.Error(err))
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if token.Error() != nil {
		logger.Fatal("MQTT connection failed", zap.Error(token.Error()))
	}

	logger.Info("Collector running",
		zap.String("mqtt", cfg.MQTT.URL),
		zap.String("metrics", cfg.MQTT.MetricsAddr))

	<-ctx.Done()
	logger.Info("Collector shutting down")
	client.Disconnect(250)
}

func serveHTTP(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("Metrics server listening", zap.String("address", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Metrics server failed", zap.Error(err))
	}
}

func decodePayload(raw []byte) (string, error) {
	var payload InputPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("invalid payload: %w", err)
	}
	if payload.InputData == nil {
		return "", errors.New("missing input_data")
	}
	return *payload.InputData, nil
}

func processMessage(ctx context.Context, svc recorder, logger *zap.Logger, raw []byte) bool {
	msgsReceived.Inc()

	input, err := decodePayload(raw)
	if err != nil {
		msgsFailed.Inc()
		logger.Warn("Dropping message", zap.Error(err))
		return false
	}

	if _, err := svc.RecordPrediction(ctx, input); err != nil {
		msgsFailed.Inc()
		logger.Error("Failed to record prediction", zap.Error(err))
		return false
	}
	return true
}
