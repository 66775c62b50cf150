package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prediction-history-api/config"
	"prediction-history-api/handlers"
	"prediction-history-api/logging"
	"prediction-history-api/services"
	"prediction-history-api/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

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

	recordStore := openStore(ctx, cfg.Store, logger)
	if closer, ok := recordStore.(io.Closer); ok {
		defer closer.Close()
	}

	bus, err := services.NewEventBus(cfg.Redis.URL, logger)
	if err != nil {
		logger.Warn("Live feed disabled", zap.Error(err))
	}
	defer bus.Close()

	svc := services.NewPredictionService(recordStore, logger, services.WithPublisher(bus))

	gin.SetMode(gin.ReleaseMode)
	router, err := handlers.NewRouter(cfg, svc, bus, logger)
	if err != nil {
		logger.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Prediction API is running",
		zap.String("address", srv.Addr),
		zap.String("store_backend", cfg.Store.Backend),
		zap.Bool("storage_available", svc.StorageAvailable()),
		zap.Bool("live_feed", bus.Available()))

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// openStore applies the startup policy: with STORE_REQUIRED a store that cannot
// be opened is fatal, otherwise the service runs with storage unavailable.
func openStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) store.RecordStore {
	s, err := store.Open(ctx, cfg, logger)
	if err == nil {
		return s
	}
	if cfg.Required {
		logger.Fatal("Failed to open record store", zap.String("backend", cfg.Backend), zap.Error(err))
	}
	logger.Warn("Record store unavailable, continuing in degraded mode",
		zap.String("backend", cfg.Backend),
		zap.Error(err))
	return store.Unavailable{}
}
