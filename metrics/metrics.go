package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PredictionsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prediction_api_predictions_recorded_total",
		Help: "Total number of predictions stored.",
	})
	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prediction_api_store_errors_total",
		Help: "Total number of failed store operations.",
	}, []string{"op"})
	HistoryReads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prediction_api_history_reads_total",
		Help: "Total number of history listings served.",
	})
	EventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prediction_api_events_published_total",
		Help: "Total number of predictions published to the live feed.",
	})
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prediction_api_http_request_duration_seconds",
		Help:    "Duration of HTTP requests.",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.5},
	}, []string{"method", "route", "status"})
)
