package handlers

import (
	"prediction-history-api/config"
	"prediction-history-api/middleware"
	"prediction-history-api/services"
	"prediction-history-api/web"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter wires middleware, templates and every route of the API server.
func NewRouter(cfg *config.Config, svc *services.PredictionService, bus *services.EventBus, logger *zap.Logger) (*gin.Engine, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.SetupCORS(cfg.CORS))
	router.SetHTMLTemplate(tmpl)

	NewPredictionHandler(svc, logger).RegisterRoutes(router)
	router.GET("/ws/live", LiveWebSocket(bus, logger))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router, nil
}
