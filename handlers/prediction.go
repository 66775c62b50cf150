package handlers

import (
	"errors"
	"net/http"

	"prediction-history-api/models"
	"prediction-history-api/services"
	"prediction-history-api/store"
	"prediction-history-api/web"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const welcomeMessage = "Welcome to Model API! Use /predict and /history"

type PredictionHandler struct {
	svc    *services.PredictionService
	logger *zap.Logger
}

func NewPredictionHandler(svc *services.PredictionService, logger *zap.Logger) *PredictionHandler {
	return &PredictionHandler{svc: svc, logger: logger}
}

func (h *PredictionHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Home)
	r.POST("/predict", h.Predict)
	r.GET("/history", h.History)

	api := r.Group("/api")
	{
		api.POST("/predict", h.APIPredict)
		api.GET("/history", h.APIHistory)
	}

	r.GET("/health", h.Health)
}

func (h *PredictionHandler) Home(c *gin.Context) {
	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"message": welcomeMessage})
		return
	}
	c.HTML(http.StatusOK, web.PageIndex, page("Model API", gin.H{}))
}

// Predict serves both the HTML form post and JSON clients.
func (h *PredictionHandler) Predict(c *gin.Context) {
	if c.ContentType() == gin.MIMEJSON {
		h.APIPredict(c)
		return
	}

	var req models.PredictRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, web.PageIndex, page("Model API", gin.H{
			"Error": "input_data is required",
		}))
		return
	}

	rec, err := h.svc.RecordPrediction(c.Request.Context(), *req.InputData)
	if err != nil {
		status, msg := storeErrorStatus(err)
		h.logger.Error("Failed to record prediction", zap.Error(err))
		c.HTML(status, web.PageError, page("Prediction failed", gin.H{
			"Error": msg,
			"Input": *req.InputData,
		}))
		return
	}

	c.HTML(http.StatusOK, web.PageResult, page("Prediction", gin.H{
		"Record": rec,
		"Entry":  rec.Entry(),
		"Input":  rec.InputText,
	}))
}

func (h *PredictionHandler) History(c *gin.Context) {
	if wantsJSON(c) {
		h.APIHistory(c)
		return
	}

	records, err := h.svc.FetchHistory(c.Request.Context())
	if err != nil {
		status, msg := storeErrorStatus(err)
		h.logger.Error("Failed to fetch history", zap.Error(err))
		c.HTML(status, web.PageError, page("History unavailable", gin.H{"Error": msg}))
		return
	}

	c.HTML(http.StatusOK, web.PageHistory, page("Prediction history", gin.H{
		"History": services.HistoryEntries(records),
	}))
}

func (h *PredictionHandler) APIPredict(c *gin.Context) {
	var req models.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
		return
	}

	rec, err := h.svc.RecordPrediction(c.Request.Context(), *req.InputData)
	if err != nil {
		status, msg := storeErrorStatus(err)
		h.logger.Error("Failed to record prediction", zap.Error(err))
		c.JSON(status, gin.H{"status": "error", "error": msg})
		return
	}

	c.JSON(http.StatusOK, models.PredictResponse{Status: "stored", Prediction: rec.PredictionText})
}

func (h *PredictionHandler) APIHistory(c *gin.Context) {
	records, err := h.svc.FetchHistory(c.Request.Context())
	if err != nil {
		status, msg := storeErrorStatus(err)
		h.logger.Error("Failed to fetch history", zap.Error(err))
		c.JSON(status, gin.H{"status": "error", "error": msg})
		return
	}

	c.JSON(http.StatusOK, models.HistoryResponse{History: services.HistoryEntries(records)})
}

func (h *PredictionHandler) Health(c *gin.Context) {
	storage := "available"
	if !h.svc.StorageAvailable() {
		storage = "unavailable"
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP", "storage": storage})
}

func storeErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "storage unavailable"
	case errors.Is(err, store.ErrDuplicateKey):
		return http.StatusConflict, "prediction already stored"
	default:
		return http.StatusBadGateway, "storage request failed"
	}
}

func wantsJSON(c *gin.Context) bool {
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}

// page fills the keys every template reads.
func page(title string, data gin.H) gin.H {
	data["Title"] = title
	if _, ok := data["Input"]; !ok {
		data["Input"] = ""
	}
	if _, ok := data["Error"]; !ok {
		data["Error"] = ""
	}
	return data
}
