package models

// PredictRequest accepts both JSON bodies and form posts. The pointer keeps
// an empty string valid while still rejecting a missing field.
type PredictRequest struct {
	InputData *string `json:"input_data" form:"input_data" binding:"required"`
}

type PredictResponse struct {
	Status     string `json:"status"`
	Prediction string `json:"prediction"`
}

type HistoryResponse struct {
	History []HistoryEntry `json:"history"`
}
