package models

import "time"

// DefaultPartition groups every record under one logical bucket.
const DefaultPartition = "Predictions"

const timestampLayout = "2006-01-02 15:04:05"

type PredictionRecord struct {
	Partition      string    `gorm:"column:partition_key;primaryKey" json:"partition"`
	ID             string    `gorm:"column:row_key;primaryKey" json:"id"`
	InputText      string    `gorm:"column:input_data" json:"input_text"`
	PredictionText string    `gorm:"column:prediction" json:"prediction_text"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime:false" json:"created_at"`
}

func (PredictionRecord) TableName() string { return "predictions" }

// HistoryEntry is the presentation shape served by the history endpoints.
type HistoryEntry struct {
	InputData  string `json:"InputData"`
	Prediction string `json:"Prediction"`
	Timestamp  string `json:"Timestamp"`
}

func (r PredictionRecord) Entry() HistoryEntry {
	e := HistoryEntry{InputData: r.InputText, Prediction: r.PredictionText}
	if !r.CreatedAt.IsZero() {
		e.Timestamp = r.CreatedAt.UTC().Format(timestampLayout)
	}
	return e
}
