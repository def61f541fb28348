// Package predictions implements the prediction history ledger: durable,
// immutable classification records owned by the requesting subject, with the
// stored source image referenced by opaque storage key.
package predictions

import (
	"time"

	"github.com/google/uuid"

	"github.com/renalworks/nephroscan/internal/inference"
)

// Prediction is one immutable history record. It mirrors the predictions
// table schema: records are created exactly once per successful inference and
// never updated or deleted by the service.
type Prediction struct {
	ID         uuid.UUID       `json:"id"`
	Subject    string          `json:"subject"`
	Label      inference.Label `json:"label"`
	Confidence float64         `json:"confidence"`
	ImageKey   string          `json:"image_key"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ClassifyCommand carries one uploaded scan image through the pipeline.
type ClassifyCommand struct {
	Data        []byte
	Filename    string
	ContentType string
}

// ClassifyResult pairs the durable record with the ephemeral full confidence
// table, which is returned to the caller but never persisted.
type ClassifyResult struct {
	Prediction  Prediction                  `json:"prediction"`
	Confidences map[inference.Label]float64 `json:"confidences"`
}
