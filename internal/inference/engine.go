package inference

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Engine runs the full classification pipeline on raw image bytes.
// The model handle is injected so callers and tests can substitute a stub.
type Engine interface {
	Classify(ctx context.Context, raw []byte) (*Result, error)
}

type engine struct {
	model  Model
	labels []Label
	logger *slog.Logger
}

// NewEngine creates an Engine over a loaded model and the fixed label order.
func NewEngine(model Model, logger *slog.Logger) Engine {
	return &engine{
		model:  model,
		labels: Labels(),
		logger: logger.With("system", "inference"),
	}
}

// Classify normalizes the image, invokes the classifier exactly once, and
// resolves the score vector into a ranked result.
func (e *engine) Classify(ctx context.Context, raw []byte) (*Result, error) {
	if e.model == nil {
		return nil, ErrNotLoaded
	}

	tensor, err := Normalize(raw)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	scores, err := e.model.Infer(ctx, tensor)
	if err != nil {
		return nil, fmt.Errorf("infer: %w", err)
	}

	result, err := Resolve(scores, e.labels)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("classified image",
		"label", result.Label,
		"confidence", result.Confidence,
		"duration", time.Since(start),
	)

	return result, nil
}
