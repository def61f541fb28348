package inference

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"golang.org/x/sync/semaphore"

	"github.com/renalworks/nephroscan/internal/config"
)

// Model is the loaded, read-only in-memory representation of the trained
// classifier. Implementations must be safe for concurrent Infer calls.
type Model interface {
	// Infer runs the classifier once on a normalized tensor and returns the
	// per-class score vector. Weights are never mutated.
	Infer(ctx context.Context, t *Tensor) ([]float32, error)
	// Close releases the model. Infer returns ErrNotLoaded afterwards.
	Close() error
}

// ortModel wraps one ONNX Runtime session with preallocated input and output
// tensors. The session buffers are shared state, so Infer calls are serialized
// behind a context-aware semaphore; the weights themselves are read-only.
type ortModel struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	sem     *semaphore.Weighted
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Load acquires the model artifact (fetching it from the configured source if
// absent locally), initializes the ONNX Runtime environment, and constructs
// the session. Load runs exactly once at process start; any failure wraps
// ErrModelUnavailable and is fatal to the process.
func Load(ctx context.Context, cfg *config.ModelConfig, logger *slog.Logger) (Model, error) {
	logger = logger.With("system", "model")

	if err := fetchArtifact(ctx, cfg, logger); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("%w: initialize runtime: %v", ErrModelUnavailable, err)
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(InputShape()...))
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("%w: create input tensor: %v", ErrModelUnavailable, err)
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(Labels()))))
	if err != nil {
		input.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("%w: create output tensor: %v", ErrModelUnavailable, err)
	}

	session, err := ort.NewAdvancedSession(cfg.Path,
		[]string{cfg.InputName}, []string{cfg.OutputName},
		[]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output},
		nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("%w: create session: %v", ErrModelUnavailable, err)
	}

	logger.Info("model loaded", "path", cfg.Path, "labels", len(Labels()))

	return &ortModel{
		session: session,
		input:   input,
		output:  output,
		sem:     semaphore.NewWeighted(1),
		logger:  logger,
	}, nil
}

func (m *ortModel) Infer(ctx context.Context, t *Tensor) ([]float32, error) {
	if t == nil || len(t.Data) != len(m.input.GetData()) {
		return nil, ErrScoreMismatch
	}

	if err := m.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer m.sem.Release(1)

	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return nil, ErrNotLoaded
	}

	copy(m.input.GetData(), t.Data)

	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out := m.output.GetData()
	scores := make([]float32, len(out))
	copy(scores, out)

	return scores, nil
}

func (m *ortModel) Close() error {
	// Wait for any in-flight inference before tearing down the session.
	if err := m.sem.Acquire(context.Background(), 1); err != nil {
		return err
	}
	defer m.sem.Release(1)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	m.input.Destroy()
	m.output.Destroy()
	m.session.Destroy()
	ort.DestroyEnvironment()

	m.logger.Info("model released")
	return nil
}
