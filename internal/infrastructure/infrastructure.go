// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, storage, model runtime)
// that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/renalworks/nephroscan/internal/config"
	"github.com/renalworks/nephroscan/internal/inference"
	"github.com/renalworks/nephroscan/pkg/database"
	"github.com/renalworks/nephroscan/pkg/lifecycle"
	"github.com/renalworks/nephroscan/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// It provides a single point of initialization for lifecycle coordination,
// logging, database access, file storage, and the inference model.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Model     inference.Model
}

// New creates an Infrastructure from the application configuration.
// The model artifact is resolved and loaded here, before any listener
// exists: a service that cannot classify never accepts a request. Database
// and storage are initialized but not started; call Start separately.
func New(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	model, err := inference.Load(ctx, &cfg.Model, logger)
	if err != nil {
		return nil, fmt.Errorf("model load failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Model:     model,
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// Database and storage hooks are registered for startup and shutdown
// coordination; the model session is released on shutdown.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}

	i.Lifecycle.OnShutdown(func() {
		if err := i.Model.Close(); err != nil {
			i.Logger.Error("model close failed", "error", err)
		}
	})

	return nil
}
