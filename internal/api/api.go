// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"fmt"
	"net/http"

	"github.com/renalworks/nephroscan/internal/config"
	"github.com/renalworks/nephroscan/internal/infrastructure"
	"github.com/renalworks/nephroscan/pkg/middleware"
	"github.com/renalworks/nephroscan/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// Middleware order matters: CORS runs first so preflights short-circuit
// before authentication, and the request logger wraps authenticated traffic.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	auth, err := middleware.NewAuthenticator(
		runtime.Lifecycle.Context(),
		&cfg.API.Auth,
		runtime.Logger,
	)
	if err != nil {
		return nil, fmt.Errorf("authenticator init failed: %w", err)
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(auth.Middleware())
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}
