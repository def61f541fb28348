package api

import (
	"net/http"

	"github.com/renalworks/nephroscan/internal/config"
	"github.com/renalworks/nephroscan/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
) {
	routes.Register(
		mux,
		domain.Predictions.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
	)
}
