package api

import (
	"github.com/renalworks/nephroscan/internal/inference"
	"github.com/renalworks/nephroscan/internal/predictions"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Predictions predictions.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	engine := inference.NewEngine(runtime.Model, runtime.Logger)

	predictionsSystem := predictions.New(
		runtime.Database.Connection(),
		runtime.Storage,
		engine,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Predictions: predictionsSystem,
	}
}
