package predictions

import (
	"net/url"

	"github.com/renalworks/nephroscan/pkg/query"
	"github.com/renalworks/nephroscan/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "predictions", "p").
	Project("id", "ID").
	Project("subject", "Subject").
	Project("label", "Label").
	Project("confidence", "Confidence").
	Project("image_key", "ImageKey").
	Project("created_at", "CreatedAt")

// Most recent first. Listing order is part of the ledger contract.
var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for prediction queries.
// Nil fields are ignored. Label uses exact matching.
type Filters struct {
	Label *string `json:"label,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.WhereEquals("Label", f.Label)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if l := values.Get("label"); l != "" {
		f.Label = &l
	}

	return f
}

func scanPrediction(s repository.Scanner) (Prediction, error) {
	var p Prediction
	err := s.Scan(
		&p.ID,
		&p.Subject,
		&p.Label,
		&p.Confidence,
		&p.ImageKey,
		&p.CreatedAt,
	)
	return p, err
}
