package predictions_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/renalworks/nephroscan/internal/inference"
	"github.com/renalworks/nephroscan/internal/predictions"
)

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", predictions.ErrNotFound, http.StatusNotFound},
		{"forbidden", predictions.ErrForbidden, http.StatusForbidden},
		{"duplicate", predictions.ErrDuplicate, http.StatusConflict},
		{"file too large", predictions.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"invalid image", inference.ErrInvalidImage, http.StatusBadRequest},
		{"model not loaded", inference.ErrNotLoaded, http.StatusServiceUnavailable},
		{"image missing", predictions.ErrImageMissing, http.StatusInternalServerError},
		{"wrapped not found", fmt.Errorf("lookup: %w", predictions.ErrNotFound), http.StatusNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := predictions.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestFiltersFromQuery(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantLabel *string
	}{
		{"no filters", "", nil},
		{"label", "label=Tumor", strPtr("Tumor")},
		{"empty label ignored", "label=", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("parse query: %v", err)
			}

			f := predictions.FiltersFromQuery(values)

			if (f.Label == nil) != (tt.wantLabel == nil) {
				t.Fatalf("label = %v, want %v", f.Label, tt.wantLabel)
			}
			if f.Label != nil && *f.Label != *tt.wantLabel {
				t.Errorf("label = %q, want %q", *f.Label, *tt.wantLabel)
			}
		})
	}
}

func strPtr(s string) *string {
	return &s
}
