package predictions

import (
	"errors"
	"net/http"

	"github.com/renalworks/nephroscan/internal/inference"
)

// Domain errors for prediction history operations.
var (
	ErrNotFound     = errors.New("prediction not found")
	ErrDuplicate    = errors.New("prediction already exists")
	ErrForbidden    = errors.New("prediction belongs to another subject")
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	ErrImageMissing = errors.New("stored image missing for prediction")
)

// MapHTTPStatus maps prediction domain errors to appropriate HTTP status
// codes. Not-found and forbidden are deliberately distinct: clients may learn
// a record exists without learning anything else about it.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrFileTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	if errors.Is(err, inference.ErrInvalidImage) ||
		errors.Is(err, inference.ErrNotLoaded) {
		return inference.MapHTTPStatus(err)
	}
	return http.StatusInternalServerError
}
