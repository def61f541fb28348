package reports

import (
	"errors"
	"net/http"
)

// ErrRenderFailure indicates the report document could not be produced or
// failed structural verification.
var ErrRenderFailure = errors.New("report rendering failed")

// MapHTTPStatus maps report errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrRenderFailure) {
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
