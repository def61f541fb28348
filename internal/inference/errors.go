package inference

import (
	"errors"
	"net/http"
)

// Domain errors for the classification pipeline.
var (
	// ErrInvalidImage indicates the uploaded bytes are empty or not a decodable image.
	ErrInvalidImage = errors.New("invalid image")
	// ErrModelUnavailable indicates the model artifact could not be acquired or
	// loaded. Fatal at startup; there is no fallback inference path.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrNotLoaded indicates inference was attempted without a loaded model.
	ErrNotLoaded = errors.New("model not loaded")
	// ErrScoreMismatch indicates the score vector and label enumeration lengths
	// disagree. This is an internal wiring defect, never user input.
	ErrScoreMismatch = errors.New("score vector does not match label count")
)

// MapHTTPStatus maps inference errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidImage) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrNotLoaded) || errors.Is(err, ErrModelUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
