package apperr

import (
	"errors"
	"net/http"
)

// Status maps an error to the HTTP status the handlers report it with.
// Anything outside the taxonomy is treated as a remote failure whose
// message is surfaced verbatim.
func Status(err error) int {
	var (
		ve *ValidationError
		ce *ConflictError
		ne *NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &ce):
		return http.StatusConflict
	case errors.As(err, &ne):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
