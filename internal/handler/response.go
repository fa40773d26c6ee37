package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/upkeephq/upkeep/internal/domain"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError maps domain sentinel errors onto HTTP status codes. Anything
// unrecognized is an internal error with a generic message.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
		message = "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		message = "not found"
	case errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
		message = err.Error()
	}

	writeJSON(w, status, ErrorResponse{Error: message})
}
