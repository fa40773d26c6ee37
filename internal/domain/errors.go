package domain

import "errors"

// Sentinel errors returned by services and repositories. Handlers map these
// onto HTTP status codes; everything else is treated as an internal error.
var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("conflict")
)
