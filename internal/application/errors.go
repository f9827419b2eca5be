package application

import "errors"

// Errors surfaced across the application services. Handlers map these to
// HTTP status codes at the driving boundary.
var (
	// ErrValidation indicates a missing or malformed required field.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates a failed credential verification. Callers
	// receive it without learning anything about the resource they asked for.
	ErrUnauthorized = errors.New("unauthorized")
)
