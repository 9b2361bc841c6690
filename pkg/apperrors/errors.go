package apperrors

import "errors"

var (
	// ErrMissingTimeRange indicates the request has no resolvable time window.
	// User-correctable: the caller should ask for clarification.
	ErrMissingTimeRange = errors.New("time range could not be determined")

	// ErrSchemaUnavailable indicates table schema could not be resolved.
	// Environment/configuration problem, not user-correctable.
	ErrSchemaUnavailable = errors.New("schema unavailable")

	// ErrAttemptsExhausted indicates all generation attempts failed.
	ErrAttemptsExhausted = errors.New("generation attempts exhausted")
)
