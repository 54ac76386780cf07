package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidAttemptResult is returned when an attempt result is not one of
	// the defined outcomes.
	ErrInvalidAttemptResult = errors.New("invalid attempt result")

	// ErrInvalidCardKind is returned when a flashcard kind is not valid.
	ErrInvalidCardKind = errors.New("invalid card kind")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)
