package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/flashlearn-api/internal/api/shared"
	"github.com/phrazzld/flashlearn-api/internal/generation"
	"github.com/phrazzld/flashlearn-api/internal/service"
	"github.com/phrazzld/flashlearn-api/internal/service/auth"
	"github.com/phrazzld/flashlearn-api/internal/service/learning"
	"github.com/phrazzld/flashlearn-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrCardNotOwned),
		errors.Is(err, learning.ErrSessionNotOwned):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, learning.ErrCategoryNotFound),
		errors.Is(err, learning.ErrSessionNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, learning.ErrInvalidCardCount),
		errors.Is(err, learning.ErrInvalidResult),
		errors.Is(err, generation.ErrEmptyTopic):
		return http.StatusBadRequest

	// A category with no candidate cards is a recoverable user-facing
	// condition, not a server fault.
	case errors.Is(err, learning.ErrNoCandidates):
		return http.StatusUnprocessableEntity

	// Session completion is signalled with 204 on the next-question route.
	case errors.Is(err, learning.ErrSessionComplete):
		return http.StatusNoContent

	// Upstream model failures
	case errors.Is(err, generation.ErrContentBlocked),
		errors.Is(err, generation.ErrInvalidResponse),
		errors.Is(err, generation.ErrTransientFailure):
		return http.StatusBadGateway

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid refresh token"

	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials"

	// Authorization errors
	case errors.Is(err, service.ErrCardNotOwned):
		return "You do not own this card"

	case errors.Is(err, learning.ErrSessionNotOwned):
		return "You do not own this session"

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrCategoryNotFound),
		errors.Is(err, learning.ErrCategoryNotFound):
		return "Category not found"

	case errors.Is(err, store.ErrFlashcardNotFound):
		return "Card not found"

	case errors.Is(err, store.ErrSessionNotFound),
		errors.Is(err, learning.ErrSessionNotFound):
		return "Session not found"

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	case errors.Is(err, store.ErrCategoryNameExists):
		return "Category name already exists"

	// Bad request errors
	case errors.Is(err, learning.ErrInvalidCardCount):
		return "Card count must be at least 1"

	case errors.Is(err, learning.ErrInvalidResult):
		return "Invalid answer result"

	case errors.Is(err, generation.ErrEmptyTopic):
		return "Topic is required"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	// Recoverable conditions
	case errors.Is(err, learning.ErrNoCandidates):
		return "No cards available in this category"

	// Upstream model failures
	case errors.Is(err, generation.ErrContentBlocked):
		return "Generation request was blocked"

	case errors.Is(err, generation.ErrInvalidResponse),
		errors.Is(err, generation.ErrTransientFailure):
		return "Card generation is temporarily unavailable"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps err to a status code and safe message and writes the
// response, logging the underlying error with redaction. defaultMsg, when
// non-empty, overrides the mapped message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)

	if status == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	message := GetSafeErrorMessage(err)
	if defaultMsg != "" {
		message = defaultMsg
	}

	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format:
	// "Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "gte":
		return "too small"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
