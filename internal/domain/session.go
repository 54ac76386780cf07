package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session-specific validation errors
var (
	// ErrSessionIDEmpty is returned when a session ID is empty or nil.
	ErrSessionIDEmpty = errors.New("session ID cannot be empty")

	// ErrSessionUserIDEmpty is returned when a session's user ID is empty or nil.
	ErrSessionUserIDEmpty = errors.New("session user ID cannot be empty")

	// ErrSessionCategoryIDEmpty is returned when a session's category ID is empty or nil.
	ErrSessionCategoryIDEmpty = errors.New("session category ID cannot be empty")

	// ErrSessionCardCountInvalid is returned when the requested card count is
	// less than one.
	ErrSessionCardCountInvalid = errors.New("requested card count must be at least 1")
)

// Session is one learning attempt: a user, a category, and the number of
// cards the user asked for. A session is never mutated after creation; its
// state lives entirely in the card attempts attached to it.
type Session struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	CategoryID     uuid.UUID `json:"category_id"`
	RequestedCards int       `json:"requested_cards"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewSession creates a new Session for the given user and category.
// It generates a new UUID for the session ID and sets the creation timestamp.
// Returns an error if validation fails.
func NewSession(userID, categoryID uuid.UUID, requestedCards int) (*Session, error) {
	session := &Session{
		ID:             uuid.New(),
		UserID:         userID,
		CategoryID:     categoryID,
		RequestedCards: requestedCards,
		CreatedAt:      time.Now().UTC(),
	}

	if err := session.Validate(); err != nil {
		return nil, err
	}

	return session, nil
}

// Validate checks if the Session has valid data.
// Returns an error if any field fails validation.
func (s *Session) Validate() error {
	if s.ID == uuid.Nil {
		return ErrSessionIDEmpty
	}

	if s.UserID == uuid.Nil {
		return ErrSessionUserIDEmpty
	}

	if s.CategoryID == uuid.Nil {
		return ErrSessionCategoryIDEmpty
	}

	if s.RequestedCards < 1 {
		return ErrSessionCardCountInvalid
	}

	return nil
}
