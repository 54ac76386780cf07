package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/flashlearn-api/internal/domain"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`

	// RefreshToken is the JWT token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// CategoryRequest defines the payload for creating or updating a category.
type CategoryRequest struct {
	Name        string `json:"name"        validate:"required,max=64"`
	Description string `json:"description" validate:"max=2000"`
}

// CreateCardRequest defines the payload for creating a flashcard.
type CreateCardRequest struct {
	Kind        string      `json:"kind"         validate:"required,oneof=text image"`
	Question    string      `json:"question"     validate:"required"`
	Answer      string      `json:"answer"       validate:"required"`
	CategoryIDs []uuid.UUID `json:"category_ids" validate:"required,min=1"`
}

// UpdateCardRequest defines the payload for updating a flashcard's content.
type UpdateCardRequest struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer"   validate:"required"`
}

// CreateSessionRequest defines the payload for building a learning session.
type CreateSessionRequest struct {
	CategoryID uuid.UUID `json:"category_id" validate:"required"`
	CardCount  int       `json:"card_count"  validate:"required,gte=1"`
}

// AnswerRequest defines the payload for recording an answer within a session.
type AnswerRequest struct {
	CardID uuid.UUID `json:"card_id" validate:"required"`
	Result string    `json:"result"  validate:"required,oneof=wrong hard correct"`
}

// GenerateCardsRequest defines the payload for drafting cards from a topic.
type GenerateCardsRequest struct {
	Topic string `json:"topic" validate:"required,max=2000"`
	Count int    `json:"count" validate:"omitempty,gte=1,lte=20"`
}

// GenerateCardsResponse lists the cards persisted from generated drafts.
type GenerateCardsResponse struct {
	Cards []*domain.Flashcard `json:"cards"`
}

// QuestionResponse is the next card to present within a session.
type QuestionResponse struct {
	Card         *domain.Flashcard `json:"card"`
	LatestResult string            `json:"latest_result"`
	Remaining    int               `json:"remaining"`
}

// SummaryResponse is a session's aggregate progress.
type SummaryResponse struct {
	SessionID      uuid.UUID `json:"session_id"`
	CategoryName   string    `json:"category_name"`
	DistinctCards  int       `json:"distinct_cards"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
}

// NewSummaryResponse converts a learning summary into its API shape.
func NewSummaryResponse(sessionID uuid.UUID, categoryName string, distinctCards int, elapsed time.Duration) SummaryResponse {
	return SummaryResponse{
		SessionID:      sessionID,
		CategoryName:   categoryName,
		DistinctCards:  distinctCards,
		ElapsedSeconds: elapsed.Seconds(),
	}
}
