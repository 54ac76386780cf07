// Package learning implements the learning session engine: building a
// session from a random sample of a category's cards, selecting the next
// question, recording answers, and summarizing progress.
package learning

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/flashlearn-api/internal/domain"
)

// Question is one card to present, paired with the card's most recent attempt
// within the session.
type Question struct {
	// Card is the flashcard to present.
	Card *domain.Flashcard `json:"card"`

	// LatestAttempt is the card's most recent attempt within the session.
	// Its result is unanswered for a card never answered, or wrong for a card
	// that is coming back around.
	LatestAttempt *domain.CardAttempt `json:"latest_attempt"`

	// Remaining is the number of distinct cards in the session whose latest
	// attempt is not yet hard or correct, including the returned card.
	Remaining int `json:"remaining"`
}

// Summary aggregates a session's progress.
type Summary struct {
	// SessionID identifies the summarized session.
	SessionID uuid.UUID `json:"session_id"`

	// CategoryName is the name of the category the session was built from.
	CategoryName string `json:"category_name"`

	// DistinctCards is the number of distinct cards with at least one attempt
	// in the session.
	DistinctCards int `json:"distinct_cards"`

	// Elapsed is the time between the first and last attempt rows. Zero when
	// the session holds fewer than two attempts.
	Elapsed time.Duration `json:"elapsed"`
}

// LearningService provides the session lifecycle operations.
type LearningService interface {
	// BuildSession creates a new session for the user in the given category.
	// It draws a uniform random sample without replacement of
	// min(requestedCount, candidates) cards from the cards visible to the
	// user in the category, and writes the session plus one unanswered
	// attempt per sampled card in a single transaction.
	//
	// Returns:
	//   - ErrInvalidCardCount if requestedCount is less than 1
	//   - ErrCategoryNotFound if the category does not exist
	//   - ErrNoCandidates if the category holds no cards visible to the user;
	//     nothing is persisted in that case
	BuildSession(
		ctx context.Context,
		userID, categoryID uuid.UUID,
		requestedCount int,
	) (*domain.Session, error)

	// NextQuestion selects the next card to present for the session. The
	// distinct cards of the session are walked in a freshly randomized order
	// on every call; the first card whose latest attempt is neither hard nor
	// correct is returned. Cards deleted mid-session are skipped.
	//
	// Returns:
	//   - ErrSessionNotFound if the session does not exist
	//   - ErrSessionNotOwned if the session belongs to another user
	//   - ErrSessionComplete when every card's latest attempt is hard or
	//     correct, or the session holds no attempts at all
	NextQuestion(ctx context.Context, userID, sessionID uuid.UUID) (*Question, error)

	// RecordAnswer appends a new attempt row for the card with the submitted
	// result. Existing rows are never mutated; repeated submissions for the
	// same card accumulate as history.
	//
	// Returns:
	//   - ErrInvalidResult if result is not wrong, hard, or correct
	//   - ErrSessionNotFound if the session does not exist
	//   - ErrSessionNotOwned if the session belongs to another user
	RecordAnswer(
		ctx context.Context,
		userID, sessionID, cardID uuid.UUID,
		result domain.AttemptResult,
	) (*domain.CardAttempt, error)

	// Summarize computes the session's aggregate progress: distinct cards
	// touched, elapsed time between first and last attempt, and the category
	// name. It reads no mutable state and is safe to call repeatedly.
	//
	// Returns:
	//   - ErrSessionNotFound if the session does not exist
	//   - ErrSessionNotOwned if the session belongs to another user
	Summarize(ctx context.Context, userID, sessionID uuid.UUID) (*Summary, error)
}

// Common error types for LearningService
var (
	// ErrInvalidCardCount indicates a requested card count below 1.
	ErrInvalidCardCount = errors.New("requested card count must be at least 1")

	// ErrCategoryNotFound indicates the category does not exist.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrNoCandidates indicates the category holds no cards visible to the
	// user. The caller should re-present the selection step; nothing was
	// persisted.
	ErrNoCandidates = errors.New("no candidate cards in category")

	// ErrSessionNotFound indicates the session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionNotOwned indicates the session belongs to a different user.
	ErrSessionNotOwned = errors.New("unauthorized access: session not owned by user")

	// ErrSessionComplete indicates every card in the session has been
	// answered hard or correct.
	ErrSessionComplete = errors.New("session complete")

	// ErrInvalidResult indicates a submitted result outside wrong, hard, and
	// correct.
	ErrInvalidResult = errors.New("invalid answer result")
)
