package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// AttemptResult is the outcome recorded for one presentation of a card within
// a session. Unanswered rows are written when the session is built; the other
// three outcomes are submitted by the user. Stored as a nullable column where
// NULL means unanswered.
type AttemptResult string

const (
	// ResultUnanswered marks a card that has been selected into a session but
	// not yet answered in its latest presentation cycle.
	ResultUnanswered AttemptResult = "unanswered"

	// ResultWrong marks an incorrect answer.
	ResultWrong AttemptResult = "wrong"

	// ResultHard marks a correct answer the user found difficult.
	ResultHard AttemptResult = "hard"

	// ResultCorrect marks a correct answer.
	ResultCorrect AttemptResult = "correct"
)

// CardAttempt-specific validation errors
var (
	// ErrAttemptIDEmpty is returned when an attempt ID is empty or nil.
	ErrAttemptIDEmpty = errors.New("attempt ID cannot be empty")

	// ErrAttemptSessionIDEmpty is returned when an attempt's session ID is empty or nil.
	ErrAttemptSessionIDEmpty = errors.New("attempt session ID cannot be empty")

	// ErrAttemptCardIDEmpty is returned when an attempt's card ID is empty or nil.
	ErrAttemptCardIDEmpty = errors.New("attempt card ID cannot be empty")
)

// CardAttempt is one row of a card's append-only history within a session.
// Rows are never updated or deleted; each presentation-and-answer cycle
// appends a new one, and the most recent row per (session, card) pair is
// authoritative for whether the card is done.
type CardAttempt struct {
	ID        uuid.UUID     `json:"id"`
	SessionID uuid.UUID     `json:"session_id"`
	CardID    uuid.UUID     `json:"card_id"`
	Result    AttemptResult `json:"result"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewCardAttempt creates a new CardAttempt linking a card to a session with
// the given result. Returns an error if validation fails.
func NewCardAttempt(sessionID, cardID uuid.UUID, result AttemptResult) (*CardAttempt, error) {
	attempt := &CardAttempt{
		ID:        uuid.New(),
		SessionID: sessionID,
		CardID:    cardID,
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}

	if err := attempt.Validate(); err != nil {
		return nil, err
	}

	return attempt, nil
}

// Validate checks if the CardAttempt has valid data.
// Returns an error if any field fails validation.
func (a *CardAttempt) Validate() error {
	if a.ID == uuid.Nil {
		return ErrAttemptIDEmpty
	}

	if a.SessionID == uuid.Nil {
		return ErrAttemptSessionIDEmpty
	}

	if a.CardID == uuid.Nil {
		return ErrAttemptCardIDEmpty
	}

	if !a.Result.IsValid() {
		return ErrInvalidAttemptResult
	}

	return nil
}

// IsValid reports whether the result is one of the defined outcomes,
// including the unanswered state.
func (r AttemptResult) IsValid() bool {
	switch r {
	case ResultUnanswered, ResultWrong, ResultHard, ResultCorrect:
		return true
	}
	return false
}

// IsAnswerable reports whether the result is a value a user may submit.
// Unanswered rows are only ever written by the session builder.
func (r AttemptResult) IsAnswerable() bool {
	switch r {
	case ResultWrong, ResultHard, ResultCorrect:
		return true
	}
	return false
}

// IsDone reports whether a card whose latest attempt carries this result is
// finished for the session. Only hard and correct count as done; wrong and
// unanswered cards come back around.
func (r AttemptResult) IsDone() bool {
	return r == ResultHard || r == ResultCorrect
}
