package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// CardKind distinguishes text-question cards from image-question cards.
type CardKind string

const (
	// CardKindText is a flashcard whose question is plain text.
	CardKindText CardKind = "text"

	// CardKindImage is a flashcard whose question is an image reference.
	CardKindImage CardKind = "image"
)

// Flashcard-specific validation errors
var (
	// ErrFlashcardIDEmpty is returned when a flashcard ID is empty or nil.
	ErrFlashcardIDEmpty = errors.New("flashcard ID cannot be empty")

	// ErrFlashcardQuestionEmpty is returned when a flashcard's question is empty.
	ErrFlashcardQuestionEmpty = errors.New("flashcard question cannot be empty")

	// ErrFlashcardAnswerEmpty is returned when a flashcard's answer is empty.
	ErrFlashcardAnswerEmpty = errors.New("flashcard answer cannot be empty")

	// ErrFlashcardNoCategories is returned when a flashcard is created without
	// at least one category.
	ErrFlashcardNoCategories = errors.New("flashcard must belong to at least one category")
)

// Flashcard is a single question/answer card. The question is either plain
// text or an image URL depending on Kind. A card belongs to one or more
// categories. OwnerID is nil for "common" cards, which are visible to every
// user when building a session but are never mutated through the user-facing
// update and delete paths.
type Flashcard struct {
	ID          uuid.UUID   `json:"id"`
	Kind        CardKind    `json:"kind"`
	Question    string      `json:"question"`
	Answer      string      `json:"answer"`
	OwnerID     *uuid.UUID  `json:"owner_id,omitempty"`
	CategoryIDs []uuid.UUID `json:"category_ids,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewFlashcard creates a new Flashcard owned by the given user.
// It generates a new UUID for the card ID and sets the timestamps.
// Returns an error if validation fails.
func NewFlashcard(
	ownerID uuid.UUID,
	kind CardKind,
	question, answer string,
	categoryIDs []uuid.UUID,
) (*Flashcard, error) {
	card := &Flashcard{
		ID:          uuid.New(),
		Kind:        kind,
		Question:    question,
		Answer:      answer,
		OwnerID:     &ownerID,
		CategoryIDs: categoryIDs,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Flashcard has valid data.
// Returns an error if any field fails validation.
func (f *Flashcard) Validate() error {
	if f.ID == uuid.Nil {
		return ErrFlashcardIDEmpty
	}

	if f.Kind != CardKindText && f.Kind != CardKindImage {
		return ErrInvalidCardKind
	}

	if f.Question == "" {
		return ErrFlashcardQuestionEmpty
	}

	if f.Answer == "" {
		return ErrFlashcardAnswerEmpty
	}

	if len(f.CategoryIDs) == 0 {
		return ErrFlashcardNoCategories
	}

	return nil
}

// IsCommon reports whether the card has no owning user. Common cards are
// candidates for every user's sessions.
func (f *Flashcard) IsCommon() bool {
	return f.OwnerID == nil
}

// IsOwnedBy reports whether the card is owned by the given user.
// Common cards are owned by nobody.
func (f *Flashcard) IsOwnedBy(userID uuid.UUID) bool {
	return f.OwnerID != nil && *f.OwnerID == userID
}

// UpdateContent updates the card's question and answer and bumps UpdatedAt.
// Returns an error if the new content is invalid.
func (f *Flashcard) UpdateContent(question, answer string) error {
	origQuestion, origAnswer := f.Question, f.Answer
	f.Question = question
	f.Answer = answer

	if err := f.Validate(); err != nil {
		f.Question, f.Answer = origQuestion, origAnswer
		return err
	}

	f.UpdatedAt = time.Now().UTC()
	return nil
}
