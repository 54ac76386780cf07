package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/flashlearn-api/internal/domain"
)

// FlashcardStore defines the interface for flashcard data persistence.
type FlashcardStore interface {
	// Create saves a new flashcard along with its category links.
	// IMPORTANT: the card row and its flashcard_categories rows are written
	// together, so this method must run within a transaction; use WithTx and
	// store.RunInTransaction.
	// Returns ErrInvalidEntity if a referenced category or owner does not exist.
	Create(ctx context.Context, card *domain.Flashcard) error

	// GetByID retrieves a flashcard by its unique ID, including its category IDs.
	// Returns ErrFlashcardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Flashcard, error)

	// ListByCategory retrieves the flashcards in a category that are visible
	// to the given user: cards owned by the user plus common (unowned) cards.
	// Results are ordered by question text.
	ListByCategory(ctx context.Context, categoryID, userID uuid.UUID, limit, offset int) ([]*domain.Flashcard, error)

	// ListCandidates retrieves the session candidate set for a user and
	// category: every distinct card whose category set includes categoryID
	// and whose owner is the user or unset. Order is unspecified.
	ListCandidates(ctx context.Context, categoryID, userID uuid.UUID) ([]*domain.Flashcard, error)

	// UpdateContent modifies an existing card's question and answer.
	// Returns ErrFlashcardNotFound if the card does not exist.
	UpdateContent(ctx context.Context, id uuid.UUID, question, answer string) error

	// Delete removes a flashcard by its ID. Category links and card attempts
	// are removed by the schema's ON DELETE CASCADE constraints.
	// Returns ErrFlashcardNotFound if the card does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a FlashcardStore bound to the given transaction.
	WithTx(tx *sql.Tx) FlashcardStore
}
