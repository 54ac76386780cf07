package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/flashlearn-api/internal/domain"
)

// CategoryStore defines the interface for category data persistence.
type CategoryStore interface {
	// Create saves a new category to the store.
	// Returns ErrCategoryNameExists if the name is already taken.
	Create(ctx context.Context, category *domain.Category) error

	// GetByID retrieves a category by its unique ID.
	// Returns ErrCategoryNotFound if the category does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)

	// List retrieves categories ordered by name.
	// Returns an empty slice when the store holds no categories.
	List(ctx context.Context, limit, offset int) ([]*domain.Category, error)

	// Update saves changes to an existing category.
	// Returns ErrCategoryNotFound if the category does not exist and
	// ErrCategoryNameExists if the new name collides with another category.
	Update(ctx context.Context, category *domain.Category) error

	// Delete removes a category by its ID. Dependent flashcard links,
	// sessions, and attempts are removed by the schema's ON DELETE CASCADE
	// constraints.
	// Returns ErrCategoryNotFound if the category does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}
