package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/flashlearn-api/internal/domain"
	"github.com/phrazzld/flashlearn-api/internal/platform/logger"
	"github.com/phrazzld/flashlearn-api/internal/store"
)

// categoriesNameUniqueConstraint is the unique constraint on categories.name.
const categoriesNameUniqueConstraint = "categories_name_key"

// PostgresCategoryStore implements the store.CategoryStore interface using
// PostgreSQL.
type PostgresCategoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCategoryStore creates a new PostgresCategoryStore.
// Panics if db is nil.
func NewPostgresCategoryStore(db store.DBTX, log *slog.Logger) *PostgresCategoryStore {
	if db == nil {
		panic("db cannot be nil for PostgresCategoryStore")
	}
	if log == nil {
		log = slog.Default()
	}

	return &PostgresCategoryStore{
		db:     db,
		logger: log.With("component", "category_store"),
	}
}

// Compile-time check that PostgresCategoryStore satisfies the interface.
var _ store.CategoryStore = (*PostgresCategoryStore)(nil)

// Create saves a new category to the database.
// Returns store.ErrCategoryNameExists if the name is already taken.
func (s *PostgresCategoryStore) Create(ctx context.Context, category *domain.Category) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := category.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO categories (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.ExecContext(ctx, query,
		category.ID,
		category.Name,
		category.Description,
		category.CreatedAt,
		category.UpdatedAt,
	)
	if err != nil {
		log.ErrorContext(ctx, "failed to insert category",
			"error", err, "category_id", category.ID)
		return MapUniqueViolation(err, categoriesNameUniqueConstraint, store.ErrCategoryNameExists)
	}

	log.DebugContext(ctx, "category created", "category_id", category.ID)
	return nil
}

// GetByID retrieves a category by its unique ID.
// Returns store.ErrCategoryNotFound if the category does not exist.
func (s *PostgresCategoryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, name, description, created_at, updated_at
		FROM categories
		WHERE id = $1`

	var category domain.Category
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrCategoryNotFound
		}
		log.ErrorContext(ctx, "failed to get category by ID", "error", err, "category_id", id)
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return &category, nil
}

// List retrieves categories ordered by name.
func (s *PostgresCategoryStore) List(ctx context.Context, limit, offset int) ([]*domain.Category, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, name, description, created_at, updated_at
		FROM categories
		ORDER BY name ASC
		LIMIT $1 OFFSET $2`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		log.ErrorContext(ctx, "failed to list categories", "error", err)
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	categories := make([]*domain.Category, 0)
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Description,
			&category.CreatedAt,
			&category.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, &category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}

	return categories, nil
}

// Update saves changes to an existing category.
// Returns store.ErrCategoryNotFound if the category does not exist and
// store.ErrCategoryNameExists on a name collision.
func (s *PostgresCategoryStore) Update(ctx context.Context, category *domain.Category) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := category.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE categories
		SET name = $2, description = $3, updated_at = $4
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query,
		category.ID,
		category.Name,
		category.Description,
		category.UpdatedAt,
	)
	if err != nil {
		log.ErrorContext(ctx, "failed to update category",
			"error", err, "category_id", category.ID)
		return MapUniqueViolation(err, categoriesNameUniqueConstraint, store.ErrCategoryNameExists)
	}

	return CheckRowsAffected(result, store.ErrCategoryNotFound)
}

// Delete removes a category by its ID. Flashcard links, sessions, and
// attempts for the category are removed by ON DELETE CASCADE.
// Returns store.ErrCategoryNotFound if the category does not exist.
func (s *PostgresCategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		log.ErrorContext(ctx, "failed to delete category", "error", err, "category_id", id)
		return fmt.Errorf("failed to delete category: %w", err)
	}

	if err := CheckRowsAffected(result, store.ErrCategoryNotFound); err != nil {
		return err
	}

	log.DebugContext(ctx, "category deleted", "category_id", id)
	return nil
}
