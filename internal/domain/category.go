package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Category-specific validation errors
var (
	// ErrCategoryIDEmpty is returned when a category ID is empty or nil.
	ErrCategoryIDEmpty = errors.New("category ID cannot be empty")

	// ErrCategoryNameEmpty is returned when a category's name is empty.
	ErrCategoryNameEmpty = errors.New("category name cannot be empty")

	// ErrCategoryNameTooLong is returned when a category's name exceeds the limit.
	ErrCategoryNameTooLong = errors.New("category name cannot exceed 64 characters")
)

// maxCategoryNameLength matches the unique varchar column in the schema.
const maxCategoryNameLength = 64

// Category groups flashcards for browsing and for learning session selection.
// Names are unique across the application; the store enforces the constraint.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewCategory creates a new Category with the given name and description.
// It generates a new UUID for the category ID and sets the timestamps.
// Returns an error if validation fails.
func NewCategory(name, description string) (*Category, error) {
	category := &Category{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := category.Validate(); err != nil {
		return nil, err
	}

	return category, nil
}

// Validate checks if the Category has valid data.
// Returns an error if any field fails validation.
func (c *Category) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCategoryIDEmpty
	}

	if c.Name == "" {
		return ErrCategoryNameEmpty
	}

	if len(c.Name) > maxCategoryNameLength {
		return ErrCategoryNameTooLong
	}

	return nil
}

// Rename updates the category's name and description and bumps UpdatedAt.
// Returns an error if the new values are invalid.
func (c *Category) Rename(name, description string) error {
	origName, origDescription := c.Name, c.Description
	c.Name = name
	c.Description = description

	if err := c.Validate(); err != nil {
		c.Name, c.Description = origName, origDescription
		return err
	}

	c.UpdatedAt = time.Now().UTC()
	return nil
}
