package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/flashlearn-api/internal/domain"
	"github.com/phrazzld/flashlearn-api/internal/platform/logger"
	"github.com/phrazzld/flashlearn-api/internal/store"
)

// CardService provides category and flashcard management operations.
type CardService interface {
	// CreateCategory creates a new category.
	// Returns store.ErrCategoryNameExists if the name is taken.
	CreateCategory(ctx context.Context, name, description string) (*domain.Category, error)

	// ListCategories returns categories ordered by name.
	ListCategories(ctx context.Context, limit, offset int) ([]*domain.Category, error)

	// GetCategory retrieves a category by ID.
	// Returns store.ErrCategoryNotFound if it does not exist.
	GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error)

	// UpdateCategory renames a category.
	// Returns store.ErrCategoryNotFound or store.ErrCategoryNameExists.
	UpdateCategory(ctx context.Context, id uuid.UUID, name, description string) (*domain.Category, error)

	// DeleteCategory removes a category; dependent card links, sessions, and
	// attempts cascade at the schema level.
	// Returns store.ErrCategoryNotFound if it does not exist.
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	// CreateCard creates a flashcard owned by the user, linked to at least
	// one existing category. The card row and its links commit in a single
	// transaction.
	CreateCard(
		ctx context.Context,
		ownerID uuid.UUID,
		kind domain.CardKind,
		question, answer string,
		categoryIDs []uuid.UUID,
	) (*domain.Flashcard, error)

	// ListCards returns the cards in a category visible to the user: the
	// user's own cards plus common cards.
	// Returns store.ErrCategoryNotFound if the category does not exist.
	ListCards(ctx context.Context, categoryID, userID uuid.UUID, limit, offset int) ([]*domain.Flashcard, error)

	// UpdateCard modifies a card's question and answer. Only the owning user
	// may update; common cards are immutable through this path.
	// Returns store.ErrFlashcardNotFound or ErrCardNotOwned.
	UpdateCard(ctx context.Context, userID, cardID uuid.UUID, question, answer string) (*domain.Flashcard, error)

	// DeleteCard removes a card. Only the owning user may delete; common
	// cards are immutable through this path.
	// Returns store.ErrFlashcardNotFound or ErrCardNotOwned.
	DeleteCard(ctx context.Context, userID, cardID uuid.UUID) error
}

// cardServiceImpl implements the CardService interface.
type cardServiceImpl struct {
	categoryStore  store.CategoryStore
	flashcardStore store.FlashcardStore
	runTx          func(ctx context.Context, fn store.TxFn) error
	logger         *slog.Logger
}

// NewCardService creates a new CardService.
func NewCardService(
	categoryStore store.CategoryStore,
	flashcardStore store.FlashcardStore,
	runTx func(ctx context.Context, fn store.TxFn) error,
	log *slog.Logger,
) CardService {
	if categoryStore == nil {
		panic("categoryStore cannot be nil")
	}
	if flashcardStore == nil {
		panic("flashcardStore cannot be nil")
	}
	if runTx == nil {
		panic("runTx cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &cardServiceImpl{
		categoryStore:  categoryStore,
		flashcardStore: flashcardStore,
		runTx:          runTx,
		logger:         log.With(slog.String("component", "card_service")),
	}
}

// CreateCategory implements CardService.CreateCategory.
func (s *cardServiceImpl) CreateCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	category, err := domain.NewCategory(name, description)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	if err := s.categoryStore.Create(ctx, category); err != nil {
		log.Error("failed to create category",
			slog.String("error", err.Error()),
			slog.String("name", name))
		return nil, err
	}

	log.Debug("category created", slog.String("category_id", category.ID.String()))
	return category, nil
}

// ListCategories implements CardService.ListCategories.
func (s *cardServiceImpl) ListCategories(ctx context.Context, limit, offset int) ([]*domain.Category, error) {
	return s.categoryStore.List(ctx, limit, offset)
}

// GetCategory implements CardService.GetCategory.
func (s *cardServiceImpl) GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return s.categoryStore.GetByID(ctx, id)
}

// UpdateCategory implements CardService.UpdateCategory.
func (s *cardServiceImpl) UpdateCategory(
	ctx context.Context,
	id uuid.UUID,
	name, description string,
) (*domain.Category, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	category, err := s.categoryStore.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := category.Rename(name, description); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	if err := s.categoryStore.Update(ctx, category); err != nil {
		log.Error("failed to update category",
			slog.String("error", err.Error()),
			slog.String("category_id", id.String()))
		return nil, err
	}

	return category, nil
}

// DeleteCategory implements CardService.DeleteCategory.
func (s *cardServiceImpl) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.categoryStore.Delete(ctx, id); err != nil {
		return err
	}

	log.Info("category deleted", slog.String("category_id", id.String()))
	return nil
}

// CreateCard implements CardService.CreateCard.
func (s *cardServiceImpl) CreateCard(
	ctx context.Context,
	ownerID uuid.UUID,
	kind domain.CardKind,
	question, answer string,
	categoryIDs []uuid.UUID,
) (*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := domain.NewFlashcard(ownerID, kind, question, answer, categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	// Every referenced category must exist; the check surfaces a precise
	// not-found error before the insert trips a foreign key.
	for _, categoryID := range categoryIDs {
		if _, err := s.categoryStore.GetByID(ctx, categoryID); err != nil {
			return nil, err
		}
	}

	err = s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.flashcardStore.WithTx(tx).Create(ctx, card)
	})
	if err != nil {
		log.Error("failed to create card",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, NewCardServiceError("create_card", "failed to save card", err)
	}

	log.Debug("card created", slog.String("card_id", card.ID.String()))
	return card, nil
}

// ListCards implements CardService.ListCards.
func (s *cardServiceImpl) ListCards(
	ctx context.Context,
	categoryID, userID uuid.UUID,
	limit, offset int,
) ([]*domain.Flashcard, error) {
	if _, err := s.categoryStore.GetByID(ctx, categoryID); err != nil {
		return nil, err
	}

	return s.flashcardStore.ListByCategory(ctx, categoryID, userID, limit, offset)
}

// UpdateCard implements CardService.UpdateCard.
func (s *cardServiceImpl) UpdateCard(
	ctx context.Context,
	userID, cardID uuid.UUID,
	question, answer string,
) (*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := s.getOwnedCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}

	if err := card.UpdateContent(question, answer); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	if err := s.flashcardStore.UpdateContent(ctx, cardID, question, answer); err != nil {
		log.Error("failed to update card",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, err
	}

	return card, nil
}

// DeleteCard implements CardService.DeleteCard.
func (s *cardServiceImpl) DeleteCard(ctx context.Context, userID, cardID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.getOwnedCard(ctx, userID, cardID); err != nil {
		return err
	}

	if err := s.flashcardStore.Delete(ctx, cardID); err != nil {
		return err
	}

	log.Info("card deleted",
		slog.String("card_id", cardID.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// getOwnedCard loads a card and verifies the user owns it. Common cards fail
// the ownership check for everyone.
func (s *cardServiceImpl) getOwnedCard(ctx context.Context, userID, cardID uuid.UUID) (*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := s.flashcardStore.GetByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, store.ErrFlashcardNotFound) {
			return nil, store.ErrFlashcardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	if !card.IsOwnedBy(userID) {
		log.Warn("user does not own card",
			slog.String("user_id", userID.String()),
			slog.String("card_id", cardID.String()),
			slog.Bool("common", card.IsCommon()))
		return nil, ErrCardNotOwned
	}

	return card, nil
}
