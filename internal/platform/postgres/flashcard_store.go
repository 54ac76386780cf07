package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/phrazzld/flashlearn-api/internal/domain"
	"github.com/phrazzld/flashlearn-api/internal/platform/logger"
	"github.com/phrazzld/flashlearn-api/internal/store"
)

// psql builds queries with PostgreSQL's $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresFlashcardStore implements the store.FlashcardStore interface using
// PostgreSQL.
type PostgresFlashcardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresFlashcardStore creates a new PostgresFlashcardStore.
// Panics if db is nil.
func NewPostgresFlashcardStore(db store.DBTX, log *slog.Logger) *PostgresFlashcardStore {
	if db == nil {
		panic("db cannot be nil for PostgresFlashcardStore")
	}
	if log == nil {
		log = slog.Default()
	}

	return &PostgresFlashcardStore{
		db:     db,
		logger: log.With("component", "flashcard_store"),
	}
}

// Compile-time check that PostgresFlashcardStore satisfies the interface.
var _ store.FlashcardStore = (*PostgresFlashcardStore)(nil)

// WithTx returns a FlashcardStore bound to the given transaction.
func (s *PostgresFlashcardStore) WithTx(tx *sql.Tx) store.FlashcardStore {
	return &PostgresFlashcardStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create saves a new flashcard and its category links. The card row and its
// flashcard_categories rows are written through the same DBTX, so callers
// must run this within a transaction via WithTx.
// Returns store.ErrInvalidEntity if a referenced category or owner does not
// exist.
func (s *PostgresFlashcardStore) Create(ctx context.Context, card *domain.Flashcard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	cardQuery := `
		INSERT INTO flashcards (id, kind, question, answer, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, cardQuery,
		card.ID,
		string(card.Kind),
		card.Question,
		card.Answer,
		card.OwnerID,
		card.CreatedAt,
		card.UpdatedAt,
	)
	if err != nil {
		log.ErrorContext(ctx, "failed to insert flashcard", "error", err, "card_id", card.ID)
		return MapError(err)
	}

	linkBuilder := psql.Insert("flashcard_categories").Columns("flashcard_id", "category_id")
	for _, categoryID := range card.CategoryIDs {
		linkBuilder = linkBuilder.Values(card.ID, categoryID)
	}

	linkQuery, args, err := linkBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build category link query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, linkQuery, args...); err != nil {
		log.ErrorContext(ctx, "failed to insert flashcard category links",
			"error", err, "card_id", card.ID)
		return MapError(err)
	}

	log.DebugContext(ctx, "flashcard created",
		"card_id", card.ID, "category_count", len(card.CategoryIDs))
	return nil
}

// GetByID retrieves a flashcard by its unique ID, including its category IDs.
// Returns store.ErrFlashcardNotFound if the card does not exist.
func (s *PostgresFlashcardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, kind, question, answer, owner_id, created_at, updated_at
		FROM flashcards
		WHERE id = $1`

	card, err := scanFlashcard(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrFlashcardNotFound
		}
		log.ErrorContext(ctx, "failed to get flashcard by ID", "error", err, "card_id", id)
		return nil, fmt.Errorf("failed to get flashcard: %w", err)
	}

	categoryIDs, err := s.categoryIDsForCard(ctx, id)
	if err != nil {
		return nil, err
	}
	card.CategoryIDs = categoryIDs

	return card, nil
}

// ListByCategory retrieves the flashcards in a category visible to the given
// user, meaning the user's own cards plus common cards with no owner.
// Results are ordered by question text.
func (s *PostgresFlashcardStore) ListByCategory(
	ctx context.Context,
	categoryID, userID uuid.UUID,
	limit, offset int,
) ([]*domain.Flashcard, error) {
	builder := s.visibleCardsBuilder(categoryID, userID).
		OrderBy("f.question ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	return s.queryCards(ctx, builder)
}

// ListCandidates retrieves the session candidate set for a user and category:
// every distinct card linked to the category whose owner is the user or
// unset.
func (s *PostgresFlashcardStore) ListCandidates(
	ctx context.Context,
	categoryID, userID uuid.UUID,
) ([]*domain.Flashcard, error) {
	return s.queryCards(ctx, s.visibleCardsBuilder(categoryID, userID))
}

// visibleCardsBuilder builds the shared predicate for cards in a category
// that the user may see. DISTINCT guards against a card linked to the
// category more than once.
func (s *PostgresFlashcardStore) visibleCardsBuilder(categoryID, userID uuid.UUID) sq.SelectBuilder {
	return psql.
		Select("DISTINCT f.id", "f.kind", "f.question", "f.answer", "f.owner_id", "f.created_at", "f.updated_at").
		From("flashcards f").
		Join("flashcard_categories fc ON fc.flashcard_id = f.id").
		Where(sq.Eq{"fc.category_id": categoryID}).
		Where(sq.Or{
			sq.Eq{"f.owner_id": userID},
			sq.Eq{"f.owner_id": nil},
		})
}

// queryCards executes a card select and scans the rows. Category links are
// intentionally not loaded for list queries.
func (s *PostgresFlashcardStore) queryCards(ctx context.Context, builder sq.SelectBuilder) ([]*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build flashcard query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.ErrorContext(ctx, "failed to query flashcards", "error", err)
		return nil, fmt.Errorf("failed to query flashcards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cards := make([]*domain.Flashcard, 0)
	for rows.Next() {
		card, err := scanFlashcard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flashcard row: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating flashcard rows: %w", err)
	}

	return cards, nil
}

// UpdateContent modifies an existing card's question and answer.
// Returns store.ErrFlashcardNotFound if the card does not exist.
func (s *PostgresFlashcardStore) UpdateContent(ctx context.Context, id uuid.UUID, question, answer string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE flashcards
		SET question = $2, answer = $3, updated_at = NOW()
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id, question, answer)
	if err != nil {
		log.ErrorContext(ctx, "failed to update flashcard", "error", err, "card_id", id)
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrFlashcardNotFound)
}

// Delete removes a flashcard by its ID. Category links and card attempts are
// removed by ON DELETE CASCADE.
// Returns store.ErrFlashcardNotFound if the card does not exist.
func (s *PostgresFlashcardStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM flashcards WHERE id = $1`, id)
	if err != nil {
		log.ErrorContext(ctx, "failed to delete flashcard", "error", err, "card_id", id)
		return fmt.Errorf("failed to delete flashcard: %w", err)
	}

	if err := CheckRowsAffected(result, store.ErrFlashcardNotFound); err != nil {
		return err
	}

	log.DebugContext(ctx, "flashcard deleted", "card_id", id)
	return nil
}

// categoryIDsForCard loads the category links for one card.
func (s *PostgresFlashcardStore) categoryIDsForCard(ctx context.Context, cardID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT category_id
		FROM flashcard_categories
		WHERE flashcard_id = $1
		ORDER BY category_id`

	rows, err := s.db.QueryContext(ctx, query, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to query flashcard categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan category link row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category link rows: %w", err)
	}

	return ids, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanFlashcard scans one flashcard row, translating the nullable owner
// column into a nil OwnerID for common cards.
func scanFlashcard(row rowScanner) (*domain.Flashcard, error) {
	var (
		card    domain.Flashcard
		kind    string
		ownerID uuid.NullUUID
	)

	err := row.Scan(
		&card.ID,
		&kind,
		&card.Question,
		&card.Answer,
		&ownerID,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	card.Kind = domain.CardKind(kind)
	if ownerID.Valid {
		card.OwnerID = &ownerID.UUID
	}

	return &card, nil
}
