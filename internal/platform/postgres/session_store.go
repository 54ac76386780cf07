package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/flashlearn-api/internal/domain"
	"github.com/phrazzld/flashlearn-api/internal/platform/logger"
	"github.com/phrazzld/flashlearn-api/internal/store"
)

// PostgresSessionStore implements the store.SessionStore interface using
// PostgreSQL.
type PostgresSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSessionStore creates a new PostgresSessionStore.
// Panics if db is nil.
func NewPostgresSessionStore(db store.DBTX, log *slog.Logger) *PostgresSessionStore {
	if db == nil {
		panic("db cannot be nil for PostgresSessionStore")
	}
	if log == nil {
		log = slog.Default()
	}

	return &PostgresSessionStore{
		db:     db,
		logger: log.With("component", "session_store"),
	}
}

// Compile-time check that PostgresSessionStore satisfies the interface.
var _ store.SessionStore = (*PostgresSessionStore)(nil)

// WithTx returns a SessionStore bound to the given transaction.
func (s *PostgresSessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return &PostgresSessionStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create saves a new session to the database.
// Returns store.ErrInvalidEntity if the user or category does not exist.
func (s *PostgresSessionStore) Create(ctx context.Context, session *domain.Session) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO sessions (id, user_id, category_id, requested_cards, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.CategoryID,
		session.RequestedCards,
		session.CreatedAt,
	)
	if err != nil {
		log.ErrorContext(ctx, "failed to insert session",
			"error", err, "session_id", session.ID)
		return MapError(err)
	}

	log.DebugContext(ctx, "session created",
		"session_id", session.ID, "category_id", session.CategoryID)
	return nil
}

// GetByID retrieves a session by its unique ID.
// Returns store.ErrSessionNotFound if the session does not exist.
func (s *PostgresSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, category_id, requested_cards, created_at
		FROM sessions
		WHERE id = $1`

	var session domain.Session
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.UserID,
		&session.CategoryID,
		&session.RequestedCards,
		&session.CreatedAt,
	)
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrSessionNotFound
		}
		log.ErrorContext(ctx, "failed to get session by ID", "error", err, "session_id", id)
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &session, nil
}
