package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/flashlearn-api/internal/domain"
)

// AttemptStore defines the interface for card attempt persistence.
// Attempts are append-only: rows are created but never updated or deleted by
// application code (cascading deletes of sessions or cards remove them at the
// schema level).
type AttemptStore interface {
	// Create appends a single attempt row.
	// Returns ErrInvalidEntity if the session or card does not exist.
	Create(ctx context.Context, attempt *domain.CardAttempt) error

	// CreateMultiple appends one attempt row per element.
	// IMPORTANT: this method must run within a transaction so that a partial
	// batch is never visible; use WithTx with store.RunInTransaction.
	CreateMultiple(ctx context.Context, attempts []*domain.CardAttempt) error

	// ListBySession retrieves every attempt for a session in insertion order
	// (created_at, then id, ascending). Returns an empty slice for a session
	// with no attempts.
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.CardAttempt, error)

	// WithTx returns an AttemptStore bound to the given transaction.
	WithTx(tx *sql.Tx) AttemptStore
}
