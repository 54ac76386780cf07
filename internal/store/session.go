package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/flashlearn-api/internal/domain"
)

// SessionStore defines the interface for learning session persistence.
type SessionStore interface {
	// Create saves a new session to the store.
	// The session builder writes the session row and its initial unanswered
	// attempts in one transaction; use WithTx with store.RunInTransaction.
	// Returns ErrInvalidEntity if the user or category does not exist.
	Create(ctx context.Context, session *domain.Session) error

	// GetByID retrieves a session by its unique ID.
	// Returns ErrSessionNotFound if the session does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)

	// WithTx returns a SessionStore bound to the given transaction.
	WithTx(tx *sql.Tx) SessionStore
}
