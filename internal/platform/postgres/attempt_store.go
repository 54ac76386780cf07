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

// PostgresAttemptStore implements the store.AttemptStore interface using
// PostgreSQL. The result column is nullable; NULL stands for the unanswered
// state written when a session is built.
type PostgresAttemptStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAttemptStore creates a new PostgresAttemptStore.
// Panics if db is nil.
func NewPostgresAttemptStore(db store.DBTX, log *slog.Logger) *PostgresAttemptStore {
	if db == nil {
		panic("db cannot be nil for PostgresAttemptStore")
	}
	if log == nil {
		log = slog.Default()
	}

	return &PostgresAttemptStore{
		db:     db,
		logger: log.With("component", "attempt_store"),
	}
}

// Compile-time check that PostgresAttemptStore satisfies the interface.
var _ store.AttemptStore = (*PostgresAttemptStore)(nil)

// WithTx returns an AttemptStore bound to the given transaction.
func (s *PostgresAttemptStore) WithTx(tx *sql.Tx) store.AttemptStore {
	return &PostgresAttemptStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create appends a single attempt row.
// Returns store.ErrInvalidEntity if the session or card does not exist.
func (s *PostgresAttemptStore) Create(ctx context.Context, attempt *domain.CardAttempt) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := attempt.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO card_attempts (id, session_id, card_id, result, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.ExecContext(ctx, query,
		attempt.ID,
		attempt.SessionID,
		attempt.CardID,
		resultToColumn(attempt.Result),
		attempt.CreatedAt,
	)
	if err != nil {
		log.ErrorContext(ctx, "failed to insert card attempt",
			"error", err, "attempt_id", attempt.ID, "session_id", attempt.SessionID)
		return MapError(err)
	}

	return nil
}

// CreateMultiple appends one attempt row per element in a single statement.
// Callers must run this within a transaction via WithTx so a partial batch is
// never visible.
func (s *PostgresAttemptStore) CreateMultiple(ctx context.Context, attempts []*domain.CardAttempt) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(attempts) == 0 {
		return nil
	}

	builder := psql.Insert("card_attempts").
		Columns("id", "session_id", "card_id", "result", "created_at")
	for _, attempt := range attempts {
		if err := attempt.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
		builder = builder.Values(
			attempt.ID,
			attempt.SessionID,
			attempt.CardID,
			resultToColumn(attempt.Result),
			attempt.CreatedAt,
		)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build attempt batch query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		log.ErrorContext(ctx, "failed to insert card attempt batch",
			"error", err, "attempt_count", len(attempts))
		return MapError(err)
	}

	log.DebugContext(ctx, "card attempts created", "attempt_count", len(attempts))
	return nil
}

// ListBySession retrieves every attempt for a session in insertion order.
func (s *PostgresAttemptStore) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.CardAttempt, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, session_id, card_id, result, created_at
		FROM card_attempts
		WHERE session_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		log.ErrorContext(ctx, "failed to query card attempts",
			"error", err, "session_id", sessionID)
		return nil, fmt.Errorf("failed to query card attempts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	attempts := make([]*domain.CardAttempt, 0)
	for rows.Next() {
		var (
			attempt domain.CardAttempt
			result  sql.NullString
		)
		if err := rows.Scan(
			&attempt.ID,
			&attempt.SessionID,
			&attempt.CardID,
			&result,
			&attempt.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan card attempt row: %w", err)
		}
		attempt.Result = resultFromColumn(result)
		attempts = append(attempts, &attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating card attempt rows: %w", err)
	}

	return attempts, nil
}

// resultToColumn maps the unanswered state to NULL and every submitted
// outcome to its text value.
func resultToColumn(result domain.AttemptResult) sql.NullString {
	if result == domain.ResultUnanswered {
		return sql.NullString{}
	}
	return sql.NullString{String: string(result), Valid: true}
}

// resultFromColumn maps a NULL result column back to the unanswered state.
func resultFromColumn(column sql.NullString) domain.AttemptResult {
	if !column.Valid {
		return domain.ResultUnanswered
	}
	return domain.AttemptResult(column.String)
}
