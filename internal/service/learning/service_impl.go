package learning

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/flashlearn-api/internal/domain"
	"github.com/phrazzld/flashlearn-api/internal/platform/logger"
	"github.com/phrazzld/flashlearn-api/internal/store"
)

// Verify interface compliance at compile time
var _ LearningService = (*learningServiceImpl)(nil)

// learningServiceImpl implements the LearningService interface.
type learningServiceImpl struct {
	categoryStore  store.CategoryStore
	flashcardStore store.FlashcardStore
	sessionStore   store.SessionStore
	attemptStore   store.AttemptStore
	runTx          func(ctx context.Context, fn store.TxFn) error

	// rng drives both session sampling and presentation order. It is
	// injected so tests can seed it; math/rand sources are not safe for
	// concurrent use, hence the mutex.
	rng   *rand.Rand
	rngMu sync.Mutex

	logger *slog.Logger
}

// Deps bundles the dependencies of the learning service.
type Deps struct {
	CategoryStore  store.CategoryStore
	FlashcardStore store.FlashcardStore
	SessionStore   store.SessionStore
	AttemptStore   store.AttemptStore

	// RunTx executes a function within a database transaction, typically
	// store.RunInTransaction bound to the application's *sql.DB.
	RunTx func(ctx context.Context, fn store.TxFn) error

	// RNG is the random source for sampling and presentation order.
	RNG *rand.Rand

	Logger *slog.Logger
}

// NewLearningService creates a new LearningService implementation.
func NewLearningService(deps Deps) LearningService {
	if deps.CategoryStore == nil {
		panic("categoryStore cannot be nil")
	}
	if deps.FlashcardStore == nil {
		panic("flashcardStore cannot be nil")
	}
	if deps.SessionStore == nil {
		panic("sessionStore cannot be nil")
	}
	if deps.AttemptStore == nil {
		panic("attemptStore cannot be nil")
	}
	if deps.RunTx == nil {
		panic("runTx cannot be nil")
	}
	if deps.RNG == nil {
		panic("rng cannot be nil")
	}

	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	return &learningServiceImpl{
		categoryStore:  deps.CategoryStore,
		flashcardStore: deps.FlashcardStore,
		sessionStore:   deps.SessionStore,
		attemptStore:   deps.AttemptStore,
		runTx:          deps.RunTx,
		rng:            deps.RNG,
		logger:         log.With(slog.String("component", "learning_service")),
	}
}

// BuildSession implements LearningService.BuildSession.
func (s *learningServiceImpl) BuildSession(
	ctx context.Context,
	userID, categoryID uuid.UUID,
	requestedCount int,
) (*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if requestedCount < 1 {
		return nil, ErrInvalidCardCount
	}

	if _, err := s.categoryStore.GetByID(ctx, categoryID); err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	candidates, err := s.flashcardStore.ListCandidates(ctx, categoryID, userID)
	if err != nil {
		log.Error("failed to list candidate cards",
			slog.String("error", err.Error()),
			slog.String("category_id", categoryID.String()))
		return nil, fmt.Errorf("failed to list candidate cards: %w", err)
	}

	// Nothing is persisted for an empty candidate set; the caller simply
	// re-presents the selection step.
	if len(candidates) == 0 {
		log.Debug("no candidate cards in category",
			slog.String("user_id", userID.String()),
			slog.String("category_id", categoryID.String()))
		return nil, ErrNoCandidates
	}

	sample := s.sample(candidates, requestedCount)

	session, err := domain.NewSession(userID, categoryID, requestedCount)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	attempts := make([]*domain.CardAttempt, 0, len(sample))
	for _, card := range sample {
		attempt, err := domain.NewCardAttempt(session.ID, card.ID, domain.ResultUnanswered)
		if err != nil {
			return nil, fmt.Errorf("failed to create attempt: %w", err)
		}
		attempts = append(attempts, attempt)
	}

	// The session row and its unanswered attempts commit together; a partial
	// card set must never become visible.
	err = s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.sessionStore.WithTx(tx).Create(ctx, session); err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		if err := s.attemptStore.WithTx(tx).CreateMultiple(ctx, attempts); err != nil {
			return fmt.Errorf("failed to create attempts: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to build session",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("category_id", categoryID.String()))
		return nil, err
	}

	log.Debug("session built",
		slog.String("session_id", session.ID.String()),
		slog.Int("requested", requestedCount),
		slog.Int("selected", len(sample)))

	return session, nil
}

// NextQuestion implements LearningService.NextQuestion.
func (s *learningServiceImpl) NextQuestion(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*Question, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	session, err := s.getOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	attempts, err := s.attemptStore.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	// A session without attempts is immediately complete.
	if len(attempts) == 0 {
		return nil, ErrSessionComplete
	}

	latest := latestAttemptPerCard(attempts)

	pending := make([]uuid.UUID, 0, len(latest))
	for cardID, attempt := range latest {
		if !attempt.Result.IsDone() {
			pending = append(pending, cardID)
		}
	}
	if len(pending) == 0 {
		return nil, ErrSessionComplete
	}

	// Presentation order is re-randomized on every call, so repeat visits
	// within the same session see the remaining cards in a fresh order.
	s.shuffle(pending)

	remaining := len(pending)
	for _, cardID := range pending {
		card, err := s.flashcardStore.GetByID(ctx, cardID)
		if err != nil {
			// Cards deleted mid-session are skipped rather than failing the
			// whole selector.
			if errors.Is(err, store.ErrFlashcardNotFound) {
				log.Debug("skipping deleted card",
					slog.String("session_id", session.ID.String()),
					slog.String("card_id", cardID.String()))
				remaining--
				continue
			}
			return nil, fmt.Errorf("failed to get card: %w", err)
		}

		return &Question{
			Card:          card,
			LatestAttempt: latest[cardID],
			Remaining:     remaining,
		}, nil
	}

	return nil, ErrSessionComplete
}

// RecordAnswer implements LearningService.RecordAnswer.
func (s *learningServiceImpl) RecordAnswer(
	ctx context.Context,
	userID, sessionID, cardID uuid.UUID,
	result domain.AttemptResult,
) (*domain.CardAttempt, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !result.IsAnswerable() {
		log.Warn("invalid answer result",
			slog.String("session_id", sessionID.String()),
			slog.String("result", string(result)))
		return nil, ErrInvalidResult
	}

	session, err := s.getOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	attempt, err := domain.NewCardAttempt(session.ID, cardID, result)
	if err != nil {
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	if err := s.attemptStore.Create(ctx, attempt); err != nil {
		log.Error("failed to record answer",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()),
			slog.String("card_id", cardID.String()))
		return nil, fmt.Errorf("failed to record answer: %w", err)
	}

	return attempt, nil
}

// Summarize implements LearningService.Summarize.
func (s *learningServiceImpl) Summarize(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*Summary, error) {
	session, err := s.getOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	attempts, err := s.attemptStore.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	summary := &Summary{
		SessionID:     session.ID,
		DistinctCards: len(latestAttemptPerCard(attempts)),
	}

	// Elapsed is the span between the first and last rows in insertion
	// order; fewer than two attempts degenerate to zero.
	if len(attempts) >= 2 {
		first := attempts[0].CreatedAt
		last := attempts[len(attempts)-1].CreatedAt
		summary.Elapsed = last.Sub(first)
	}

	category, err := s.categoryStore.GetByID(ctx, session.CategoryID)
	switch {
	case err == nil:
		summary.CategoryName = category.Name
	case errors.Is(err, store.ErrCategoryNotFound):
		// The category was deleted mid-session; the summary stays usable
		// with an empty name.
	default:
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return summary, nil
}

// getOwnedSession loads a session and verifies the user owns it.
func (s *learningServiceImpl) getOwnedSession(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	session, err := s.sessionStore.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session.UserID != userID {
		log.Warn("user does not own session",
			slog.String("user_id", userID.String()),
			slog.String("session_id", sessionID.String()))
		return nil, ErrSessionNotOwned
	}

	return session, nil
}

// sample returns a uniform random sample without replacement of
// min(requestedCount, len(candidates)) cards. A full shuffle followed by
// taking the prefix gives every candidate equal inclusion probability.
func (s *learningServiceImpl) sample(
	candidates []*domain.Flashcard,
	requestedCount int,
) []*domain.Flashcard {
	shuffled := make([]*domain.Flashcard, len(candidates))
	copy(shuffled, candidates)

	s.rngMu.Lock()
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	s.rngMu.Unlock()

	if requestedCount < len(shuffled) {
		return shuffled[:requestedCount]
	}
	return shuffled
}

// shuffle randomizes a card ID slice in place.
func (s *learningServiceImpl) shuffle(ids []uuid.UUID) {
	s.rngMu.Lock()
	s.rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	s.rngMu.Unlock()
}

// latestAttemptPerCard reduces an insertion-ordered attempt list to the most
// recent attempt for each distinct card.
func latestAttemptPerCard(attempts []*domain.CardAttempt) map[uuid.UUID]*domain.CardAttempt {
	latest := make(map[uuid.UUID]*domain.CardAttempt, len(attempts))
	for _, attempt := range attempts {
		latest[attempt.CardID] = attempt
	}
	return latest
}
