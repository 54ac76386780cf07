package learning

import (
	"context"
	"database/sql"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/flashlearn-api/internal/domain"
	"github.com/phrazzld/flashlearn-api/internal/store"
)

// fakeStores is a shared in-memory backing for the fake store
// implementations below.
type fakeStores struct {
	categories map[uuid.UUID]*domain.Category
	cards      map[uuid.UUID]*domain.Flashcard
	sessions   map[uuid.UUID]*domain.Session
	attempts   []*domain.CardAttempt
}

func newFakeStores() *fakeStores {
	return &fakeStores{
		categories: make(map[uuid.UUID]*domain.Category),
		cards:      make(map[uuid.UUID]*domain.Flashcard),
		sessions:   make(map[uuid.UUID]*domain.Session),
	}
}

type fakeCategoryStore struct{ s *fakeStores }

func (f *fakeCategoryStore) Create(ctx context.Context, category *domain.Category) error {
	f.s.categories[category.ID] = category
	return nil
}

func (f *fakeCategoryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, ok := f.s.categories[id]
	if !ok {
		return nil, store.ErrCategoryNotFound
	}
	return category, nil
}

func (f *fakeCategoryStore) List(ctx context.Context, limit, offset int) ([]*domain.Category, error) {
	out := make([]*domain.Category, 0, len(f.s.categories))
	for _, c := range f.s.categories {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCategoryStore) Update(ctx context.Context, category *domain.Category) error {
	if _, ok := f.s.categories[category.ID]; !ok {
		return store.ErrCategoryNotFound
	}
	f.s.categories[category.ID] = category
	return nil
}

func (f *fakeCategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.s.categories[id]; !ok {
		return store.ErrCategoryNotFound
	}
	delete(f.s.categories, id)
	return nil
}

type fakeFlashcardStore struct{ s *fakeStores }

func (f *fakeFlashcardStore) Create(ctx context.Context, card *domain.Flashcard) error {
	f.s.cards[card.ID] = card
	return nil
}

func (f *fakeFlashcardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Flashcard, error) {
	card, ok := f.s.cards[id]
	if !ok {
		return nil, store.ErrFlashcardNotFound
	}
	return card, nil
}

func (f *fakeFlashcardStore) ListByCategory(
	ctx context.Context,
	categoryID, userID uuid.UUID,
	limit, offset int,
) ([]*domain.Flashcard, error) {
	return f.ListCandidates(ctx, categoryID, userID)
}

func (f *fakeFlashcardStore) ListCandidates(
	ctx context.Context,
	categoryID, userID uuid.UUID,
) ([]*domain.Flashcard, error) {
	out := make([]*domain.Flashcard, 0)
	for _, card := range f.s.cards {
		if !card.IsCommon() && !card.IsOwnedBy(userID) {
			continue
		}
		for _, cid := range card.CategoryIDs {
			if cid == categoryID {
				out = append(out, card)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeFlashcardStore) UpdateContent(ctx context.Context, id uuid.UUID, question, answer string) error {
	card, ok := f.s.cards[id]
	if !ok {
		return store.ErrFlashcardNotFound
	}
	return card.UpdateContent(question, answer)
}

func (f *fakeFlashcardStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.s.cards[id]; !ok {
		return store.ErrFlashcardNotFound
	}
	delete(f.s.cards, id)
	return nil
}

func (f *fakeFlashcardStore) WithTx(tx *sql.Tx) store.FlashcardStore { return f }

type fakeSessionStore struct{ s *fakeStores }

func (f *fakeSessionStore) Create(ctx context.Context, session *domain.Session) error {
	f.s.sessions[session.ID] = session
	return nil
}

func (f *fakeSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	session, ok := f.s.sessions[id]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	return session, nil
}

func (f *fakeSessionStore) WithTx(tx *sql.Tx) store.SessionStore { return f }

type fakeAttemptStore struct{ s *fakeStores }

func (f *fakeAttemptStore) Create(ctx context.Context, attempt *domain.CardAttempt) error {
	f.s.attempts = append(f.s.attempts, attempt)
	return nil
}

func (f *fakeAttemptStore) CreateMultiple(ctx context.Context, attempts []*domain.CardAttempt) error {
	f.s.attempts = append(f.s.attempts, attempts...)
	return nil
}

func (f *fakeAttemptStore) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.CardAttempt, error) {
	out := make([]*domain.CardAttempt, 0)
	for _, attempt := range f.s.attempts {
		if attempt.SessionID == sessionID {
			out = append(out, attempt)
		}
	}
	return out, nil
}

func (f *fakeAttemptStore) WithTx(tx *sql.Tx) store.AttemptStore { return f }

// newTestService wires a learning service over fake stores with a seeded RNG.
func newTestService(fake *fakeStores, seed int64) LearningService {
	return NewLearningService(Deps{
		CategoryStore:  &fakeCategoryStore{s: fake},
		FlashcardStore: &fakeFlashcardStore{s: fake},
		SessionStore:   &fakeSessionStore{s: fake},
		AttemptStore:   &fakeAttemptStore{s: fake},
		RunTx: func(ctx context.Context, fn store.TxFn) error {
			return fn(ctx, nil)
		},
		RNG: rand.New(rand.NewSource(seed)),
	})
}

// seedCategory adds a category and returns its ID.
func seedCategory(t *testing.T, fake *fakeStores, name string) uuid.UUID {
	t.Helper()
	category, err := domain.NewCategory(name, "")
	require.NoError(t, err)
	fake.categories[category.ID] = category
	return category.ID
}

// seedCards adds n cards owned by userID to the category and returns their IDs.
func seedCards(t *testing.T, fake *fakeStores, categoryID, userID uuid.UUID, n int) []uuid.UUID {
	t.Helper()
	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		card, err := domain.NewFlashcard(
			userID, domain.CardKindText, "question", "answer", []uuid.UUID{categoryID})
		require.NoError(t, err)
		fake.cards[card.ID] = card
		ids = append(ids, card.ID)
	}
	return ids
}

func TestBuildSessionSamplingBound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		candidates int
		requested  int
		expected   int
	}{
		{"fewer requested than candidates", 10, 4, 4},
		{"more requested than candidates", 3, 20, 3},
		{"exact", 5, 5, 5},
		{"single card", 1, 1, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fake := newFakeStores()
			userID := uuid.New()
			categoryID := seedCategory(t, fake, "algebra "+tc.name)
			cardIDs := seedCards(t, fake, categoryID, userID, tc.candidates)
			svc := newTestService(fake, 42)

			session, err := svc.BuildSession(context.Background(), userID, categoryID, tc.requested)
			require.NoError(t, err)
			require.NotNil(t, session)
			assert.Equal(t, tc.requested, session.RequestedCards)

			require.Len(t, fake.attempts, tc.expected)

			candidateSet := make(map[uuid.UUID]bool, len(cardIDs))
			for _, id := range cardIDs {
				candidateSet[id] = true
			}

			seen := make(map[uuid.UUID]bool)
			for _, attempt := range fake.attempts {
				assert.Equal(t, session.ID, attempt.SessionID)
				assert.Equal(t, domain.ResultUnanswered, attempt.Result)
				assert.True(t, candidateSet[attempt.CardID], "sampled card must come from the candidate set")
				assert.False(t, seen[attempt.CardID], "sampled cards must be distinct")
				seen[attempt.CardID] = true
			}
		})
	}
}

func TestBuildSessionRejectsInvalidCount(t *testing.T) {
	t.Parallel()

	fake := newFakeStores()
	userID := uuid.New()
	categoryID := seedCategory(t, fake, "geometry")
	seedCards(t, fake, categoryID, userID, 3)
	svc := newTestService(fake, 1)

	for _, count := range []int{0, -1, -100} {
		_, err := svc.BuildSession(context.Background(), userID, categoryID, count)
		assert.ErrorIs(t, err, ErrInvalidCardCount)
	}
	assert.Empty(t, fake.attempts)
	assert.Empty(t, fake.sessions)
}

func TestBuildSessionUnknownCategory(t *testing.T) {
	t.Parallel()

	fake := newFakeStores()
	svc := newTestService(fake, 1)

	_, err := svc.BuildSession(context.Background(), uuid.New(), uuid.New(), 5)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestBuildSessionEmptyCategory(t *testing.T) {
	t.Parallel()

	fake := newFakeStores()
	categoryID := seedCategory(t, fake, "empty")
	svc := newTestService(fake, 1)

	_, err := svc.BuildSession(context.Background(), uuid.New(), categoryID, 10)
	assert.ErrorIs(t, err, ErrNoCandidates)
	assert.Empty(t, fake.attempts, "no attempt rows may be written for an empty candidate set")
	assert.Empty(t, fake.sessions, "no session may be persisted for an empty candidate set")
}

func TestBuildSessionCandidateVisibility(t *testing.T) {
	t.Parallel()

	fake := newFakeStores()
	userID := uuid.New()
	otherUserID := uuid.New()
	categoryID := seedCategory(t, fake, "history")

	ownIDs := seedCards(t, fake, categoryID, userID, 2)
	seedCards(t, fake, categoryID, otherUserID, 3)

	// A common card has no owner and is visible to everyone.
	common, err := domain.NewFlashcard(
		userID, domain.CardKindText, "common question", "answer", []uuid.UUID{categoryID})
	require.NoError(t, err)
	common.OwnerID = nil
	fake.cards[common.ID] = common

	svc := newTestService(fake, 7)
	session, err := svc.BuildSession(context.Background(), userID, categoryID, 100)
	require.NoError(t, err)

	visible := map[uuid.UUID]bool{ownIDs[0]: true, ownIDs[1]: true, common.ID: true}
	require.Len(t, fake.attempts, 3, "only own and common cards are candidates")
	for _, attempt := range fake.attempts {
		assert.Equal(t, session.ID, attempt.SessionID)
		assert.True(t, visible[attempt.CardID])
	}
}

func TestNextQuestionReturnsUnansweredCard(t *testing.T) {
	t.Parallel()

	fake := newFakeStores()
	userID := uuid.New()
	categoryID := seedCategory(t, fake, "vocab")
	seedCards(t, fake, categoryID, userID, 3)
	svc := newTestService(fake, 3)

	session, err := svc.BuildSession(context.Background(), userID, categoryID, 3)
	require.NoError(t, err)

	question, err := svc.NextQuestion(context.Background(), userID, session.ID)
	require.NoError(t, err)
	require.NotNil(t, question.Card)
	require.NotNil(t, question.LatestAttempt)
	assert.Equal(t, domain.ResultUnanswered, question.LatestAttempt.Result)
	assert.Equal(t, question.Card.ID, question.LatestAttempt.CardID)
	assert.Equal(t, 3, question.Remaining)
}

func TestSessionCompletionMonotonicity(t *testing.T) {
	t.Parallel()

	fake := newFakeStores()
	userID := uuid.New()
	categoryID := seedCategory(t, fake, "chemistry")
	seedCards(t, fake, categoryID, userID, 4)
	svc := newTestService(fake, 11)

	session, err := svc.BuildSession(context.Background(), userID, categoryID, 4)
	require.NoError(t, err)

	// Answer every card correct or hard; both count as done.
	results := []domain.AttemptResult{
		domain.ResultCorrect, domain.ResultHard, domain.ResultCorrect, domain.ResultHard,
	}
	for i := 0; i < 4; i++ {
		question, err := svc.NextQuestion(context.Background(), userID, session.ID)
		require.NoError(t, err)
		_, err = svc.RecordAnswer(context.Background(), userID, session.ID, question.Card.ID, results[i])
		require.NoError(t, err)
	}

	// Completion is stable across repeated calls.
	for i := 0; i < 3; i++ {
		_, err = svc.NextQuestion(context.Background(), userID, session.ID)
		assert.ErrorIs(t, err, ErrSessionComplete)
	}

	// A wrong answer re-opens the session for that card.
	reopened := fake.attempts[0].CardID
	_, err = svc.RecordAnswer(context.Background(), userID, session.ID, reopened, domain.ResultWrong)
	require.NoError(t, err)

	question, err := svc.NextQuestion(context.Background(), userID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, reopened, question.Card.ID)
	assert.Equal(t, domain.ResultWrong, question.LatestAttempt.Result)
	assert.Equal(t, 1, question.Remaining)
}

func TestWrongAnswerKeepsCardInPlay(t *testing.T) {
	t.Parallel()

	fake := newFakeStores()
	userID := uuid.New()
	categoryID := seedCategory(t, fake, "physics")
	cardIDs := seedCards(t, fake, categoryID, userID, 1)
	svc := newTestService(fake, 5)

	session, err := svc.BuildSession(context.Background(), userID, categoryID, 1)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		question, err := svc.NextQuestion(context.Background(), userID, session.ID)
		require.NoError(t, err)
		assert.Equal(t, cardIDs[0], question.Card.ID)

		_, err = svc.RecordAnswer(context.Background(), userID, session.ID, cardIDs[0], domain.ResultWrong)
		require.NoError(t, err)
	}

	_, err = svc.RecordAnswer(context.Background(), userID, session.ID, cardIDs[0], domain.ResultCorrect)
	require.NoError(t, err)

	_, err = svc.NextQuestion(context.Background(), userID, session.ID)
	assert.ErrorIs(t, err, ErrSessionComplete)
}

func TestNextQuestionEmptySessionIsComplete(t *testing.T) {
	t.Parallel()

	fake := newFakeStores()
	userID := uuid.New()
	categoryID := seedCategory(t, fake, "bare")

	session, err := domain.NewSession(userID, categoryID, 1)
	require.NoError(t, err)
	fake.sessions[session.ID] = session

	svc := newTestService(fake, 1)
	_, err = svc.NextQuestion(context.Background(), userID, session.ID)
	assert.ErrorIs(t, err, ErrSessionComplete)
}

func TestNextQuestionSkipsDeletedCards(t *testing.T) {
	t.Parallel()

	fake := newFakeStores()
	userID := uuid.New()
	categoryID := seedCategory(t, fake, "biology")
	cardIDs := seedCards(t, fake, categoryID, userID, 2)
	svc := newTestService(fake, 13)

	session, err := svc.BuildSession(context.Background(), userID, categoryID, 2)
	require.NoError(t, err)

	// Simulate a cascading delete of one card mid-session.
	delete(fake.cards, cardIDs[0])

	for i := 0; i < 5; i++ {
		question, err := svc.NextQuestion(context.Background(), userID, session.ID)
		require.NoError(t, err)
		assert.Equal(t, cardIDs[1], question.Card.ID, "deleted card must be skipped")
		assert.Equal(t, 1, question.Remaining)
	}

	// With both cards gone the session reads as complete.
	delete(fake.cards, cardIDs[1])
	_, err = svc.NextQuestion(context.Background(), userID, session.ID)
	assert.ErrorIs(t, err, ErrSessionComplete)
}

func TestSessionOwnership(t *testing.T) {
	t.Parallel()

	fake := newFakeStores()
	userID := uuid.New()
	intruderID := uuid.New()
	categoryID := seedCategory(t, fake, "guarded")
	cardIDs := seedCards(t, fake, categoryID, userID, 1)
	svc := newTestService(fake, 1)

	session, err := svc.BuildSession(context.Background(), userID, categoryID, 1)
	require.NoError(t, err)

	_, err = svc.NextQuestion(context.Background(), intruderID, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotOwned)

	_, err = svc.RecordAnswer(context.Background(), intruderID, session.ID, cardIDs[0], domain.ResultCorrect)
	assert.ErrorIs(t, err, ErrSessionNotOwned)

	_, err = svc.Summarize(context.Background(), intruderID, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotOwned)

	_, err = svc.NextQuestion(context.Background(), userID, uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRecordAnswerRejectsInvalidResults(t *testing.T) {
	t.Parallel()

	fake := newFakeStores()
	userID := uuid.New()
	categoryID := seedCategory(t, fake, "strict")
	cardIDs := seedCards(t, fake, categoryID, userID, 1)
	svc := newTestService(fake, 1)

	session, err := svc.BuildSession(context.Background(), userID, categoryID, 1)
	require.NoError(t, err)
	rowsBefore := len(fake.attempts)

	for _, result := range []domain.AttemptResult{
		domain.ResultUnanswered,
		domain.AttemptResult("easy"),
		domain.AttemptResult(""),
	} {
		_, err = svc.RecordAnswer(context.Background(), userID, session.ID, cardIDs[0], result)
		assert.ErrorIs(t, err, ErrInvalidResult)
	}
	assert.Len(t, fake.attempts, rowsBefore, "rejected answers must not write rows")
}

func TestRecordAnswerIsAppendOnly(t *testing.T) {
	t.Parallel()

	fake := newFakeStores()
	userID := uuid.New()
	categoryID := seedCategory(t, fake, "ledger")
	cardIDs := seedCards(t, fake, categoryID, userID, 1)
	svc := newTestService(fake, 1)

	session, err := svc.BuildSession(context.Background(), userID, categoryID, 1)
	require.NoError(t, err)
	rowsBefore := len(fake.attempts)

	const n = 5
	results := []domain.AttemptResult{
		domain.ResultWrong, domain.ResultWrong, domain.ResultHard,
		domain.ResultWrong, domain.ResultWrong,
	}
	for i := 0; i < n; i++ {
		attempt, err := svc.RecordAnswer(context.Background(), userID, session.ID, cardIDs[0], results[i])
		require.NoError(t, err)
		assert.Equal(t, results[i], attempt.Result)
		assert.Len(t, fake.attempts, rowsBefore+i+1)
	}

	// The selector reflects only the most recent row: the last answer was
	// wrong, so the card is still in play.
	question, err := svc.NextQuestion(context.Background(), userID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ResultWrong, question.LatestAttempt.Result)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	fake := newFakeStores()
	userID := uuid.New()
	categoryID := seedCategory(t, fake, "summary category")
	cardIDs := seedCards(t, fake, categoryID, userID, 2)

	session, err := domain.NewSession(userID, categoryID, 2)
	require.NoError(t, err)
	fake.sessions[session.ID] = session

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, row := range []struct {
		cardID uuid.UUID
		result domain.AttemptResult
		offset time.Duration
	}{
		{cardIDs[0], domain.ResultUnanswered, 0},
		{cardIDs[1], domain.ResultUnanswered, 0},
		{cardIDs[0], domain.ResultWrong, 30 * time.Second},
		{cardIDs[0], domain.ResultCorrect, 70 * time.Second},
		{cardIDs[1], domain.ResultCorrect, 90 * time.Second},
	} {
		attempt, err := domain.NewCardAttempt(session.ID, row.cardID, row.result)
		require.NoError(t, err, "attempt %d", i)
		attempt.CreatedAt = base.Add(row.offset)
		fake.attempts = append(fake.attempts, attempt)
	}

	svc := newTestService(fake, 1)
	summary, err := svc.Summarize(context.Background(), userID, session.ID)
	require.NoError(t, err)

	assert.Equal(t, session.ID, summary.SessionID)
	assert.Equal(t, "summary category", summary.CategoryName)
	assert.Equal(t, 2, summary.DistinctCards)
	assert.Equal(t, 90*time.Second, summary.Elapsed)

	// Idempotent without intervening answers.
	again, err := svc.Summarize(context.Background(), userID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, summary, again)
}

func TestSummarizeDegenerateCases(t *testing.T) {
	t.Parallel()

	fake := newFakeStores()
	userID := uuid.New()
	categoryID := seedCategory(t, fake, "degenerate")

	session, err := domain.NewSession(userID, categoryID, 1)
	require.NoError(t, err)
	fake.sessions[session.ID] = session

	svc := newTestService(fake, 1)

	// Zero attempts: zero cards, zero elapsed.
	summary, err := svc.Summarize(context.Background(), userID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.DistinctCards)
	assert.Equal(t, time.Duration(0), summary.Elapsed)

	// One attempt: elapsed stays zero.
	attempt, err := domain.NewCardAttempt(session.ID, uuid.New(), domain.ResultUnanswered)
	require.NoError(t, err)
	fake.attempts = append(fake.attempts, attempt)

	summary, err = svc.Summarize(context.Background(), userID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.DistinctCards)
	assert.Equal(t, time.Duration(0), summary.Elapsed)

	// Deleted category: summary survives with an empty name.
	delete(fake.categories, categoryID)
	summary, err = svc.Summarize(context.Background(), userID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "", summary.CategoryName)
}

func TestNextQuestionReshufflesEachCall(t *testing.T) {
	t.Parallel()

	fake := newFakeStores()
	userID := uuid.New()
	categoryID := seedCategory(t, fake, "shuffled")
	seedCards(t, fake, categoryID, userID, 10)
	svc := newTestService(fake, 99)

	session, err := svc.BuildSession(context.Background(), userID, categoryID, 10)
	require.NoError(t, err)

	// Without answering, repeated calls draw from a freshly randomized
	// order; across 20 calls over 10 pending cards we must see more than
	// one distinct card.
	seen := make(map[uuid.UUID]bool)
	for i := 0; i < 20; i++ {
		question, err := svc.NextQuestion(context.Background(), userID, session.ID)
		require.NoError(t, err)
		seen[question.Card.ID] = true
	}
	assert.Greater(t, len(seen), 1, "presentation order must be re-randomized per call")
}
