package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/flashlearn-api/internal/api/shared"
	"github.com/phrazzld/flashlearn-api/internal/domain"
	"github.com/phrazzld/flashlearn-api/internal/service/learning"
)

// mockLearningService is a mock implementation of the LearningService interface
type mockLearningService struct {
	buildSessionFn func(ctx context.Context, userID, categoryID uuid.UUID, requestedCount int) (*domain.Session, error)
	nextQuestionFn func(ctx context.Context, userID, sessionID uuid.UUID) (*learning.Question, error)
	recordAnswerFn func(ctx context.Context, userID, sessionID, cardID uuid.UUID, result domain.AttemptResult) (*domain.CardAttempt, error)
	summarizeFn    func(ctx context.Context, userID, sessionID uuid.UUID) (*learning.Summary, error)
}

func (m *mockLearningService) BuildSession(
	ctx context.Context,
	userID, categoryID uuid.UUID,
	requestedCount int,
) (*domain.Session, error) {
	return m.buildSessionFn(ctx, userID, categoryID, requestedCount)
}

func (m *mockLearningService) NextQuestion(ctx context.Context, userID, sessionID uuid.UUID) (*learning.Question, error) {
	return m.nextQuestionFn(ctx, userID, sessionID)
}

func (m *mockLearningService) RecordAnswer(
	ctx context.Context,
	userID, sessionID, cardID uuid.UUID,
	result domain.AttemptResult,
) (*domain.CardAttempt, error) {
	return m.recordAnswerFn(ctx, userID, sessionID, cardID, result)
}

func (m *mockLearningService) Summarize(ctx context.Context, userID, sessionID uuid.UUID) (*learning.Summary, error) {
	return m.summarizeFn(ctx, userID, sessionID)
}

// newSessionRequest builds a request with the user in context and an optional
// "id" path parameter routed through chi.
func newSessionRequest(t *testing.T, method, target string, body interface{}, userID, pathID uuid.UUID) *http.Request {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)

	ctx := req.Context()
	if userID != uuid.Nil {
		ctx = context.WithValue(ctx, shared.UserIDContextKey, userID)
	}
	if pathID != uuid.Nil {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", pathID.String())
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}

	return req.WithContext(ctx)
}

func TestCreateSession(t *testing.T) {
	userID := uuid.New()
	categoryID := uuid.New()

	session, err := domain.NewSession(userID, categoryID, 5)
	require.NoError(t, err)

	tests := []struct {
		name           string
		userIDInCtx    uuid.UUID
		body           interface{}
		serviceResult  *domain.Session
		serviceError   error
		expectedStatus int
	}{
		{
			name:           "Success",
			userIDInCtx:    userID,
			body:           CreateSessionRequest{CategoryID: categoryID, CardCount: 5},
			serviceResult:  session,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Empty Category",
			userIDInCtx:    userID,
			body:           CreateSessionRequest{CategoryID: categoryID, CardCount: 5},
			serviceError:   learning.ErrNoCandidates,
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "Unknown Category",
			userIDInCtx:    userID,
			body:           CreateSessionRequest{CategoryID: categoryID, CardCount: 5},
			serviceError:   learning.ErrCategoryNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Zero Card Count",
			userIDInCtx:    userID,
			body:           CreateSessionRequest{CategoryID: categoryID, CardCount: 0},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Missing User ID",
			userIDInCtx:    uuid.Nil,
			body:           CreateSessionRequest{CategoryID: categoryID, CardCount: 5},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockService := &mockLearningService{
				buildSessionFn: func(ctx context.Context, userID, categoryID uuid.UUID, requestedCount int) (*domain.Session, error) {
					return tc.serviceResult, tc.serviceError
				},
			}
			handler := NewSessionHandler(mockService)

			req := newSessionRequest(t, http.MethodPost, "/sessions", tc.body, tc.userIDInCtx, uuid.Nil)
			rr := httptest.NewRecorder()

			handler.Create(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)

			if tc.expectedStatus == http.StatusCreated {
				var got domain.Session
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
				assert.Equal(t, session.ID, got.ID)
				assert.Equal(t, categoryID, got.CategoryID)
			}
		})
	}
}

func TestNextQuestion(t *testing.T) {
	userID := uuid.New()
	sessionID := uuid.New()

	card, err := domain.NewFlashcard(userID, domain.CardKindText, "2+2?", "4", []uuid.UUID{uuid.New()})
	require.NoError(t, err)
	attempt, err := domain.NewCardAttempt(sessionID, card.ID, domain.ResultWrong)
	require.NoError(t, err)

	tests := []struct {
		name           string
		serviceResult  *learning.Question
		serviceError   error
		expectedStatus int
		hasBody        bool
	}{
		{
			name:           "Success",
			serviceResult:  &learning.Question{Card: card, LatestAttempt: attempt, Remaining: 3},
			expectedStatus: http.StatusOK,
			hasBody:        true,
		},
		{
			name:           "Session Complete",
			serviceError:   learning.ErrSessionComplete,
			expectedStatus: http.StatusNoContent,
			hasBody:        false,
		},
		{
			name:           "Not Owned",
			serviceError:   learning.ErrSessionNotOwned,
			expectedStatus: http.StatusForbidden,
			hasBody:        true,
		},
		{
			name:           "Not Found",
			serviceError:   learning.ErrSessionNotFound,
			expectedStatus: http.StatusNotFound,
			hasBody:        true,
		},
		{
			name:           "Other Error",
			serviceError:   errors.New("database error"),
			expectedStatus: http.StatusInternalServerError,
			hasBody:        true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockService := &mockLearningService{
				nextQuestionFn: func(ctx context.Context, userID, sessionID uuid.UUID) (*learning.Question, error) {
					return tc.serviceResult, tc.serviceError
				},
			}
			handler := NewSessionHandler(mockService)

			req := newSessionRequest(t, http.MethodGet, "/sessions/"+sessionID.String()+"/next", nil, userID, sessionID)
			rr := httptest.NewRecorder()

			handler.Next(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)

			if !tc.hasBody {
				assert.Zero(t, rr.Body.Len(), "expected empty body, got: %s", rr.Body.String())
				return
			}

			if tc.expectedStatus == http.StatusOK {
				var got QuestionResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
				assert.Equal(t, card.ID, got.Card.ID)
				assert.Equal(t, string(domain.ResultWrong), got.LatestResult)
				assert.Equal(t, 3, got.Remaining)
			}
		})
	}
}

func TestRecordAnswer(t *testing.T) {
	userID := uuid.New()
	sessionID := uuid.New()
	cardID := uuid.New()

	attempt, err := domain.NewCardAttempt(sessionID, cardID, domain.ResultCorrect)
	require.NoError(t, err)

	tests := []struct {
		name           string
		body           interface{}
		serviceError   error
		expectedStatus int
	}{
		{
			name:           "Success",
			body:           AnswerRequest{CardID: cardID, Result: "correct"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Result Outside Vocabulary",
			body:           AnswerRequest{CardID: cardID, Result: "easy"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Unanswered Is Not Submittable",
			body:           AnswerRequest{CardID: cardID, Result: "unanswered"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Missing Card ID",
			body:           map[string]string{"result": "correct"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Not Owned",
			body:           AnswerRequest{CardID: cardID, Result: "wrong"},
			serviceError:   learning.ErrSessionNotOwned,
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var recorded domain.AttemptResult
			mockService := &mockLearningService{
				recordAnswerFn: func(ctx context.Context, userID, sessionID, cardID uuid.UUID, result domain.AttemptResult) (*domain.CardAttempt, error) {
					recorded = result
					return attempt, tc.serviceError
				},
			}
			handler := NewSessionHandler(mockService)

			req := newSessionRequest(t, http.MethodPost, "/sessions/"+sessionID.String()+"/answers", tc.body, userID, sessionID)
			rr := httptest.NewRecorder()

			handler.RecordAnswer(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)

			if tc.expectedStatus == http.StatusCreated {
				assert.Equal(t, domain.ResultCorrect, recorded)
				var got domain.CardAttempt
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
				assert.Equal(t, attempt.ID, got.ID)
			}
		})
	}
}

func TestSessionSummary(t *testing.T) {
	userID := uuid.New()
	sessionID := uuid.New()

	mockService := &mockLearningService{
		summarizeFn: func(ctx context.Context, userID, sessionID uuid.UUID) (*learning.Summary, error) {
			return &learning.Summary{
				SessionID:     sessionID,
				CategoryName:  "Geography",
				DistinctCards: 4,
				Elapsed:       90 * time.Second,
			}, nil
		},
	}
	handler := NewSessionHandler(mockService)

	req := newSessionRequest(t, http.MethodGet, "/sessions/"+sessionID.String()+"/summary", nil, userID, sessionID)
	rr := httptest.NewRecorder()

	handler.Summary(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got SummaryResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, sessionID, got.SessionID)
	assert.Equal(t, "Geography", got.CategoryName)
	assert.Equal(t, 4, got.DistinctCards)
	assert.InDelta(t, 90.0, got.ElapsedSeconds, 0.001)
}

func TestSessionRoutesRejectMalformedIDs(t *testing.T) {
	userID := uuid.New()

	mockService := &mockLearningService{}
	handler := NewSessionHandler(mockService)

	req := httptest.NewRequest(http.MethodGet, "/sessions/not-a-uuid/next", nil)
	ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "not-a-uuid")
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.Next(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
