package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/flashlearn-api/internal/api/shared"
	"github.com/phrazzld/flashlearn-api/internal/domain"
	"github.com/phrazzld/flashlearn-api/internal/service/learning"
)

// SessionHandler handles learning session API requests.
type SessionHandler struct {
	learningService learning.LearningService
	validator       *validator.Validate
}

// NewSessionHandler creates a new SessionHandler with the given dependencies.
func NewSessionHandler(learningService learning.LearningService) *SessionHandler {
	return &SessionHandler{
		learningService: learningService,
		validator:       validator.New(),
	}
}

// Create handles POST /sessions: building a new session from a random sample
// of the category's cards.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateSessionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	session, err := h.learningService.BuildSession(r.Context(), userID, req.CategoryID, req.CardCount)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, session)
}

// Next handles GET /sessions/{id}/next: the next card to present. A session
// with no cards left to answer yields 204 No Content.
func (h *SessionHandler) Next(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	question, err := h.learningService.NextQuestion(r.Context(), userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	resp := QuestionResponse{
		Card:      question.Card,
		Remaining: question.Remaining,
	}
	if question.LatestAttempt != nil {
		resp.LatestResult = string(question.LatestAttempt.Result)
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// RecordAnswer handles POST /sessions/{id}/answers: appending an attempt for
// a card within the session.
func (h *SessionHandler) RecordAnswer(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req AnswerRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	attempt, err := h.learningService.RecordAnswer(
		r.Context(), userID, sessionID, req.CardID,
		domain.AttemptResult(req.Result))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, attempt)
}

// Summary handles GET /sessions/{id}/summary.
func (h *SessionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	summary, err := h.learningService.Summarize(r.Context(), userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewSummaryResponse(
		summary.SessionID, summary.CategoryName, summary.DistinctCards, summary.Elapsed))
}
