package api

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/phrazzld/flashlearn-api/internal/api/shared"
	"github.com/phrazzld/flashlearn-api/internal/domain"
	"github.com/phrazzld/flashlearn-api/internal/generation"
	"github.com/phrazzld/flashlearn-api/internal/service"
)

// Pagination defaults for list endpoints.
const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// defaultDraftCount is used when a generate request omits the count.
const defaultDraftCount = 5

// CategoryHandler handles category-related API requests, including listing a
// category's cards and drafting new ones.
type CategoryHandler struct {
	cardService service.CardService
	generator   generation.Generator
	validator   *validator.Validate
}

// NewCategoryHandler creates a new CategoryHandler with the given
// dependencies. generator may be nil, which disables the generate endpoint.
func NewCategoryHandler(cardService service.CardService, generator generation.Generator) *CategoryHandler {
	return &CategoryHandler{
		cardService: cardService,
		generator:   generator,
		validator:   validator.New(),
	}
}

// Create handles POST /categories.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest

	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	category, err := h.cardService.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, category)
}

// List handles GET /categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)

	categories, err := h.cardService.ListCategories(r.Context(), limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, categories)
}

// Get handles GET /categories/{id}.
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := getPathUUID(r, "id")
	if !ok {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid id")
		return
	}

	category, err := h.cardService.GetCategory(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, category)
}

// Update handles PUT /categories/{id}.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := getPathUUID(r, "id")
	if !ok {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid id")
		return
	}

	var req CategoryRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	category, err := h.cardService.UpdateCategory(r.Context(), id, req.Name, req.Description)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, category)
}

// Delete handles DELETE /categories/{id}.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := getPathUUID(r, "id")
	if !ok {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid id")
		return
	}

	if err := h.cardService.DeleteCategory(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListCards handles GET /categories/{id}/cards: the cards in the category
// visible to the requesting user.
func (h *CategoryHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	userID, categoryID, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	limit, offset := paginationParams(r)

	cards, err := h.cardService.ListCards(r.Context(), categoryID, userID, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cards)
}

// GenerateCards handles POST /categories/{id}/generate: drafting cards for a
// topic and persisting them as the user's flashcards in the category.
func (h *CategoryHandler) GenerateCards(w http.ResponseWriter, r *http.Request) {
	if h.generator == nil {
		shared.RespondWithError(w, r, http.StatusNotImplemented, "Card generation is not configured")
		return
	}

	userID, categoryID, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req GenerateCardsRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	count := req.Count
	if count == 0 {
		count = defaultDraftCount
	}

	// Verify the category before calling the model; a bad ID should not
	// cost an upstream round trip.
	if _, err := h.cardService.GetCategory(r.Context(), categoryID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	drafts, err := h.generator.GenerateDrafts(r.Context(), req.Topic, count)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	cards := make([]*domain.Flashcard, 0, len(drafts))
	for _, draft := range drafts {
		card, err := h.cardService.CreateCard(
			r.Context(), userID, domain.CardKindText,
			draft.Front, draft.Back, []uuid.UUID{categoryID})
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		cards = append(cards, card)
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, GenerateCardsResponse{Cards: cards})
}

// paginationParams reads limit/offset query parameters with defaults.
func paginationParams(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
