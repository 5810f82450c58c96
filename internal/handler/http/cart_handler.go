package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shopease/shopease-backend/internal/cart"
	"github.com/shopease/shopease-backend/internal/realtime"
)

type AddItemRequest struct {
	UserID    string `json:"user_id" validate:"required,uuid4"`
	ProductID string `json:"product_id" validate:"required,uuid4"`
	Size      string `json:"size" validate:"required"`
	Color     string `json:"color" validate:"required"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1,max=10"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type BatchDeleteRequest struct {
	ItemIDs []string `json:"item_ids" validate:"required,min=1,dive,uuid4"`
}

type CartSummaryResponse struct {
	Items     []cart.Item `json:"items"`
	Total     float64     `json:"total"`
	UnitCount int         `json:"unit_count"`
}

type CartHandler struct {
	service  cart.Service
	feed     *realtime.Hub
	validate *validator.Validate
}

func NewCartHandler(service cart.Service, feed *realtime.Hub) *CartHandler {
	return &CartHandler{
		service:  service,
		feed:     feed,
		validate: validator.New(),
	}
}

func (h *CartHandler) RegisterRoutes(router chi.Router) {
	router.Get("/cart", h.handleGetCart)
	router.Delete("/cart", h.handleClearCart)
	router.Get("/cart/stream", h.handleStream)
	router.Post("/cart/items", h.handleAddItem)
	router.Patch("/cart/items/{id}", h.handleUpdateQuantity)
	router.Delete("/cart/items/{id}", h.handleRemoveItem)
	router.Post("/cart/items/batch-delete", h.handleBatchDelete)
}

func userIDFromQuery(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		respondWithError(w, http.StatusBadRequest, "user_id is required")
		return uuid.Nil, false
	}
	id, err := uuid.FromString(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid user_id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *CartHandler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromQuery(w, r)
	if !ok {
		return
	}

	items, err := h.service.Items(r.Context(), userID)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), "failed to load cart")
		return
	}

	respondWithJSON(w, http.StatusOK, CartSummaryResponse{
		Items:     items,
		Total:     cart.Total(items),
		UnitCount: cart.UnitCount(items),
	})
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var payload AddItemRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&payload); err != nil {
		log.Error().Err(err).Msg("Failed to decode add item request body")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload %v", err))
		return
	}

	if err := h.validate.Struct(payload); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "Validation failed",
				Details: formatValidationErrors(validationErrors),
			})
		} else {
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return
	}

	userID := uuid.FromStringOrNil(payload.UserID)
	productID := uuid.FromStringOrNil(payload.ProductID)
	quantity := payload.Quantity
	if quantity == 0 {
		quantity = 1
	}

	item, err := h.service.AddItem(r.Context(), userID, productID, payload.Size, payload.Color, quantity)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, item)
}

func (h *CartHandler) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var payload UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.service.UpdateQuantity(r.Context(), itemID, payload.Quantity)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}
	// A nil item means the quantity dropped to zero or the line was already
	// gone; either way it is absent now.
	if item == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	respondWithJSON(w, http.StatusOK, item)
}

func (h *CartHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.service.RemoveItem(r.Context(), itemID); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) handleBatchDelete(w http.ResponseWriter, r *http.Request) {
	var payload BatchDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Struct(payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "item_ids must be a non-empty list of ids")
		return
	}

	ids := make([]uuid.UUID, 0, len(payload.ItemIDs))
	for _, raw := range payload.ItemIDs {
		id, err := uuid.FromString(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid item id: "+raw)
			return
		}
		ids = append(ids, id)
	}

	if err := h.service.RemoveMany(r.Context(), ids); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromQuery(w, r)
	if !ok {
		return
	}

	if err := h.service.Clear(r.Context(), userID); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleStream replays the user's cart change feed over server-sent events
// until the client disconnects.
func (h *CartHandler) handleStream(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromQuery(w, r)
	if !ok {
		return
	}

	streamEvents(w, r, h.feed, realtime.TopicCart+userID.String())
}
