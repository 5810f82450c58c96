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
	"github.com/shopease/shopease-backend/internal/order"
	"github.com/shopease/shopease-backend/internal/realtime"
)

type PlaceOrderRequest struct {
	UserID          string `json:"user_id" validate:"required,uuid4"`
	ShippingAddress struct {
		Street   string `json:"street" validate:"required"`
		City     string `json:"city" validate:"required"`
		Province string `json:"province" validate:"required"`
		ZipCode  string `json:"zip_code" validate:"required"`
		Phone    string `json:"phone" validate:"required"`
	} `json:"shipping_address"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=cod card"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type OrderHandler struct {
	service  order.Service
	carts    cart.Service
	feed     *realtime.Hub
	validate *validator.Validate
}

func NewOrderHandler(service order.Service, carts cart.Service, feed *realtime.Hub) *OrderHandler {
	return &OrderHandler{
		service:  service,
		carts:    carts,
		feed:     feed,
		validate: validator.New(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Post("/orders", h.handlePlaceOrder)
	router.Get("/orders", h.handleListOrders)
	router.Get("/orders/stream", h.handleStream)
	router.Get("/orders/{id}", h.handleGetOrder)
	router.Patch("/orders/{id}/status", h.handleUpdateStatus)
}

func (h *OrderHandler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var payload PlaceOrderRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&payload); err != nil {
		log.Error().Err(err).Msg("Failed to decode place order request body")
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

	snapshot, err := h.carts.Items(r.Context(), userID)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), "failed to load cart")
		return
	}

	address := order.ShippingAddress{
		Street:   payload.ShippingAddress.Street,
		City:     payload.ShippingAddress.City,
		Province: payload.ShippingAddress.Province,
		ZipCode:  payload.ShippingAddress.ZipCode,
		Phone:    payload.ShippingAddress.Phone,
	}

	created, err := h.service.PlaceOrder(r.Context(), userID, snapshot, address, order.PaymentMethod(payload.PaymentMethod))
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.service.GetOrderByID(r.Context(), id)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, o)
}

// handleListOrders returns the caller's orders, or every order when admin=true
// is passed (admin dashboards).
func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("admin") == "true" {
		orders, err := h.service.ListOrders(r.Context())
		if err != nil {
			respondWithError(w, mapErrorToStatusCode(err), "failed to list orders")
			return
		}
		respondWithJSON(w, http.StatusOK, orders)
		return
	}

	userID, ok := userIDFromQuery(w, r)
	if !ok {
		return
	}

	orders, err := h.service.GetOrdersByUserID(r.Context(), userID)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), "failed to list orders")
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var payload UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "status is required")
		return
	}

	if err := h.service.UpdateOrderStatus(r.Context(), id, order.Status(payload.Status)); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("admin") == "true" {
		streamEvents(w, r, h.feed, realtime.TopicAllOrder)
		return
	}

	userID, ok := userIDFromQuery(w, r)
	if !ok {
		return
	}

	streamEvents(w, r, h.feed, realtime.TopicOrders+userID.String())
}
