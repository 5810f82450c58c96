package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/shopease/shopease-backend/internal/cart"
	"github.com/shopease/shopease-backend/internal/catalog"
	"github.com/shopease/shopease-backend/internal/order"
	"github.com/shopease/shopease-backend/internal/user"
)

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

// respondWithError sends a JSON error body.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON sends the payload as a JSON response.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fieldErr := range errs {
		details[fieldErr.Field()] = "failed on '" + fieldErr.Tag() + "' validation"
	}
	return details
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, user.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrNotAuthenticated),
		errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, cart.ErrInvalidSelection),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrInvalidAddress),
		errors.Is(err, order.ErrInvalidPaymentMethod):
		return http.StatusUnprocessableEntity
	case errors.Is(err, order.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, user.ErrEmailExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
