package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shopease/shopease-backend/internal/user"
)

type CreateUserRequest struct {
	FirstName string `json:"first_name" validate:"required,min=2"`
	LastName  string `json:"last_name" validate:"required,min=2"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Role      string `json:"role" validate:"omitempty,oneof=user admin"`
}

type UpdateUserRequest struct {
	FirstName string  `json:"first_name" validate:"required,min=2"`
	LastName  string  `json:"last_name" validate:"required,min=2"`
	Email     string  `json:"email" validate:"required,email"`
	Password  *string `json:"password,omitempty" validate:"omitempty,min=8"`
	Role      string  `json:"role" validate:"omitempty,oneof=user admin"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type UserHandler struct {
	service  user.Service
	validate *validator.Validate
}

func NewUserHandler(service user.Service) *UserHandler {
	return &UserHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *UserHandler) RegisterRoutes(router chi.Router) {
	router.Post("/users", h.handleCreateUser)
	router.Post("/users/login", h.handleLogin)
	router.Get("/users", h.handleListUsers)
	router.Get("/users/{id}", h.handleGetUserByID)
	router.Get("/users/email/{email}", h.handleGetUserByEmail)
	router.Put("/users/{id}", h.handleUpdateUser)
	router.Delete("/users/{id}", h.handleDeleteUser)
}

func (h *UserHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, payload any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload %v", err))
		return false
	}

	if err := h.validate.Struct(payload); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "Validation failed",
				Details: formatValidationErrors(validationErrors),
			})
		} else {
			log.Error().Err(err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return false
	}

	return true
}

func (h *UserHandler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var payload CreateUserRequest
	if !h.decodeAndValidate(w, r, &payload) {
		return
	}

	domainUser := user.User{
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		Email:        payload.Email,
		PasswordHash: payload.Password,
		Role:         user.Role(payload.Role),
	}

	created, err := h.service.CreateUser(r.Context(), &domainUser)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, toUserResponse(created))
}

func (h *UserHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload LoginRequest
	if !h.decodeAndValidate(w, r, &payload) {
		return
	}

	u, err := h.service.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *UserHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), "failed to list users")
		return
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, toUserResponse(&users[i]))
	}
	respondWithJSON(w, http.StatusOK, responses)
}

func (h *UserHandler) handleGetUserByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	u, err := h.service.GetUserByID(r.Context(), id)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *UserHandler) handleGetUserByEmail(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if email == "" {
		respondWithError(w, http.StatusBadRequest, "email is required")
		return
	}

	u, err := h.service.GetUserByEmail(r.Context(), email)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *UserHandler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var payload UpdateUserRequest
	if !h.decodeAndValidate(w, r, &payload) {
		return
	}

	domainUser := user.User{
		ID:        id,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Role:      user.Role(payload.Role),
	}
	if payload.Password != nil {
		domainUser.PasswordHash = *payload.Password
	}

	if err := h.service.UpdateUser(r.Context(), &domainUser); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, toUserResponse(&domainUser))
}

func (h *UserHandler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
