package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shopease/shopease-backend/internal/catalog"
)

type ProductRequest struct {
	Name          string   `json:"name" validate:"required"`
	Brand         string   `json:"brand"`
	Description   string   `json:"description"`
	Category      string   `json:"category" validate:"required"`
	Price         float64  `json:"price" validate:"gte=0"`
	OriginalPrice *float64 `json:"original_price,omitempty"`
	Images        []string `json:"images" validate:"required,min=1"`
	Sizes         []string `json:"sizes"`
	Colors        []string `json:"colors"`
	Rating        float64  `json:"rating" validate:"gte=0,lte=5"`
	ReviewCount   int      `json:"review_count" validate:"gte=0"`
	InStock       bool     `json:"in_stock"`
	Featured      bool     `json:"featured"`
}

type CatalogHandler struct {
	service  catalog.Service
	validate *validator.Validate
}

func NewCatalogHandler(service catalog.Service) *CatalogHandler {
	return &CatalogHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *CatalogHandler) RegisterRoutes(router chi.Router) {
	router.Get("/products", h.handleListProducts)
	router.Post("/products", h.handleCreateProduct)
	router.Get("/products/{id}", h.handleGetProduct)
	router.Put("/products/{id}", h.handleUpdateProduct)
	router.Delete("/products/{id}", h.handleDeleteProduct)
}

func (h *CatalogHandler) decodeProduct(w http.ResponseWriter, r *http.Request) (*ProductRequest, bool) {
	var payload ProductRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&payload); err != nil {
		log.Error().Err(err).Msg("Failed to decode product request body")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload %v", err))
		return nil, false
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
		return nil, false
	}

	return &payload, true
}

func (p *ProductRequest) toDomain() *catalog.Product {
	return &catalog.Product{
		Name:          p.Name,
		Brand:         p.Brand,
		Description:   p.Description,
		Category:      p.Category,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Images:        p.Images,
		Sizes:         p.Sizes,
		Colors:        p.Colors,
		Rating:        p.Rating,
		ReviewCount:   p.ReviewCount,
		InStock:       p.InStock,
		Featured:      p.Featured,
	}
}

func (h *CatalogHandler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	var (
		products []catalog.Product
		err      error
	)
	switch {
	case r.URL.Query().Get("q") != "":
		products, err = h.service.SearchProducts(r.Context(), r.URL.Query().Get("q"), limit)
	case r.URL.Query().Get("category") != "":
		products, err = h.service.GetProductsByCategory(r.Context(), r.URL.Query().Get("category"), limit)
	case r.URL.Query().Get("featured") == "true":
		products, err = h.service.GetFeaturedProducts(r.Context(), limit)
	default:
		products, err = h.service.GetProducts(r.Context(), limit)
	}
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), "failed to list products")
		return
	}

	respondWithJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.service.GetProductByID(r.Context(), id)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	created, err := h.service.CreateProduct(r.Context(), payload.toDomain())
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *CatalogHandler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	payload, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	product := payload.toDomain()
	product.ID = id

	if err := h.service.UpdateProduct(r.Context(), product); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
