package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shopease/shopease-backend/internal/realtime"
)

const defaultListLimit = 20

type Service interface {
	CreateProduct(ctx context.Context, product *Product) (*Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*Product, error)
	UpdateProduct(ctx context.Context, product *Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetProducts(ctx context.Context, limit int) ([]Product, error)
	GetProductsByCategory(ctx context.Context, category string, limit int) ([]Product, error)
	GetFeaturedProducts(ctx context.Context, limit int) ([]Product, error)
	SearchProducts(ctx context.Context, term string, limit int) ([]Product, error)
}

type service struct {
	repo Repository
	feed *realtime.Hub
}

func NewService(repo Repository, feed *realtime.Hub) Service {
	return &service{repo: repo, feed: feed}
}

func validateProduct(p *Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("service: product name is required")
	}
	if p.Price < 0 {
		return fmt.Errorf("service: product price must be non-negative, got %f", p.Price)
	}
	if p.OriginalPrice != nil && *p.OriginalPrice < p.Price {
		return errors.New("service: original price must be greater than or equal to price")
	}
	if len(p.Images) == 0 {
		return errors.New("service: product must have at least one image")
	}
	if p.Rating < 0 || p.Rating > 5 {
		return fmt.Errorf("service: product rating must be between 0 and 5, got %f", p.Rating)
	}
	if p.ReviewCount < 0 {
		return errors.New("service: review count must be non-negative")
	}
	return nil
}

func (s *service) CreateProduct(ctx context.Context, product *Product) (*Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, product); err != nil {
		log.Error().Err(err).Msg("service: failed to create product in repository")
		return nil, fmt.Errorf("service: failed to create product: %w", err)
	}

	s.feed.Publish(realtime.Event{
		Topic:   realtime.TopicProducts,
		Kind:    realtime.KindCreated,
		ID:      product.ID.String(),
		Payload: product,
	})

	log.Info().Stringer("product_id", product.ID).Str("name", product.Name).Msg("service: product created")
	return product, nil
}

func (s *service) GetProductByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to fetch product by id")
		return nil, fmt.Errorf("service: failed to fetch product by id: %w", err)
	}
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, product *Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, product); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return ErrProductNotFound
		}
		log.Error().Err(err).Stringer("product_id", product.ID).Msg("service: failed to update product")
		return fmt.Errorf("service: failed to update product: %w", err)
	}

	s.feed.Publish(realtime.Event{
		Topic:   realtime.TopicProducts,
		Kind:    realtime.KindUpdated,
		ID:      product.ID.String(),
		Payload: product,
	})

	return nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return ErrProductNotFound
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to delete product")
		return fmt.Errorf("service: failed to delete product: %w", err)
	}

	s.feed.Publish(realtime.Event{
		Topic: realtime.TopicProducts,
		Kind:  realtime.KindDeleted,
		ID:    id.String(),
	})

	return nil
}

func (s *service) GetProducts(ctx context.Context, limit int) ([]Product, error) {
	return s.list(ctx, ListFilter{Limit: normalizeLimit(limit)})
}

func (s *service) GetProductsByCategory(ctx context.Context, category string, limit int) ([]Product, error) {
	return s.list(ctx, ListFilter{Category: category, Limit: normalizeLimit(limit)})
}

func (s *service) GetFeaturedProducts(ctx context.Context, limit int) ([]Product, error) {
	return s.list(ctx, ListFilter{FeaturedOnly: true, Limit: normalizeLimit(limit)})
}

// SearchProducts performs a case-insensitive substring match over name, brand
// and description of a fetched page of products.
func (s *service) SearchProducts(ctx context.Context, term string, limit int) ([]Product, error) {
	products, err := s.list(ctx, ListFilter{Limit: normalizeLimit(limit)})
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(term)
	matched := make([]Product, 0)
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Brand), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func (s *service) list(ctx context.Context, filter ListFilter) ([]Product, error) {
	products, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list products")
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}
	return products, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}
