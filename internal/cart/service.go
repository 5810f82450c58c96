package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shopease/shopease-backend/internal/catalog"
	"github.com/shopease/shopease-backend/internal/realtime"
)

var (
	ErrNotAuthenticated = errors.New("user is not authenticated")
	ErrInvalidSelection = errors.New("size or color not offered for this product")
	ErrInvalidQuantity  = fmt.Errorf("quantity must be between 1 and %d", MaxQuantity)
)

type Service interface {
	Items(ctx context.Context, userID uuid.UUID) ([]Item, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, size, color string, quantity int) (*Item, error)
	// UpdateQuantity sets a line item's quantity and recomputes its price from
	// the product's current price. A quantity of zero or less removes the
	// line. Returns (nil, nil) when the item no longer exists.
	UpdateQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (*Item, error)
	RemoveItem(ctx context.Context, itemID uuid.UUID) error
	RemoveMany(ctx context.Context, itemIDs []uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	// NewSelection returns a selection set bound to this cart: line items
	// removed from the ledger are evicted from it automatically. The caller
	// must Release the selection when its view session ends.
	NewSelection() *Selection
}

type service struct {
	repo     Repository
	products catalog.Repository
	feed     *realtime.Hub

	mu         sync.Mutex
	selections map[*Selection]struct{}
}

func NewService(repo Repository, products catalog.Repository, feed *realtime.Hub) Service {
	return &service{
		repo:       repo,
		products:   products,
		feed:       feed,
		selections: make(map[*Selection]struct{}),
	}
}

func (s *service) Items(ctx context.Context, userID uuid.UUID) ([]Item, error) {
	if userID == uuid.Nil {
		return []Item{}, nil
	}

	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to list cart items")
		return nil, fmt.Errorf("service: failed to list cart items: %w", err)
	}
	return items, nil
}

func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, size, color string, quantity int) (*Item, error) {
	if userID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}
	if quantity < 1 || quantity > MaxQuantity {
		return nil, ErrInvalidQuantity
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return nil, catalog.ErrProductNotFound
		}
		log.Error().Err(err).Stringer("product_id", productID).Msg("service: failed to resolve product for add")
		return nil, fmt.Errorf("service: failed to resolve product: %w", err)
	}

	if !product.HasSize(size) || !product.HasColor(color) {
		return nil, ErrInvalidSelection
	}

	existing, err := s.repo.FindByIdentity(ctx, userID, productID, size, color)
	if err != nil && !errors.Is(err, ErrItemNotFound) {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to look up cart item by identity")
		return nil, fmt.Errorf("service: failed to look up cart item: %w", err)
	}

	if existing != nil {
		merged := existing.Quantity + quantity
		if merged > MaxQuantity {
			merged = MaxQuantity
		}
		return s.UpdateQuantity(ctx, existing.ID, merged)
	}

	item := &Item{
		UserID:    userID,
		ProductID: productID,
		Size:      size,
		Color:     color,
		Quantity:  quantity,
		Price:     product.Price * float64(quantity),
	}
	if err := s.repo.Create(ctx, item); err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to create cart item")
		return nil, fmt.Errorf("service: failed to create cart item: %w", err)
	}

	s.publish(realtime.KindCreated, item)

	log.Info().
		Stringer("item_id", item.ID).
		Stringer("user_id", userID).
		Stringer("product_id", productID).
		Int("quantity", quantity).
		Msg("service: cart item added")
	return item, nil
}

func (s *service) UpdateQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (*Item, error) {
	// Decrementing to zero removes the line. Explicit policy, not an error.
	if quantity <= 0 {
		return nil, s.RemoveItem(ctx, itemID)
	}

	item, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, nil
		}
		log.Error().Err(err).Stringer("item_id", itemID).Msg("service: failed to load cart item for quantity update")
		return nil, fmt.Errorf("service: failed to load cart item: %w", err)
	}

	// Recompute price from the product's current price, never the cached one.
	product, err := s.products.GetByID(ctx, item.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			log.Warn().
				Stringer("item_id", itemID).
				Stringer("product_id", item.ProductID).
				Msg("service: cart item references missing product")
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("service: failed to resolve product: %w", err)
	}

	updated, err := s.repo.UpdateQuantity(ctx, itemID, quantity, product.Price*float64(quantity))
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, nil
		}
		log.Error().Err(err).Stringer("item_id", itemID).Msg("service: failed to update cart item quantity")
		return nil, fmt.Errorf("service: failed to update cart item quantity: %w", err)
	}

	s.publish(realtime.KindUpdated, updated)
	return updated, nil
}

func (s *service) RemoveItem(ctx context.Context, itemID uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, itemID)
	if err != nil {
		log.Error().Err(err).Stringer("item_id", itemID).Msg("service: failed to remove cart item")
		return fmt.Errorf("service: failed to remove cart item: %w", err)
	}
	// Removing an already-absent id is not an error.
	if deleted == nil {
		return nil
	}

	s.evictFromSelections(itemID)
	s.publish(realtime.KindDeleted, deleted)
	return nil
}

func (s *service) RemoveMany(ctx context.Context, itemIDs []uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}

	deleted, err := s.repo.DeleteMany(ctx, itemIDs)
	if err != nil {
		// The batch failed as a unit: no ledger rows were removed, so the
		// selection sets stay untouched to keep both sides consistent.
		log.Error().Err(err).Int("count", len(itemIDs)).Msg("service: failed to remove cart items")
		return fmt.Errorf("service: failed to remove cart items: %w", err)
	}

	for i := range deleted {
		s.evictFromSelections(deleted[i].ID)
		s.publish(realtime.KindDeleted, &deleted[i])
	}
	return nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return ErrNotAuthenticated
	}

	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("service: failed to list cart items for clear: %w", err)
	}

	if _, err := s.repo.DeleteByUser(ctx, userID); err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to clear cart")
		return fmt.Errorf("service: failed to clear cart: %w", err)
	}

	for i := range items {
		s.evictFromSelections(items[i].ID)
	}
	s.feed.Publish(realtime.Event{
		Topic: realtime.TopicCart + userID.String(),
		Kind:  realtime.KindDeleted,
		ID:    userID.String(),
	})

	log.Info().Stringer("user_id", userID).Int("count", len(items)).Msg("service: cart cleared")
	return nil
}

func (s *service) NewSelection() *Selection {
	sel := newSelection()

	s.mu.Lock()
	s.selections[sel] = struct{}{}
	s.mu.Unlock()

	sel.release = func() {
		s.mu.Lock()
		delete(s.selections, sel)
		s.mu.Unlock()
	}
	return sel
}

func (s *service) evictFromSelections(itemID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sel := range s.selections {
		sel.evict(itemID)
	}
}

func (s *service) publish(kind string, item *Item) {
	s.feed.Publish(realtime.Event{
		Topic:   realtime.TopicCart + item.UserID.String(),
		Kind:    kind,
		ID:      item.ID.String(),
		Payload: item,
	})
}
