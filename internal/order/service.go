package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shopease/shopease-backend/internal/cart"
	"github.com/shopease/shopease-backend/internal/catalog"
	"github.com/shopease/shopease-backend/internal/realtime"
)

var (
	ErrEmptyCart            = errors.New("cannot place an order from an empty cart")
	ErrInvalidPaymentMethod = errors.New("unsupported payment method")
	ErrInvalidTransition    = errors.New("invalid order status transition")
)

type Service interface {
	// PlaceOrder converts the given cart snapshot into a persisted order. The
	// order is written first; the user's cart is cleared only after the write
	// is confirmed, so a failure can never lose the order while emptying the
	// cart.
	PlaceOrder(ctx context.Context, userID uuid.UUID, snapshot []cart.Item, address ShippingAddress, method PaymentMethod) (*Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error
}

type service struct {
	repo     Repository
	carts    cart.Service
	products catalog.Repository
	feed     *realtime.Hub
}

func NewService(repo Repository, carts cart.Service, products catalog.Repository, feed *realtime.Hub) Service {
	return &service{
		repo:     repo,
		carts:    carts,
		products: products,
		feed:     feed,
	}
}

func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, snapshot []cart.Item, address ShippingAddress, method PaymentMethod) (*Order, error) {
	if userID == uuid.Nil {
		return nil, cart.ErrNotAuthenticated
	}
	if len(snapshot) == 0 {
		return nil, ErrEmptyCart
	}
	if err := address.Validate(); err != nil {
		return nil, err
	}
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, method)
	}

	// Capture every line by value so later catalog edits cannot rewrite
	// order history, and recompute the total from these snapshots rather
	// than trusting the cart's cached prices.
	items := make([]Item, 0, len(snapshot))
	total := 0.0
	for _, line := range snapshot {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				log.Warn().
					Stringer("user_id", userID).
					Stringer("product_id", line.ProductID).
					Msg("service: cart line references missing product, rejecting order")
				return nil, fmt.Errorf("%w: product %s", catalog.ErrProductNotFound, line.ProductID)
			}
			return nil, fmt.Errorf("service: failed to resolve product for order: %w", err)
		}

		items = append(items, Item{
			ProductID: line.ProductID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  line.Quantity,
			Size:      line.Size,
			Color:     line.Color,
		})
		total += product.Price * float64(line.Quantity)
	}

	newOrder := &Order{
		UserID:          userID,
		Items:           items,
		Total:           total,
		Status:          StatusPending,
		ShippingAddress: address,
		PaymentMethod:   method,
	}

	if err := s.repo.Create(ctx, newOrder); err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to persist order, cart left untouched")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	// The order exists; an unfinished clear leaves a stale cart, which is the
	// safe direction of partial failure.
	if err := s.carts.Clear(ctx, userID); err != nil {
		log.Error().Err(err).
			Stringer("order_id", newOrder.ID).
			Stringer("user_id", userID).
			Msg("service: order persisted but cart clear failed")
	}

	s.publish(realtime.KindCreated, newOrder)

	log.Info().
		Stringer("order_id", newOrder.ID).
		Stringer("user_id", userID).
		Float64("total", total).
		Msg("service: order created successfully")
	return newOrder, nil
}

func (s *service) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to fetch order by id")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}
	return order, nil
}

func (s *service) GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to fetch user orders")
		return nil, fmt.Errorf("service: failed to fetch user orders: %w", err)
	}
	return orders, nil
}

func (s *service) ListOrders(ctx context.Context) ([]Order, error) {
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to fetch orders")
		return nil, fmt.Errorf("service: failed to fetch orders: %w", err)
	}
	return orders, nil
}

func (s *service) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error {
	if !newStatus.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, newStatus)
	}

	current, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to get order for status update")
		return fmt.Errorf("service: failed to get order for status update: %w", err)
	}

	if current.Status == newStatus {
		log.Info().Stringer("order_id", orderID).Stringer("status", newStatus).Msg("service: order status already set, no update needed")
		return nil
	}

	if !CanTransition(current.Status, newStatus) {
		log.Warn().
			Stringer("order_id", orderID).
			Stringer("current_status", current.Status).
			Stringer("new_status", newStatus).
			Msg("service: invalid status transition attempt")
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, newStatus)
	}

	if err := s.repo.UpdateStatus(ctx, orderID, newStatus); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Stringer("new_status", newStatus).Msg("service: failed to update order status")
		return fmt.Errorf("service: failed to update order status: %w", err)
	}

	current.Status = newStatus
	s.publish(realtime.KindUpdated, current)

	log.Info().
		Stringer("order_id", orderID).
		Stringer("new_status", newStatus).
		Msg("service: order status updated successfully")
	return nil
}

func (s *service) publish(kind string, o *Order) {
	ev := realtime.Event{
		Topic:   realtime.TopicOrders + o.UserID.String(),
		Kind:    kind,
		ID:      o.ID.String(),
		Payload: o,
	}
	s.feed.Publish(ev)

	ev.Topic = realtime.TopicAllOrder
	s.feed.Publish(ev)
}
