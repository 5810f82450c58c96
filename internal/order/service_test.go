package order_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopease/shopease-backend/internal/cart"
	"github.com/shopease/shopease-backend/internal/catalog"
	"github.com/shopease/shopease-backend/internal/order"
	"github.com/shopease/shopease-backend/internal/realtime"
)

type mockOrderRepo struct {
	createFn       func(ctx context.Context, o *order.Order) error
	getByIDFn      func(ctx context.Context, id uuid.UUID) (*order.Order, error)
	updateStatusFn func(ctx context.Context, orderID uuid.UUID, newStatus order.Status) error
	listByUserFn   func(ctx context.Context, userID uuid.UUID) ([]order.Order, error)
	listAllFn      func(ctx context.Context) ([]order.Order, error)
}

func (m *mockOrderRepo) Create(ctx context.Context, o *order.Order) error {
	return m.createFn(ctx, o)
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus order.Status) error {
	return m.updateStatusFn(ctx, orderID, newStatus)
}

func (m *mockOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]order.Order, error) {
	return m.listByUserFn(ctx, userID)
}

func (m *mockOrderRepo) ListAll(ctx context.Context) ([]order.Order, error) {
	return m.listAllFn(ctx)
}

// stubCartService records Clear calls; the embedded interface panics for
// anything an order test should never touch.
type stubCartService struct {
	cart.Service
	cleared  []uuid.UUID
	clearErr error
}

func (s *stubCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	s.cleared = append(s.cleared, userID)
	return nil
}

type stubCatalogRepo struct {
	products map[uuid.UUID]catalog.Product
}

func (s *stubCatalogRepo) Create(ctx context.Context, p *catalog.Product) error {
	s.products[p.ID] = *p
	return nil
}

func (s *stubCatalogRepo) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return &p, nil
}

func (s *stubCatalogRepo) Update(ctx context.Context, p *catalog.Product) error {
	s.products[p.ID] = *p
	return nil
}

func (s *stubCatalogRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.products, id)
	return nil
}

func (s *stubCatalogRepo) List(ctx context.Context, filter catalog.ListFilter) ([]catalog.Product, error) {
	return nil, nil
}

func validAddress() order.ShippingAddress {
	return order.ShippingAddress{
		Street:   "12 Rizal Ave",
		City:     "Manila",
		Province: "Metro Manila",
		ZipCode:  "1000",
		Phone:    "+63 912 345 6789",
	}
}

func fixtureCatalog() (*stubCatalogRepo, catalog.Product, catalog.Product) {
	shoe := catalog.Product{
		ID:    uuid.Must(uuid.NewV4()),
		Name:  "Air Runner",
		Price: 120,
	}
	shirt := catalog.Product{
		ID:    uuid.Must(uuid.NewV4()),
		Name:  "Crew Tee",
		Price: 25,
	}
	repo := &stubCatalogRepo{products: map[uuid.UUID]catalog.Product{
		shoe.ID:  shoe,
		shirt.ID: shirt,
	}}
	return repo, shoe, shirt
}

func TestOrderService_PlaceOrder_Success(t *testing.T) {
	catalogRepo, shoe, shirt := fixtureCatalog()
	userID := uuid.Must(uuid.NewV4())

	snapshot := []cart.Item{
		// Cached prices are stale on purpose: the total must come from the
		// catalog, not from these.
		{ID: uuid.Must(uuid.NewV4()), UserID: userID, ProductID: shoe.ID, Quantity: 2, Price: 1},
		{ID: uuid.Must(uuid.NewV4()), UserID: userID, ProductID: shirt.ID, Quantity: 1, Price: 1, Size: "M", Color: "White"},
	}

	var persisted *order.Order
	repo := &mockOrderRepo{
		createFn: func(ctx context.Context, o *order.Order) error {
			o.ID = uuid.Must(uuid.NewV4())
			persisted = o
			return nil
		},
	}
	carts := &stubCartService{}
	svc := order.NewService(repo, carts, catalogRepo, realtime.NewHub())

	placed, err := svc.PlaceOrder(context.Background(), userID, snapshot, validAddress(), order.PaymentCashOnDelivery)
	require.NoError(t, err)
	require.NotNil(t, placed)
	require.NotNil(t, persisted)

	assert.Equal(t, order.StatusPending, placed.Status)
	assert.Equal(t, 2*120.0+25.0, placed.Total)
	require.Len(t, placed.Items, 2)
	assert.Equal(t, "Air Runner", placed.Items[0].Name)
	assert.Equal(t, 120.0, placed.Items[0].UnitPrice)
	assert.Equal(t, "M", placed.Items[1].Size)

	require.Len(t, carts.cleared, 1)
	assert.Equal(t, userID, carts.cleared[0], "the cart is cleared after the order is persisted")
}

func TestOrderService_PlaceOrder_Validation(t *testing.T) {
	catalogRepo, shoe, _ := fixtureCatalog()
	userID := uuid.Must(uuid.NewV4())
	line := cart.Item{ID: uuid.Must(uuid.NewV4()), UserID: userID, ProductID: shoe.ID, Quantity: 1}

	blankCity := validAddress()
	blankCity.City = "  "

	tests := []struct {
		name      string
		userID    uuid.UUID
		snapshot  []cart.Item
		address   order.ShippingAddress
		method    order.PaymentMethod
		wantErrIs error
	}{
		{
			name:      "no_user",
			userID:    uuid.Nil,
			snapshot:  []cart.Item{line},
			address:   validAddress(),
			method:    order.PaymentCashOnDelivery,
			wantErrIs: cart.ErrNotAuthenticated,
		},
		{
			name:      "empty_cart",
			userID:    userID,
			snapshot:  nil,
			address:   validAddress(),
			method:    order.PaymentCashOnDelivery,
			wantErrIs: order.ErrEmptyCart,
		},
		{
			name:      "blank_address_field",
			userID:    userID,
			snapshot:  []cart.Item{line},
			address:   blankCity,
			method:    order.PaymentCashOnDelivery,
			wantErrIs: order.ErrInvalidAddress,
		},
		{
			name:      "unsupported_payment_method",
			userID:    userID,
			snapshot:  []cart.Item{line},
			address:   validAddress(),
			method:    order.PaymentMethod("wire"),
			wantErrIs: order.ErrInvalidPaymentMethod,
		},
		{
			name:   "missing_product",
			userID: userID,
			snapshot: []cart.Item{
				{ID: uuid.Must(uuid.NewV4()), UserID: userID, ProductID: uuid.Must(uuid.NewV4()), Quantity: 1},
			},
			address:   validAddress(),
			method:    order.PaymentCashOnDelivery,
			wantErrIs: catalog.ErrProductNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockOrderRepo{
				createFn: func(ctx context.Context, o *order.Order) error {
					t.Fatal("Create must not be called for an invalid order")
					return nil
				},
			}
			carts := &stubCartService{}
			svc := order.NewService(repo, carts, catalogRepo, realtime.NewHub())

			placed, err := svc.PlaceOrder(context.Background(), tt.userID, tt.snapshot, tt.address, tt.method)
			assert.Nil(t, placed)
			assert.True(t, errors.Is(err, tt.wantErrIs), "expected %v, got %v", tt.wantErrIs, err)
			assert.Empty(t, carts.cleared, "a rejected order must leave the cart alone")
		})
	}
}

func TestOrderService_PlaceOrder_PersistFailureKeepsCart(t *testing.T) {
	catalogRepo, shoe, _ := fixtureCatalog()
	userID := uuid.Must(uuid.NewV4())
	snapshot := []cart.Item{{ID: uuid.Must(uuid.NewV4()), UserID: userID, ProductID: shoe.ID, Quantity: 1}}

	repo := &mockOrderRepo{
		createFn: func(ctx context.Context, o *order.Order) error {
			return errors.New("connection reset")
		},
	}
	carts := &stubCartService{}
	svc := order.NewService(repo, carts, catalogRepo, realtime.NewHub())

	placed, err := svc.PlaceOrder(context.Background(), userID, snapshot, validAddress(), order.PaymentCard)
	assert.Nil(t, placed)
	require.Error(t, err)
	assert.Empty(t, carts.cleared, "the cart must not be cleared when the order write fails")
}

func TestOrderService_PlaceOrder_ClearFailureStillReturnsOrder(t *testing.T) {
	catalogRepo, shoe, _ := fixtureCatalog()
	userID := uuid.Must(uuid.NewV4())
	snapshot := []cart.Item{{ID: uuid.Must(uuid.NewV4()), UserID: userID, ProductID: shoe.ID, Quantity: 1}}

	repo := &mockOrderRepo{
		createFn: func(ctx context.Context, o *order.Order) error {
			o.ID = uuid.Must(uuid.NewV4())
			return nil
		},
	}
	carts := &stubCartService{clearErr: errors.New("connection reset")}
	svc := order.NewService(repo, carts, catalogRepo, realtime.NewHub())

	placed, err := svc.PlaceOrder(context.Background(), userID, snapshot, validAddress(), order.PaymentCard)
	require.NoError(t, err, "a failed cart clear must not fail the already persisted order")
	require.NotNil(t, placed)
	assert.NotEqual(t, uuid.Nil, placed.ID)
}

func TestOrderService_PlaceOrder_SnapshotSurvivesCatalogEdits(t *testing.T) {
	catalogRepo, shoe, _ := fixtureCatalog()
	userID := uuid.Must(uuid.NewV4())
	snapshot := []cart.Item{{ID: uuid.Must(uuid.NewV4()), UserID: userID, ProductID: shoe.ID, Quantity: 1}}

	repo := &mockOrderRepo{
		createFn: func(ctx context.Context, o *order.Order) error {
			o.ID = uuid.Must(uuid.NewV4())
			return nil
		},
	}
	svc := order.NewService(repo, &stubCartService{}, catalogRepo, realtime.NewHub())

	placed, err := svc.PlaceOrder(context.Background(), userID, snapshot, validAddress(), order.PaymentCard)
	require.NoError(t, err)

	// Rename and reprice the product, then delete it entirely.
	shoe.Name = "Air Runner v2"
	shoe.Price = 999
	require.NoError(t, catalogRepo.Update(context.Background(), &shoe))
	require.NoError(t, catalogRepo.Delete(context.Background(), shoe.ID))

	assert.Equal(t, "Air Runner", placed.Items[0].Name)
	assert.Equal(t, 120.0, placed.Items[0].UnitPrice)
	assert.Equal(t, 120.0, placed.Total)
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	orderID := uuid.Must(uuid.NewV4())

	tests := []struct {
		name       string
		current    order.Status
		next       order.Status
		wantErrIs  error
		wantUpdate bool
	}{
		{name: "pending_to_confirmed", current: order.StatusPending, next: order.StatusConfirmed, wantUpdate: true},
		{name: "pending_to_cancelled", current: order.StatusPending, next: order.StatusCancelled, wantUpdate: true},
		{name: "confirmed_to_shipped", current: order.StatusConfirmed, next: order.StatusShipped, wantUpdate: true},
		{name: "shipped_to_delivered", current: order.StatusShipped, next: order.StatusDelivered, wantUpdate: true},
		{name: "same_status_is_noop", current: order.StatusProcessing, next: order.StatusProcessing},
		{name: "delivered_is_terminal", current: order.StatusDelivered, next: order.StatusPending, wantErrIs: order.ErrInvalidTransition},
		{name: "cancelled_is_terminal", current: order.StatusCancelled, next: order.StatusConfirmed, wantErrIs: order.ErrInvalidTransition},
		{name: "no_skipping_back", current: order.StatusShipped, next: order.StatusCancelled, wantErrIs: order.ErrInvalidTransition},
		{name: "unknown_status", current: order.StatusPending, next: order.Status("mislaid"), wantErrIs: order.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated := false
			repo := &mockOrderRepo{
				getByIDFn: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
					return &order.Order{ID: id, UserID: uuid.Must(uuid.NewV4()), Status: tt.current}, nil
				},
				updateStatusFn: func(ctx context.Context, id uuid.UUID, newStatus order.Status) error {
					updated = true
					assert.Equal(t, tt.next, newStatus)
					return nil
				},
			}
			svc := order.NewService(repo, &stubCartService{}, &stubCatalogRepo{}, realtime.NewHub())

			err := svc.UpdateOrderStatus(context.Background(), orderID, tt.next)
			if tt.wantErrIs != nil {
				assert.True(t, errors.Is(err, tt.wantErrIs), "expected %v, got %v", tt.wantErrIs, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantUpdate, updated)
		})
	}
}

func TestOrderService_UpdateOrderStatus_NotFound(t *testing.T) {
	repo := &mockOrderRepo{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
			return nil, order.ErrOrderNotFound
		},
	}
	svc := order.NewService(repo, &stubCartService{}, &stubCatalogRepo{}, realtime.NewHub())

	err := svc.UpdateOrderStatus(context.Background(), uuid.Must(uuid.NewV4()), order.StatusConfirmed)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestOrderService_GetOrderByID_NotFound(t *testing.T) {
	repo := &mockOrderRepo{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
			return nil, order.ErrOrderNotFound
		},
	}
	svc := order.NewService(repo, &stubCartService{}, &stubCatalogRepo{}, realtime.NewHub())

	got, err := svc.GetOrderByID(context.Background(), uuid.Must(uuid.NewV4()))
	assert.Nil(t, got)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}
