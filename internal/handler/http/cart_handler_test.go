package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shopease/shopease-backend/internal/cart"
	"github.com/shopease/shopease-backend/internal/realtime"
)

type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) Items(ctx context.Context, userID uuid.UUID) ([]cart.Item, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]cart.Item)
	return items, args.Error(1)
}

func (m *MockCartService) AddItem(ctx context.Context, userID, productID uuid.UUID, size, color string, quantity int) (*cart.Item, error) {
	args := m.Called(ctx, userID, productID, size, color, quantity)
	item, _ := args.Get(0).(*cart.Item)
	return item, args.Error(1)
}

func (m *MockCartService) UpdateQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (*cart.Item, error) {
	args := m.Called(ctx, itemID, quantity)
	item, _ := args.Get(0).(*cart.Item)
	return item, args.Error(1)
}

func (m *MockCartService) RemoveItem(ctx context.Context, itemID uuid.UUID) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}

func (m *MockCartService) RemoveMany(ctx context.Context, itemIDs []uuid.UUID) error {
	args := m.Called(ctx, itemIDs)
	return args.Error(0)
}

func (m *MockCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockCartService) NewSelection() *cart.Selection {
	args := m.Called()
	sel, _ := args.Get(0).(*cart.Selection)
	return sel
}

func newCartRouter(service cart.Service) chi.Router {
	router := chi.NewRouter()
	NewCartHandler(service, realtime.NewHub()).RegisterRoutes(router)
	return router
}

func TestCartHandler_GetCart(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	items := []cart.Item{
		{ID: uuid.Must(uuid.NewV4()), UserID: userID, Quantity: 2, Price: 240},
		{ID: uuid.Must(uuid.NewV4()), UserID: userID, Quantity: 1, Price: 25},
	}

	mockService := new(MockCartService)
	mockService.On("Items", mock.Anything, userID).Return(items, nil)
	router := newCartRouter(mockService)

	req := httptest.NewRequest(http.MethodGet, "/cart?user_id="+userID.String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var got CartSummaryResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))

	want := CartSummaryResponse{Items: items, Total: 265, UnitCount: 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("cart summary mismatch (-want +got):\n%s", diff)
	}
	mockService.AssertExpectations(t)
}

func TestCartHandler_GetCart_MissingUserID(t *testing.T) {
	router := newCartRouter(new(MockCartService))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCartHandler_AddItem(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	productID := uuid.Must(uuid.NewV4())
	created := &cart.Item{
		ID:        uuid.Must(uuid.NewV4()),
		UserID:    userID,
		ProductID: productID,
		Size:      "M",
		Color:     "Red",
		Quantity:  2,
		Price:     240,
	}

	mockService := new(MockCartService)
	mockService.On("AddItem", mock.Anything, userID, productID, "M", "Red", 2).Return(created, nil)
	router := newCartRouter(mockService)

	body, err := json.Marshal(AddItemRequest{
		UserID:    userID.String(),
		ProductID: productID.String(),
		Size:      "M",
		Color:     "Red",
		Quantity:  2,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/cart/items", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var got cart.Item
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)
	mockService.AssertExpectations(t)
}

func TestCartHandler_AddItem_ValidationFailure(t *testing.T) {
	mockService := new(MockCartService)
	router := newCartRouter(mockService)

	body := []byte(`{"size": "M", "color": "Red", "quantity": 1}`)
	req := httptest.NewRequest(http.MethodPost, "/cart/items", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	mockService.AssertNotCalled(t, "AddItem")
}

func TestCartHandler_AddItem_InvalidSelection(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	productID := uuid.Must(uuid.NewV4())

	mockService := new(MockCartService)
	mockService.On("AddItem", mock.Anything, userID, productID, "XXL", "Red", 1).
		Return(nil, cart.ErrInvalidSelection)
	router := newCartRouter(mockService)

	body := fmt.Sprintf(`{"user_id": %q, "product_id": %q, "size": "XXL", "color": "Red"}`,
		userID, productID)
	req := httptest.NewRequest(http.MethodPost, "/cart/items", bytes.NewReader([]byte(body)))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestCartHandler_UpdateQuantity_RemovedLine(t *testing.T) {
	itemID := uuid.Must(uuid.NewV4())

	mockService := new(MockCartService)
	mockService.On("UpdateQuantity", mock.Anything, itemID, 0).Return(nil, nil)
	router := newCartRouter(mockService)

	req := httptest.NewRequest(http.MethodPatch, "/cart/items/"+itemID.String(),
		bytes.NewReader([]byte(`{"quantity": 0}`)))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	mockService.AssertExpectations(t)
}

func TestCartHandler_BatchDelete(t *testing.T) {
	ids := []uuid.UUID{uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())}

	mockService := new(MockCartService)
	mockService.On("RemoveMany", mock.Anything, ids).Return(nil)
	router := newCartRouter(mockService)

	body := fmt.Sprintf(`{"item_ids": [%q, %q]}`, ids[0], ids[1])
	req := httptest.NewRequest(http.MethodPost, "/cart/items/batch-delete",
		bytes.NewReader([]byte(body)))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	mockService.AssertExpectations(t)
}

func TestCartHandler_BatchDelete_EmptyList(t *testing.T) {
	mockService := new(MockCartService)
	router := newCartRouter(mockService)

	req := httptest.NewRequest(http.MethodPost, "/cart/items/batch-delete",
		bytes.NewReader([]byte(`{"item_ids": []}`)))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	mockService.AssertNotCalled(t, "RemoveMany")
}
