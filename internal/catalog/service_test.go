package catalog_test

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopease/shopease-backend/internal/catalog"
	"github.com/shopease/shopease-backend/internal/realtime"
)

type mockProductRepo struct {
	createFn  func(ctx context.Context, p *catalog.Product) error
	getByIDFn func(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
	updateFn  func(ctx context.Context, p *catalog.Product) error
	deleteFn  func(ctx context.Context, id uuid.UUID) error
	listFn    func(ctx context.Context, filter catalog.ListFilter) ([]catalog.Product, error)
}

func (m *mockProductRepo) Create(ctx context.Context, p *catalog.Product) error {
	return m.createFn(ctx, p)
}

func (m *mockProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockProductRepo) Update(ctx context.Context, p *catalog.Product) error {
	return m.updateFn(ctx, p)
}

func (m *mockProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func (m *mockProductRepo) List(ctx context.Context, filter catalog.ListFilter) ([]catalog.Product, error) {
	return m.listFn(ctx, filter)
}

func validProduct() *catalog.Product {
	return &catalog.Product{
		Name:   "Air Runner",
		Brand:  "Nike",
		Price:  120,
		Images: []string{"https://img.example/air-runner.jpg"},
		Rating: 4.5,
	}
}

func TestCatalogService_CreateProduct_Validation(t *testing.T) {
	higher := 200.0
	lower := 50.0

	tests := []struct {
		name    string
		mutate  func(p *catalog.Product)
		wantErr bool
	}{
		{name: "valid", mutate: func(p *catalog.Product) {}},
		{name: "valid_with_discount", mutate: func(p *catalog.Product) { p.OriginalPrice = &higher }},
		{name: "blank_name", mutate: func(p *catalog.Product) { p.Name = "  " }, wantErr: true},
		{name: "negative_price", mutate: func(p *catalog.Product) { p.Price = -1 }, wantErr: true},
		{name: "original_below_price", mutate: func(p *catalog.Product) { p.OriginalPrice = &lower }, wantErr: true},
		{name: "no_images", mutate: func(p *catalog.Product) { p.Images = nil }, wantErr: true},
		{name: "rating_out_of_range", mutate: func(p *catalog.Product) { p.Rating = 5.5 }, wantErr: true},
		{name: "negative_review_count", mutate: func(p *catalog.Product) { p.ReviewCount = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created := false
			repo := &mockProductRepo{
				createFn: func(ctx context.Context, p *catalog.Product) error {
					created = true
					p.ID = uuid.Must(uuid.NewV4())
					return nil
				},
			}
			svc := catalog.NewService(repo, realtime.NewHub())

			product := validProduct()
			tt.mutate(product)

			got, err := svc.CreateProduct(context.Background(), product)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
				assert.False(t, created, "an invalid product must never reach the repository")
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, created)
		})
	}
}

func TestCatalogService_CreateProduct_PublishesEvent(t *testing.T) {
	repo := &mockProductRepo{
		createFn: func(ctx context.Context, p *catalog.Product) error {
			p.ID = uuid.Must(uuid.NewV4())
			return nil
		},
	}
	feed := realtime.NewHub()
	svc := catalog.NewService(repo, feed)

	var events []realtime.Event
	unsubscribe := feed.Subscribe(realtime.TopicProducts, func(ev realtime.Event) {
		events = append(events, ev)
	})
	defer unsubscribe()

	created, err := svc.CreateProduct(context.Background(), validProduct())
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, realtime.KindCreated, events[0].Kind)
	assert.Equal(t, created.ID.String(), events[0].ID)
}

func TestCatalogService_GetProductByID_NotFound(t *testing.T) {
	repo := &mockProductRepo{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
			return nil, catalog.ErrProductNotFound
		},
	}
	svc := catalog.NewService(repo, realtime.NewHub())

	got, err := svc.GetProductByID(context.Background(), uuid.Must(uuid.NewV4()))
	assert.Nil(t, got)
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestCatalogService_SearchProducts(t *testing.T) {
	page := []catalog.Product{
		{ID: uuid.Must(uuid.NewV4()), Name: "Air Runner", Brand: "Nike", Description: "Lightweight road shoe"},
		{ID: uuid.Must(uuid.NewV4()), Name: "Crew Tee", Brand: "Uniqlo", Description: "Everyday cotton tee"},
		{ID: uuid.Must(uuid.NewV4()), Name: "Trail Mix", Brand: "Salomon", Description: "Aggressive outsole for running trails"},
	}
	repo := &mockProductRepo{
		listFn: func(ctx context.Context, filter catalog.ListFilter) ([]catalog.Product, error) {
			return page, nil
		},
	}
	svc := catalog.NewService(repo, realtime.NewHub())
	ctx := context.Background()

	tests := []struct {
		term string
		want int
	}{
		{term: "run", want: 2},       // matches a name and a description
		{term: "NIKE", want: 1},      // case-insensitive brand match
		{term: "tee", want: 1},       // name and description of the same product
		{term: "cassette", want: 0},  // no match
		{term: "", want: len(page)},  // empty term matches everything
	}

	for _, tt := range tests {
		got, err := svc.SearchProducts(ctx, tt.term, 0)
		require.NoError(t, err)
		assert.Len(t, got, tt.want, "term %q", tt.term)
	}
}

func TestCatalogService_ListFilters(t *testing.T) {
	var captured catalog.ListFilter
	repo := &mockProductRepo{
		listFn: func(ctx context.Context, filter catalog.ListFilter) ([]catalog.Product, error) {
			captured = filter
			return nil, nil
		},
	}
	svc := catalog.NewService(repo, realtime.NewHub())
	ctx := context.Background()

	_, err := svc.GetProducts(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, captured.Limit, "zero limit falls back to the default page size")

	_, err = svc.GetProductsByCategory(ctx, "shoes", 5)
	require.NoError(t, err)
	assert.Equal(t, "shoes", captured.Category)
	assert.Equal(t, 5, captured.Limit)

	_, err = svc.GetFeaturedProducts(ctx, 4)
	require.NoError(t, err)
	assert.True(t, captured.FeaturedOnly)
}
