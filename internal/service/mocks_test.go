package service

import (
	"context"
	"errors"

	"github.com/MorseWayne/print_shop/internal/domain"
	"github.com/MorseWayne/print_shop/internal/repo"
	"github.com/MorseWayne/print_shop/internal/storage"
)

// Mock ProductRepository for testing
type mockProductRepository struct {
	products map[int64]*domain.Product
	nextID   int64
	getErr   error
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products: make(map[int64]*domain.Product),
		nextID:   1,
	}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	product.ID = m.nextID
	m.nextID++
	for i := range product.ProductConfig.Variants {
		product.ProductConfig.Variants[i].ID = product.ID*100 + int64(i)
		product.ProductConfig.Variants[i].ProductID = product.ID
	}
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	product, exists := m.products[id]
	if !exists {
		return nil, nil
	}
	return product, nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product, replaceVariants bool) error {
	if _, exists := m.products[product.ID]; !exists {
		return errors.New("product not found")
	}
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id int64) error {
	if _, exists := m.products[id]; !exists {
		return errors.New("product not found")
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) List(ctx context.Context, req *domain.ProductListRequest) ([]*domain.Product, int64, error) {
	var result []*domain.Product
	for _, product := range m.products {
		result = append(result, product)
	}
	return result, int64(len(result)), nil
}

// Mock VariantRepository for testing
type mockVariantRepository struct {
	variants  map[int64]*domain.Variant
	committed []repo.StockDeduction
	orderRef  string
}

func newMockVariantRepository(variants ...domain.Variant) *mockVariantRepository {
	m := &mockVariantRepository{variants: make(map[int64]*domain.Variant)}
	for i := range variants {
		v := variants[i]
		m.variants[v.ID] = &v
	}
	return m
}

func (m *mockVariantRepository) GetByID(ctx context.Context, id int64) (*domain.Variant, error) {
	return m.variants[id], nil
}

func (m *mockVariantRepository) ListByProduct(ctx context.Context, productID int64) ([]domain.Variant, error) {
	var result []domain.Variant
	for _, v := range m.variants {
		if v.ProductID == productID {
			result = append(result, *v)
		}
	}
	return result, nil
}

func (m *mockVariantRepository) Restock(ctx context.Context, id int64, quantity int, reason string) (*domain.Variant, error) {
	v, ok := m.variants[id]
	if !ok {
		return nil, nil
	}
	v.StockQuantity += quantity
	out := *v
	return &out, nil
}

// Commit 与数据库实现一致：任何一行不足则整体不生效
func (m *mockVariantRepository) Commit(ctx context.Context, orderRef string, items []repo.StockDeduction) error {
	for _, item := range items {
		v, ok := m.variants[item.VariantID]
		if !ok || !v.IsActive || v.StockQuantity < item.Quantity {
			return repo.ErrInsufficientStock
		}
	}
	for _, item := range items {
		m.variants[item.VariantID].StockQuantity -= item.Quantity
	}
	m.committed = items
	m.orderRef = orderRef
	return nil
}

// Mock PrintSurfaceRepository for testing
type mockPrintSurfaceRepository struct {
	surfaces []*domain.PrintSurface
	nextID   int64
	lists    int
	stale    bool // Update 始终返回版本冲突
}

func newMockPrintSurfaceRepository(surfaces ...domain.PrintSurface) *mockPrintSurfaceRepository {
	m := &mockPrintSurfaceRepository{nextID: 1}
	for i := range surfaces {
		s := surfaces[i]
		s.ID = m.nextID
		m.nextID++
		m.surfaces = append(m.surfaces, &s)
	}
	return m
}

func (m *mockPrintSurfaceRepository) find(slug string) *domain.PrintSurface {
	for _, s := range m.surfaces {
		if s.Slug == slug {
			return s
		}
	}
	return nil
}

func (m *mockPrintSurfaceRepository) Create(ctx context.Context, surface *domain.PrintSurface) error {
	if m.find(surface.Slug) != nil {
		return errors.New("duplicate slug")
	}
	surface.ID = m.nextID
	surface.Version = 1
	m.nextID++
	s := surface.Clone()
	m.surfaces = append(m.surfaces, &s)
	return nil
}

func (m *mockPrintSurfaceRepository) GetBySlug(ctx context.Context, slug string) (*domain.PrintSurface, error) {
	s := m.find(slug)
	if s == nil {
		return nil, nil
	}
	out := s.Clone()
	return &out, nil
}

func (m *mockPrintSurfaceRepository) Update(ctx context.Context, surface *domain.PrintSurface) (bool, error) {
	existing := m.find(surface.Slug)
	if existing == nil || m.stale || existing.Version != surface.Version {
		return false, nil
	}
	surface.Version++
	*existing = surface.Clone()
	return true, nil
}

func (m *mockPrintSurfaceRepository) SetActive(ctx context.Context, slug string, active bool) error {
	if s := m.find(slug); s != nil {
		s.IsActive = active
		s.Version++
	}
	return nil
}

func (m *mockPrintSurfaceRepository) ListAll(ctx context.Context) ([]domain.PrintSurface, error) {
	m.lists++
	result := make([]domain.PrintSurface, 0, len(m.surfaces))
	for _, s := range m.surfaces {
		result = append(result, s.Clone())
	}
	return result, nil
}

// Mock ImageStore for testing
type mockImageStore struct {
	uploads  map[string]storage.ResolvedImage
	resolved []string
}

func (m *mockImageStore) Resolve(ctx context.Context, uploadKey string) (*storage.ResolvedImage, error) {
	img, ok := m.uploads[uploadKey]
	if !ok {
		return nil, storage.ErrUploadNotFound
	}
	m.resolved = append(m.resolved, uploadKey)
	return &img, nil
}

func (m *mockImageStore) Close() error {
	return nil
}

// 测试数据：T恤（尺码 x 颜色，正反两面）
func teeSurface() domain.PrintSurface {
	return domain.PrintSurface{
		Slug: "tshirt",
		Name: "T-Shirt",
		Kind: domain.SurfaceKindViews,
		Views: []domain.NamedView{
			{Name: "front", ViewLayout: domain.ViewLayout{BaseImage: "front.png", Areas: []domain.Area{
				{ID: "chest", Name: "Chest", Max: 5},
				{ID: "pocket", Name: "Pocket", Max: 2},
			}}},
			{Name: "back", ViewLayout: domain.ViewLayout{BaseImage: "back.png", Areas: []domain.Area{
				{ID: "full", Name: "Full back", Max: 10},
			}}},
		},
		ProductTypes:    []string{"tshirt"},
		SingleOccupancy: true,
		IsActive:        true,
		Version:         1,
	}
}

func teeProduct() *domain.Product {
	return &domain.Product{
		ID:     1,
		Name:   "Classic Tee",
		Type:   "tshirt",
		Price:  19.9,
		Status: domain.ProductStatusActive,
		Customization: domain.CustomizationSettings{
			Enabled:     true,
			PrintConfig: domain.PrintConfigRef{ConfigType: "tshirt"},
		},
		ProductConfig: domain.ProductConfig{
			Attributes: []domain.AttributeAxis{
				{Code: "size", Name: "Size", Values: []string{"S", "M", "L"}},
				{Code: "color", Name: "Color", Values: []string{"Black", "White"}},
			},
			Variants: []domain.Variant{
				{ID: 11, ProductID: 1, SKU: "TEE-S-B", Attributes: domain.Attributes{"size": "S", "color": "Black"}, StockQuantity: 5, IsActive: true},
				{ID: 12, ProductID: 1, SKU: "TEE-S-W", Attributes: domain.Attributes{"size": "S", "color": "White"}, StockQuantity: 0, IsActive: true},
				{ID: 13, ProductID: 1, SKU: "TEE-M-B", Attributes: domain.Attributes{"size": "M", "color": "Black"}, StockQuantity: 2, IsActive: true},
				{ID: 14, ProductID: 1, SKU: "TEE-M-W", Attributes: domain.Attributes{"size": "M", "color": "White"}, StockQuantity: 3, IsActive: true},
				{ID: 15, ProductID: 1, SKU: "TEE-L-B", Attributes: domain.Attributes{"size": "L", "color": "Black"}, StockQuantity: 1, IsActive: true},
			},
		},
	}
}

func textDesign(text string) domain.DesignPlacement {
	return domain.DesignPlacement{Type: domain.PlacementText, Text: &domain.TextContent{Text: text}}
}

func pendingImage(key string) domain.DesignPlacement {
	return domain.DesignPlacement{Type: domain.PlacementImage, Image: &domain.ImageContent{UploadKey: key}}
}
