package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/MorseWayne/print_shop/internal/domain"
)

func createTestProductService() (ProductService, *mockProductRepository) {
	productRepo := newMockProductRepository()
	catalog := NewCatalogProvider(newMockPrintSurfaceRepository(teeSurface()), nil, zap.NewNop())
	return NewProductService(productRepo, catalog, zap.NewNop()), productRepo
}

func validCreateRequest() *domain.CreateProductRequest {
	return &domain.CreateProductRequest{
		Name:  "Classic Tee",
		Type:  "tshirt",
		Price: 19.9,
		Customization: domain.CustomizationSettings{
			Enabled:     true,
			PrintConfig: domain.PrintConfigRef{ConfigType: "tshirt"},
		},
		Attributes: []domain.AttributeAxis{{Code: "size", Name: "Size", Values: []string{"S", "M"}}},
		Variants: []domain.VariantInput{
			{SKU: "TEE-S", Attributes: domain.Attributes{"size": "S"}, StockQuantity: 3},
			{SKU: "TEE-M", Attributes: domain.Attributes{"size": "M"}, StockQuantity: 0},
		},
	}
}

// Test cases for ProductService
func TestProductService_CreateProduct(t *testing.T) {
	service, _ := createTestProductService()

	tests := []struct {
		name    string
		mutate  func(req *domain.CreateProductRequest)
		wantErr error
	}{
		{
			name:   "valid product",
			mutate: func(req *domain.CreateProductRequest) {},
		},
		{
			name:   "built-in surface reference",
			mutate: func(req *domain.CreateProductRequest) { req.Customization.PrintConfig.ConfigType = "default-models" },
		},
		{
			name:    "missing name",
			mutate:  func(req *domain.CreateProductRequest) { req.Name = "" },
			wantErr: ErrValidation,
		},
		{
			name: "duplicate variant rows",
			mutate: func(req *domain.CreateProductRequest) {
				req.Variants[1].Attributes = domain.Attributes{"size": "S"}
			},
			wantErr: ErrValidation,
		},
		{
			name: "variant value outside axis",
			mutate: func(req *domain.CreateProductRequest) {
				req.Variants[1].Attributes = domain.Attributes{"size": "XL"}
			},
			wantErr: ErrValidation,
		},
		{
			name:    "unknown print surface",
			mutate:  func(req *domain.CreateProductRequest) { req.Customization.PrintConfig.ConfigType = "poster" },
			wantErr: ErrCustomizationSurface,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(req)
			product, err := service.CreateProduct(context.Background(), req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("CreateProduct() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateProduct() unexpected error: %v", err)
			}
			if product.Name != req.Name {
				t.Errorf("CreateProduct() name = %v, want %v", product.Name, req.Name)
			}
			if product.Status != domain.ProductStatusActive {
				t.Errorf("CreateProduct() status = %v, want active", product.Status)
			}
			if len(product.ProductConfig.Variants) != 2 || !product.ProductConfig.Variants[0].IsActive {
				t.Errorf("CreateProduct() variants = %+v", product.ProductConfig.Variants)
			}
		})
	}
}

func TestProductService_GetProduct(t *testing.T) {
	service, productRepo := createTestProductService()
	productRepo.products[1] = teeProduct()

	tests := []struct {
		name    string
		id      int64
		wantErr bool
	}{
		{name: "existing product", id: 1, wantErr: false},
		{name: "non-existing product", id: 999, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product, err := service.GetProduct(context.Background(), tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetProduct() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && product.ID != tt.id {
				t.Errorf("GetProduct() ID = %v, want %v", product.ID, tt.id)
			}
			if tt.wantErr && !errors.Is(err, ErrProductNotFound) {
				t.Errorf("GetProduct() error = %v, want ErrProductNotFound", err)
			}
		})
	}
}

func TestProductService_UpdateProduct(t *testing.T) {
	service, productRepo := createTestProductService()
	productRepo.products[1] = teeProduct()
	ctx := context.Background()

	name := "Premium Tee"
	price := 29.9
	updated, err := service.UpdateProduct(ctx, 1, &domain.UpdateProductRequest{Name: &name, Price: &price})
	if err != nil {
		t.Fatalf("UpdateProduct failed: %v", err)
	}
	if updated.Name != name || updated.Price != price {
		t.Errorf("UpdateProduct() = %s %.2f", updated.Name, updated.Price)
	}
	if len(updated.ProductConfig.Variants) != 5 {
		t.Errorf("Variants should be untouched, got %d", len(updated.ProductConfig.Variants))
	}

	zero := 0.0
	if _, err := service.UpdateProduct(ctx, 1, &domain.UpdateProductRequest{Price: &zero}); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for zero price, got %v", err)
	}

	// 新增维度后旧规格行缺少该维度，矩阵不合法
	_, err = service.UpdateProduct(ctx, 1, &domain.UpdateProductRequest{
		Attributes: append(teeProduct().ProductConfig.Attributes, domain.AttributeAxis{Code: "fit", Name: "Fit", Values: []string{"slim"}}),
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for inconsistent matrix, got %v", err)
	}

	if _, err := service.UpdateProduct(ctx, 999, &domain.UpdateProductRequest{Name: &name}); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("Expected ErrProductNotFound, got %v", err)
	}
}

func TestProductService_DeleteProduct(t *testing.T) {
	service, productRepo := createTestProductService()
	productRepo.products[1] = teeProduct()

	if err := service.DeleteProduct(context.Background(), 1); err != nil {
		t.Fatalf("DeleteProduct failed: %v", err)
	}
	if err := service.DeleteProduct(context.Background(), 1); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("Expected ErrProductNotFound on second delete, got %v", err)
	}
}

func TestProductService_ListProducts(t *testing.T) {
	service, productRepo := createTestProductService()
	productRepo.products[1] = teeProduct()

	req := &domain.ProductListRequest{Page: 0, PageSize: 500}
	resp, err := service.ListProducts(context.Background(), req)
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	if resp.Page != 1 || resp.PageSize != 100 {
		t.Errorf("ListProducts() page = %d size = %d, want 1 and 100", resp.Page, resp.PageSize)
	}
	if resp.Total != 1 {
		t.Errorf("ListProducts() total = %d, want 1", resp.Total)
	}
}
