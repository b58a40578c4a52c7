// Package service 实现业务逻辑层，协调各种资源完成业务需求。
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/MorseWayne/print_shop/internal/customization"
	"github.com/MorseWayne/print_shop/internal/domain"
	"github.com/MorseWayne/print_shop/internal/repo"
)

// ProductService 定义商品业务逻辑接口
type ProductService interface {
	// 商品管理
	CreateProduct(ctx context.Context, req *domain.CreateProductRequest) (*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, req *domain.UpdateProductRequest) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	// 商品查询
	ListProducts(ctx context.Context, req *domain.ProductListRequest) (*domain.ProductListResponse, error)
}

// productService 实现ProductService接口
type productService struct {
	productRepo repo.ProductRepository
	catalog     CatalogProvider
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewProductService 创建商品服务实例
func NewProductService(productRepo repo.ProductRepository, catalog CatalogProvider, logger *zap.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		catalog:     catalog,
		validate:    validator.New(),
		logger:      logger,
	}
}

func variantsFromInput(inputs []domain.VariantInput) []domain.Variant {
	variants := make([]domain.Variant, 0, len(inputs))
	for _, in := range inputs {
		active := true
		if in.IsActive != nil {
			active = *in.IsActive
		}
		variants = append(variants, domain.Variant{
			SKU:           in.SKU,
			Attributes:    in.Attributes.Clone(),
			StockQuantity: in.StockQuantity,
			IsActive:      active,
		})
	}
	return variants
}

// checkConfig 规格矩阵必须合法；开启定制时指定的印刷面必须存在
func (s *productService) checkConfig(ctx context.Context, product *domain.Product) error {
	if _, err := customization.BuildMatrix(product.ProductConfig.Attributes, product.ProductConfig.Variants); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	ref := product.Customization.PrintConfig.ConfigType
	if !product.Customization.Enabled || ref == "" {
		return nil
	}
	resolver, err := s.catalog.Resolver(ctx)
	if err != nil {
		return err
	}
	if _, err := resolver.SurfaceForSelection(ref); err != nil {
		if errors.Is(err, customization.ErrSurfaceNotFound) {
			return fmt.Errorf("%w: %s", ErrCustomizationSurface, ref)
		}
		return err
	}
	return nil
}

// CreateProduct 创建商品
func (s *productService) CreateProduct(ctx context.Context, req *domain.CreateProductRequest) (*domain.Product, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	// 创建商品实体
	product := &domain.Product{
		Name:          req.Name,
		Description:   req.Description,
		Type:          req.Type,
		Price:         req.Price,
		Status:        domain.ProductStatusActive,
		ImageURL:      req.ImageURL,
		Customization: req.Customization,
		ProductConfig: domain.ProductConfig{
			Attributes: req.Attributes,
			Variants:   variantsFromInput(req.Variants),
		},
	}
	if err := s.checkConfig(ctx, product); err != nil {
		return nil, err
	}

	// 保存商品
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("product created",
		zap.Int64("product_id", product.ID),
		zap.Int("variants", len(product.ProductConfig.Variants)),
	)
	return product, nil
}

// GetProduct 获取商品详情
func (s *productService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	return product, nil
}

// UpdateProduct 更新商品
func (s *productService) UpdateProduct(ctx context.Context, id int64, req *domain.UpdateProductRequest) (*domain.Product, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	// 获取现有商品
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	// 更新字段
	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Type != nil {
		product.Type = *req.Type
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return nil, fmt.Errorf("%w: price must be greater than 0", ErrValidation)
		}
		product.Price = *req.Price
	}
	if req.Status != nil {
		product.Status = *req.Status
	}
	if req.ImageURL != nil {
		product.ImageURL = *req.ImageURL
	}
	if req.Customization != nil {
		product.Customization = *req.Customization
	}
	if req.Attributes != nil {
		product.ProductConfig.Attributes = req.Attributes
	}
	replaceVariants := req.Variants != nil
	if replaceVariants {
		product.ProductConfig.Variants = variantsFromInput(req.Variants)
	}
	if err := s.checkConfig(ctx, product); err != nil {
		return nil, err
	}

	// 保存更新
	if err := s.productRepo.Update(ctx, product, replaceVariants); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return product, nil
}

// DeleteProduct 删除商品；规格行只做软下架，已冻结的购物车行不受影响
func (s *productService) DeleteProduct(ctx context.Context, id int64) error {
	// 检查商品是否存在
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return ErrProductNotFound
	}

	// 软删除商品
	return s.productRepo.Delete(ctx, id)
}

// ListProducts 获取商品列表
func (s *productService) ListProducts(ctx context.Context, req *domain.ProductListRequest) (*domain.ProductListResponse, error) {
	// 设置默认值
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	// 查询商品列表
	products, total, err := s.productRepo.List(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return &domain.ProductListResponse{
		Products: products,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, nil
}
