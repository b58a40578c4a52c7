package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/MorseWayne/print_shop/internal/customization"
	"github.com/MorseWayne/print_shop/internal/domain"
	"github.com/MorseWayne/print_shop/internal/repo"
	"github.com/MorseWayne/print_shop/internal/storage"
)

// 业务错误定义
var (
	ErrProductNotFound      = errors.New("product not found")
	ErrProductUnavailable   = errors.New("product is not on sale")
	ErrVariantUnavailable   = errors.New("no variant matches the selected attributes")
	ErrValidation           = errors.New("validation failed")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrSessionNotFound      = errors.New("customization session not found")
	ErrSurfaceNotFound      = errors.New("print surface not found")
	ErrSurfaceExists        = errors.New("print surface already exists")
	ErrSurfaceConflict      = errors.New("print surface was modified concurrently")
	ErrVariantNotFound      = errors.New("variant not found")
	ErrCustomizationSurface = errors.New("customization refers to an unknown print surface")
)

// CustomizationView 商品定制页所需的全部信息
type CustomizationView struct {
	ProductID    int64                       `json:"product_id"`
	Surface      domain.PrintSurface         `json:"surface"`
	Options      []customization.AxisOptions `json:"options"`
	InitialScope string                      `json:"initial_scope"`
	Selection    domain.Attributes           `json:"selection"`
	Locked       []string                    `json:"locked"`
	UsedFallback bool                        `json:"used_fallback"`
	Variant      *domain.Variant             `json:"variant,omitempty"`
}

// AvailabilityResult 部分选择下的可选项
type AvailabilityResult struct {
	Options []customization.AxisOptions `json:"options"`
	Variant *domain.Variant             `json:"variant,omitempty"`
}

// CustomizationService 定义顾客侧的定制业务接口
type CustomizationService interface {
	GetCustomization(ctx context.Context, productID int64, surfaceType string, locked domain.Attributes) (*CustomizationView, error)
	Availability(ctx context.Context, productID int64, req *domain.AvailabilityRequest) (*AvailabilityResult, error)
	// FreezeLineItem 解析待转存图片后生成购物车行快照
	FreezeLineItem(ctx context.Context, productID int64, req *domain.FreezeLineItemRequest) (*domain.CartLineItemSnapshot, error)
}

type customizationService struct {
	productRepo repo.ProductRepository
	catalog     CatalogProvider
	images      storage.ImageStore
	logger      *zap.Logger
}

// NewCustomizationService 创建定制服务实例
func NewCustomizationService(productRepo repo.ProductRepository, catalog CatalogProvider, images storage.ImageStore, logger *zap.Logger) CustomizationService {
	return &customizationService{
		productRepo: productRepo,
		catalog:     catalog,
		images:      images,
		logger:      logger,
	}
}

// loadSaleableProduct 获取在售商品
func loadSaleableProduct(ctx context.Context, productRepo repo.ProductRepository, id int64) (*domain.Product, error) {
	product, err := productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if !product.IsAvailable() {
		return nil, ErrProductUnavailable
	}
	return product, nil
}

// GetCustomization 解析商品的定制配置
func (s *customizationService) GetCustomization(ctx context.Context, productID int64, surfaceType string, locked domain.Attributes) (*CustomizationView, error) {
	product, err := loadSaleableProduct(ctx, s.productRepo, productID)
	if err != nil {
		return nil, err
	}
	resolver, err := s.catalog.Resolver(ctx)
	if err != nil {
		return nil, err
	}

	resolved, err := resolver.Resolve(product, customization.Overrides{
		SurfaceTypeOverride: surfaceType,
		LockedAttributes:    locked,
	})
	if err != nil {
		return nil, err
	}
	if resolved.UsedFallback {
		s.logger.Info("print surface fell back to built-in default",
			zap.Int64("product_id", product.ID),
			zap.String("surface", resolved.Surface.Slug),
		)
	}

	return &CustomizationView{
		ProductID:    product.ID,
		Surface:      resolved.Surface,
		Options:      resolved.Matrix.AvailableOptions(resolved.Attributes),
		InitialScope: resolved.InitialScope,
		Selection:    resolved.Attributes,
		Locked:       resolved.Locked,
		UsedFallback: resolved.UsedFallback,
		Variant:      resolved.Matrix.Match(resolved.Attributes),
	}, nil
}

// Availability 计算部分选择下各维度的可选项
func (s *customizationService) Availability(ctx context.Context, productID int64, req *domain.AvailabilityRequest) (*AvailabilityResult, error) {
	product, err := loadSaleableProduct(ctx, s.productRepo, productID)
	if err != nil {
		return nil, err
	}
	matrix, err := customization.BuildMatrix(product.ProductConfig.Attributes, product.ProductConfig.Variants)
	if err != nil {
		return nil, fmt.Errorf("product %d: %w", product.ID, err)
	}

	return &AvailabilityResult{
		Options: matrix.AvailableOptions(req.Attributes),
		Variant: matrix.Match(req.Attributes),
	}, nil
}

// FreezeLineItem 冻结购物车行
func (s *customizationService) FreezeLineItem(ctx context.Context, productID int64, req *domain.FreezeLineItemRequest) (*domain.CartLineItemSnapshot, error) {
	product, err := loadSaleableProduct(ctx, s.productRepo, productID)
	if err != nil {
		return nil, err
	}
	resolver, err := s.catalog.Resolver(ctx)
	if err != nil {
		return nil, err
	}

	matrix, err := customization.BuildMatrix(product.ProductConfig.Attributes, product.ProductConfig.Variants)
	if err != nil {
		return nil, fmt.Errorf("product %d: %w", product.ID, err)
	}
	variant := matrix.Match(req.Attributes)
	if variant == nil {
		return nil, ErrVariantUnavailable
	}
	if variant.StockQuantity < req.Quantity {
		return nil, fmt.Errorf("%w: %s", customization.ErrOutOfStock, variant.SKU)
	}

	selection := domain.CustomizationSelection{
		SurfaceSlug:   req.Selection.SurfaceSlug,
		SelectedScope: req.Selection.SelectedScope,
		Placements:    req.Selection.Placements.Clone(),
	}
	if selection.SurfaceSlug == "" {
		// 与定制页相同的解析顺序，印刷面不可用时使用内置兜底
		resolved, err := resolver.Resolve(product, customization.Overrides{})
		if err != nil {
			return nil, err
		}
		selection.SurfaceSlug = resolved.Surface.Slug
	}
	if err := resolvePendingImages(ctx, s.images, selection.Placements); err != nil {
		return nil, err
	}

	snapshot, err := resolver.BuildLineItem(product, selection, variant, req.Quantity)
	if err != nil {
		return nil, err
	}

	s.logger.Info("line item frozen",
		zap.String("line_item_id", snapshot.ID),
		zap.Int64("product_id", snapshot.ProductID),
		zap.Int64("variant_id", snapshot.VariantID),
		zap.Int("quantity", snapshot.Quantity),
	)
	return snapshot, nil
}

// resolvePendingImages 将临时上传转存为永久地址；上传不存在时视为缺少图片
func resolvePendingImages(ctx context.Context, images storage.ImageStore, placements domain.Placements) error {
	for scope, areas := range placements {
		for areaID, p := range areas {
			if !p.Image.IsPending() {
				continue
			}
			if images == nil {
				return &customization.RejectionError{Reason: customization.ReasonMissingImageRef, Scope: scope, AreaID: areaID}
			}
			img, err := images.Resolve(ctx, p.Image.UploadKey)
			if errors.Is(err, storage.ErrUploadNotFound) {
				return &customization.RejectionError{Reason: customization.ReasonMissingImageRef, Scope: scope, AreaID: areaID}
			}
			if err != nil {
				return fmt.Errorf("failed to resolve upload %s: %w", p.Image.UploadKey, err)
			}
			p.Image.URL = img.URL
			p.Image.PublicID = img.PublicID
			if p.Image.FileName == "" {
				p.Image.FileName = img.FileName
			}
			p.Image.UploadKey = ""
			areas[areaID] = p
		}
	}
	return nil
}
