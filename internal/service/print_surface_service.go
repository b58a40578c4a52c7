package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/MorseWayne/print_shop/internal/domain"
	"github.com/MorseWayne/print_shop/internal/repo"
)

// PrintSurfaceService 定义印刷面管理（运营后台）业务接口
type PrintSurfaceService interface {
	CreateSurface(ctx context.Context, req *domain.PrintSurfaceRequest) (*domain.PrintSurface, error)
	GetSurface(ctx context.Context, slug string) (*domain.PrintSurface, error)
	ListSurfaces(ctx context.Context, req *domain.PrintSurfaceListRequest) ([]domain.PrintSurface, error)
	UpdateSurface(ctx context.Context, slug string, req *domain.PrintSurfaceRequest) (*domain.PrintSurface, error)
	DeactivateSurface(ctx context.Context, slug string) error
}

type printSurfaceService struct {
	surfaceRepo repo.PrintSurfaceRepository
	catalog     CatalogProvider
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewPrintSurfaceService 创建印刷面服务实例
func NewPrintSurfaceService(surfaceRepo repo.PrintSurfaceRepository, catalog CatalogProvider, logger *zap.Logger) PrintSurfaceService {
	return &printSurfaceService{
		surfaceRepo: surfaceRepo,
		catalog:     catalog,
		validate:    validator.New(),
		logger:      logger,
	}
}

// surfaceFromRequest 校验请求并构建印刷面
func (s *printSurfaceService) surfaceFromRequest(req *domain.PrintSurfaceRequest) (*domain.PrintSurface, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	surface := &domain.PrintSurface{
		Slug:            req.Slug,
		Name:            req.Name,
		Kind:            req.Kind,
		Area:            req.Area,
		Views:           req.Views,
		Models:          req.Models,
		ProductTypes:    req.ProductTypes,
		SingleOccupancy: req.SingleOccupancy,
		IsActive:        true,
	}
	if req.IsActive != nil {
		surface.IsActive = *req.IsActive
	}
	if err := surface.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return surface, nil
}

// CreateSurface 创建印刷面
func (s *printSurfaceService) CreateSurface(ctx context.Context, req *domain.PrintSurfaceRequest) (*domain.PrintSurface, error) {
	surface, err := s.surfaceFromRequest(req)
	if err != nil {
		return nil, err
	}

	existing, err := s.surfaceRepo.GetBySlug(ctx, surface.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check slug uniqueness: %w", err)
	}
	if existing != nil {
		return nil, ErrSurfaceExists
	}

	if err := s.surfaceRepo.Create(ctx, surface); err != nil {
		return nil, fmt.Errorf("failed to create print surface: %w", err)
	}
	s.catalog.Invalidate(ctx)

	s.logger.Info("print surface created",
		zap.String("slug", surface.Slug),
		zap.String("kind", string(surface.Kind)),
	)
	return surface, nil
}

// GetSurface 获取印刷面
func (s *printSurfaceService) GetSurface(ctx context.Context, slug string) (*domain.PrintSurface, error) {
	surface, err := s.surfaceRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get print surface: %w", err)
	}
	if surface == nil {
		return nil, ErrSurfaceNotFound
	}
	return surface, nil
}

// ListSurfaces 获取印刷面列表
func (s *printSurfaceService) ListSurfaces(ctx context.Context, req *domain.PrintSurfaceListRequest) ([]domain.PrintSurface, error) {
	surfaces, err := s.surfaceRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list print surfaces: %w", err)
	}

	result := make([]domain.PrintSurface, 0, len(surfaces))
	for _, surface := range surfaces {
		if req.ActiveOnly && !surface.IsActive {
			continue
		}
		if req.ProductType != nil && *req.ProductType != "" && !surface.AppliesTo(*req.ProductType) {
			continue
		}
		result = append(result, surface)
	}
	return result, nil
}

// UpdateSurface 整体替换印刷面定义；请求携带 version 时做乐观锁校验
func (s *printSurfaceService) UpdateSurface(ctx context.Context, slug string, req *domain.PrintSurfaceRequest) (*domain.PrintSurface, error) {
	req.Slug = slug
	surface, err := s.surfaceFromRequest(req)
	if err != nil {
		return nil, err
	}

	existing, err := s.surfaceRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get print surface: %w", err)
	}
	if existing == nil {
		return nil, ErrSurfaceNotFound
	}
	if req.Version != 0 && req.Version != existing.Version {
		return nil, ErrSurfaceConflict
	}
	surface.ID = existing.ID
	surface.Version = existing.Version
	surface.CreatedAt = existing.CreatedAt

	ok, err := s.surfaceRepo.Update(ctx, surface)
	if err != nil {
		return nil, fmt.Errorf("failed to update print surface: %w", err)
	}
	if !ok {
		return nil, ErrSurfaceConflict
	}
	s.catalog.Invalidate(ctx)

	s.logger.Info("print surface updated",
		zap.String("slug", surface.Slug),
		zap.Int("version", surface.Version),
	)
	return surface, nil
}

// DeactivateSurface 停用印刷面；已有购物车行与会话仍可引用它
func (s *printSurfaceService) DeactivateSurface(ctx context.Context, slug string) error {
	existing, err := s.surfaceRepo.GetBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("failed to get print surface: %w", err)
	}
	if existing == nil {
		return ErrSurfaceNotFound
	}
	if err := s.surfaceRepo.SetActive(ctx, slug, false); err != nil {
		return fmt.Errorf("failed to deactivate print surface: %w", err)
	}
	s.catalog.Invalidate(ctx)

	s.logger.Info("print surface deactivated", zap.String("slug", slug))
	return nil
}
