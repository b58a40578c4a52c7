package repo

import (
	"context"
	"time"

	"github.com/MorseWayne/print_shop/internal/cache"
	"github.com/MorseWayne/print_shop/internal/domain"
)

// CachedPrintSurfaceRepository 带缓存的印刷面仓储
type CachedPrintSurfaceRepository struct {
	repo  PrintSurfaceRepository
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedPrintSurfaceRepository 创建带缓存的印刷面仓储
func NewCachedPrintSurfaceRepository(repo PrintSurfaceRepository, c cache.Cache, ttl time.Duration) PrintSurfaceRepository {
	return &CachedPrintSurfaceRepository{repo: repo, cache: c, ttl: ttl}
}

func (r *CachedPrintSurfaceRepository) invalidate(ctx context.Context) {
	r.cache.DelPrefix(ctx, cache.PrefixSurface)
}

// Create 创建印刷面
func (r *CachedPrintSurfaceRepository) Create(ctx context.Context, s *domain.PrintSurface) error {
	if err := r.repo.Create(ctx, s); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// GetBySlug 根据 slug 获取（带缓存）
func (r *CachedPrintSurfaceRepository) GetBySlug(ctx context.Context, slug string) (*domain.PrintSurface, error) {
	key := cache.SurfaceKey(slug)

	var s domain.PrintSurface
	if err := r.cache.Get(ctx, key, &s); err == nil {
		return &s, nil
	}

	result, err := r.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	r.cache.Set(ctx, key, result, r.ttl)
	return result, nil
}

// Update 更新印刷面
func (r *CachedPrintSurfaceRepository) Update(ctx context.Context, s *domain.PrintSurface) (bool, error) {
	ok, err := r.repo.Update(ctx, s)
	if err != nil {
		return false, err
	}
	if ok {
		r.invalidate(ctx)
	}
	return ok, nil
}

// SetActive 启用/停用印刷面
func (r *CachedPrintSurfaceRepository) SetActive(ctx context.Context, slug string, active bool) error {
	if err := r.repo.SetActive(ctx, slug, active); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// ListAll 获取全部印刷面（带缓存）
func (r *CachedPrintSurfaceRepository) ListAll(ctx context.Context) ([]domain.PrintSurface, error) {
	var surfaces []domain.PrintSurface
	if err := r.cache.Get(ctx, cache.PrefixSurfaceList, &surfaces); err == nil {
		return surfaces, nil
	}

	result, err := r.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	r.cache.Set(ctx, cache.PrefixSurfaceList, result, r.ttl)
	return result, nil
}
