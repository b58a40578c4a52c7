package repo

import (
	"context"
	"time"

	"github.com/MorseWayne/print_shop/internal/cache"
	"github.com/MorseWayne/print_shop/internal/domain"
)

// CachedProductRepository 带缓存的商品仓储；缓存的是含规格行（及库存）的完整聚合
type CachedProductRepository struct {
	repo  ProductRepository
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedProductRepository 创建带缓存的商品仓储
func NewCachedProductRepository(repo ProductRepository, c cache.Cache, ttl time.Duration) ProductRepository {
	return &CachedProductRepository{
		repo:  repo,
		cache: c,
		ttl:   ttl,
	}
}

// Create 创建商品
func (r *CachedProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if err := r.repo.Create(ctx, product); err != nil {
		return err
	}
	r.cache.Del(ctx, cache.ProductKey(product.ID))
	return nil
}

// GetByID 根据ID获取商品（带缓存）
func (r *CachedProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	key := cache.ProductKey(id)

	var product domain.Product
	if err := r.cache.Get(ctx, key, &product); err == nil {
		return &product, nil
	}

	// 缓存未命中，从数据库获取
	result, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	r.cache.Set(ctx, key, result, r.ttl)
	return result, nil
}

// Update 更新商品（清除缓存）
func (r *CachedProductRepository) Update(ctx context.Context, product *domain.Product, replaceVariants bool) error {
	if err := r.repo.Update(ctx, product, replaceVariants); err != nil {
		return err
	}
	r.cache.Del(ctx, cache.ProductKey(product.ID))
	return nil
}

// Delete 删除商品（清除缓存）
func (r *CachedProductRepository) Delete(ctx context.Context, id int64) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}
	r.cache.Del(ctx, cache.ProductKey(id))
	return nil
}

// List 获取商品列表（不缓存，因为参数组合太多）
func (r *CachedProductRepository) List(ctx context.Context, req *domain.ProductListRequest) ([]*domain.Product, int64, error) {
	return r.repo.List(ctx, req)
}
