package repo

import (
	"context"

	"github.com/MorseWayne/print_shop/internal/cache"
	"github.com/MorseWayne/print_shop/internal/domain"
)

// CachedVariantRepository 库存写入后失效所属商品的缓存。
// 规格行本身不单独缓存，库存读取以数据库为准。
type CachedVariantRepository struct {
	repo  VariantRepository
	cache cache.Cache
}

// NewCachedVariantRepository 创建带缓存失效的规格仓储
func NewCachedVariantRepository(repo VariantRepository, c cache.Cache) VariantRepository {
	return &CachedVariantRepository{repo: repo, cache: c}
}

// GetByID 根据ID获取规格
func (r *CachedVariantRepository) GetByID(ctx context.Context, id int64) (*domain.Variant, error) {
	return r.repo.GetByID(ctx, id)
}

// ListByProduct 获取商品的全部规格行
func (r *CachedVariantRepository) ListByProduct(ctx context.Context, productID int64) ([]domain.Variant, error) {
	return r.repo.ListByProduct(ctx, productID)
}

// Restock 补货并清除商品缓存
func (r *CachedVariantRepository) Restock(ctx context.Context, id int64, quantity int, reason string) (*domain.Variant, error) {
	v, err := r.repo.Restock(ctx, id, quantity, reason)
	if err != nil || v == nil {
		return v, err
	}
	r.cache.Del(ctx, cache.ProductKey(v.ProductID))
	return v, nil
}

// Commit 扣减库存并清除涉及商品的缓存
func (r *CachedVariantRepository) Commit(ctx context.Context, orderRef string, items []StockDeduction) error {
	if err := r.repo.Commit(ctx, orderRef, items); err != nil {
		return err
	}

	keys := make([]string, 0, len(items))
	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		v, err := r.repo.GetByID(ctx, item.VariantID)
		if err != nil || v == nil {
			continue
		}
		if _, dup := seen[v.ProductID]; dup {
			continue
		}
		seen[v.ProductID] = struct{}{}
		keys = append(keys, cache.ProductKey(v.ProductID))
	}
	r.cache.Del(ctx, keys...)
	return nil
}
