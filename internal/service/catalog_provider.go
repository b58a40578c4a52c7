package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MorseWayne/print_shop/internal/cache"
	"github.com/MorseWayne/print_shop/internal/customization"
	"github.com/MorseWayne/print_shop/internal/domain"
	"github.com/MorseWayne/print_shop/internal/repo"
)

// CatalogProvider 为业务层提供基于最新印刷面数据的解析器
type CatalogProvider interface {
	Resolver(ctx context.Context) (*customization.Resolver, error)
	// Invalidate 印刷面变更后调用，所有共享版本存储的实例在下次 Resolver 时重新加载
	Invalidate(ctx context.Context)
}

type catalogProvider struct {
	surfaceRepo repo.PrintSurfaceRepository
	versions    cache.Cache // 为空时只在本进程内失效
	logger      *zap.Logger

	mu       sync.Mutex
	resolver *customization.Resolver
	version  string
}

// NewCatalogProvider 创建目录提供者
// versions 在多实例部署时应为共享缓存，管理端写入会更新其中的目录版本号
func NewCatalogProvider(surfaceRepo repo.PrintSurfaceRepository, versions cache.Cache, logger *zap.Logger) CatalogProvider {
	return &catalogProvider{
		surfaceRepo: surfaceRepo,
		versions:    versions,
		logger:      logger,
	}
}

// currentVersion 读取共享的目录版本号；不存在时为空串
func (p *catalogProvider) currentVersion(ctx context.Context) (string, error) {
	if p.versions == nil {
		return "", nil
	}
	var v string
	err := p.versions.Get(ctx, cache.CatalogVersionKey, &v)
	if errors.Is(err, cache.ErrCacheMiss) {
		return "", nil
	}
	return v, err
}

// Resolver 返回当前解析器，未加载或版本号变化时从仓储重新加载
func (p *catalogProvider) Resolver(ctx context.Context) (*customization.Resolver, error) {
	version, err := p.currentVersion(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		// 版本存储不可用时沿用已加载的目录
		p.logger.Warn("failed to read catalog version", zap.Error(err))
		if p.resolver != nil {
			return p.resolver, nil
		}
		version = ""
	}
	if p.resolver != nil && p.version == version {
		return p.resolver, nil
	}

	surfaces, err := p.surfaceRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load print surfaces: %w", err)
	}

	valid := make([]domain.PrintSurface, 0, len(surfaces))
	for _, s := range surfaces {
		if err := s.Validate(); err != nil {
			// 单个坏数据不影响其他印刷面
			p.logger.Warn("skip invalid print surface",
				zap.String("slug", s.Slug),
				zap.Error(err),
			)
			continue
		}
		valid = append(valid, s)
	}

	catalog, err := customization.NewCatalog(valid)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}

	p.resolver = customization.NewResolver(catalog)
	p.version = version
	p.logger.Info("print surface catalog loaded",
		zap.Int("surfaces", catalog.Len()),
		zap.String("version", version),
	)
	return p.resolver, nil
}

// Invalidate 丢弃本地目录并更新共享版本号
func (p *catalogProvider) Invalidate(ctx context.Context) {
	p.mu.Lock()
	p.resolver = nil
	p.mu.Unlock()

	if p.versions == nil {
		return
	}
	if err := p.versions.Set(context.WithoutCancel(ctx), cache.CatalogVersionKey, uuid.NewString(), 0); err != nil {
		p.logger.Warn("failed to bump catalog version", zap.Error(err))
	}
}
