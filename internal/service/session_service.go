package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MorseWayne/print_shop/internal/cache"
	"github.com/MorseWayne/print_shop/internal/customization"
	"github.com/MorseWayne/print_shop/internal/domain"
	"github.com/MorseWayne/print_shop/internal/repo"
	"github.com/MorseWayne/print_shop/internal/storage"
)

// SessionView 会话及其当前可选项
type SessionView struct {
	Session *domain.ConfigurationSession `json:"session"`
	Surface domain.PrintSurface          `json:"surface"`
	Options []customization.AxisOptions  `json:"options"`
	Variant *domain.Variant              `json:"variant,omitempty"`
}

// SessionService 定义定制会话（单个购物车行的配置状态机）业务接口
type SessionService interface {
	Start(ctx context.Context, req *domain.StartSessionRequest) (*SessionView, error)
	Get(ctx context.Context, id string) (*SessionView, error)
	SelectAttribute(ctx context.Context, id string, req *domain.SelectAttributeRequest) (*SessionView, error)
	SelectScope(ctx context.Context, id string, req *domain.SelectScopeRequest) (*SessionView, error)
	ChooseArea(ctx context.Context, id string, req *domain.ChooseAreaRequest) (*SessionView, error)
	PlaceDesign(ctx context.Context, id string, placement domain.DesignPlacement) (*SessionView, error)
	ClearPlacement(ctx context.Context, id string, areaID string) (*SessionView, error)
	Finalize(ctx context.Context, id string, req *domain.FinalizeSessionRequest) (*SessionView, error)
}

type sessionService struct {
	productRepo repo.ProductRepository
	catalog     CatalogProvider
	images      storage.ImageStore
	store       cache.Cache
	ttl         time.Duration
	logger      *zap.Logger
}

// NewSessionService 创建会话服务实例；会话保存在缓存中并随每次修改续期
func NewSessionService(productRepo repo.ProductRepository, catalog CatalogProvider, images storage.ImageStore, store cache.Cache, ttl time.Duration, logger *zap.Logger) SessionService {
	return &sessionService{
		productRepo: productRepo,
		catalog:     catalog,
		images:      images,
		store:       store,
		ttl:         ttl,
		logger:      logger,
	}
}

// Start 开始新的定制会话
func (s *sessionService) Start(ctx context.Context, req *domain.StartSessionRequest) (*SessionView, error) {
	product, err := loadSaleableProduct(ctx, s.productRepo, req.ProductID)
	if err != nil {
		return nil, err
	}
	resolver, err := s.catalog.Resolver(ctx)
	if err != nil {
		return nil, err
	}

	resolved, err := resolver.Resolve(product, customization.Overrides{
		SurfaceTypeOverride: req.SurfaceType,
		LockedAttributes:    req.LockedAttributes,
	})
	if err != nil {
		return nil, err
	}

	cfg := resolver.NewConfigurator(product, resolved)
	session := cfg.Start(uuid.NewString(), resolved)
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("customization session started",
		zap.String("session_id", session.ID),
		zap.Int64("product_id", product.ID),
		zap.String("surface", session.SurfaceSlug),
	)
	return s.view(cfg, session), nil
}

// Get 获取会话
func (s *sessionService) Get(ctx context.Context, id string) (*SessionView, error) {
	session, cfg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(cfg, session), nil
}

// SelectAttribute 选择规格
func (s *sessionService) SelectAttribute(ctx context.Context, id string, req *domain.SelectAttributeRequest) (*SessionView, error) {
	return s.apply(ctx, id, func(cfg *customization.Configurator, session *domain.ConfigurationSession) error {
		return cfg.SelectAttribute(session, req.Axis, req.Value)
	})
}

// SelectScope 选择视图或机型
func (s *sessionService) SelectScope(ctx context.Context, id string, req *domain.SelectScopeRequest) (*SessionView, error) {
	return s.apply(ctx, id, func(cfg *customization.Configurator, session *domain.ConfigurationSession) error {
		return cfg.SelectScope(session, req.Scope)
	})
}

// ChooseArea 选择区域
func (s *sessionService) ChooseArea(ctx context.Context, id string, req *domain.ChooseAreaRequest) (*SessionView, error) {
	return s.apply(ctx, id, func(cfg *customization.Configurator, session *domain.ConfigurationSession) error {
		return cfg.ChooseArea(session, req.AreaID, req.DiscardOthers)
	})
}

// PlaceDesign 在当前区域放置设计
func (s *sessionService) PlaceDesign(ctx context.Context, id string, placement domain.DesignPlacement) (*SessionView, error) {
	return s.apply(ctx, id, func(cfg *customization.Configurator, session *domain.ConfigurationSession) error {
		return cfg.PlaceDesign(session, placement)
	})
}

// ClearPlacement 清除区域上的设计
func (s *sessionService) ClearPlacement(ctx context.Context, id string, areaID string) (*SessionView, error) {
	return s.apply(ctx, id, func(cfg *customization.Configurator, session *domain.ConfigurationSession) error {
		return cfg.ClearPlacement(session, areaID)
	})
}

// Finalize 转存待处理图片后严格校验并冻结购物车行
func (s *sessionService) Finalize(ctx context.Context, id string, req *domain.FinalizeSessionRequest) (*SessionView, error) {
	view, err := s.apply(ctx, id, func(cfg *customization.Configurator, session *domain.ConfigurationSession) error {
		if session.State == domain.StateValidated {
			return customization.ErrSessionFinalized
		}
		if err := resolvePendingImages(ctx, s.images, session.Placements); err != nil {
			return err
		}
		_, err := cfg.Finalize(session, req.Quantity)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("customization session finalized",
		zap.String("session_id", view.Session.ID),
		zap.String("line_item_id", view.Session.LineItem.ID),
	)
	return view, nil
}

// apply 加载会话，执行一次状态迁移，成功后保存
func (s *sessionService) apply(ctx context.Context, id string, fn func(*customization.Configurator, *domain.ConfigurationSession) error) (*SessionView, error) {
	session, cfg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(cfg, session); err != nil {
		return nil, err
	}
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return s.view(cfg, session), nil
}

func (s *sessionService) load(ctx context.Context, id string) (*domain.ConfigurationSession, *customization.Configurator, error) {
	var session domain.ConfigurationSession
	if err := s.store.Get(ctx, cache.SessionKey(id), &session); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.Placements == nil {
		session.Placements = domain.Placements{}
	}

	product, err := s.productRepo.GetByID(ctx, session.ProductID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, nil, ErrProductNotFound
	}
	resolver, err := s.catalog.Resolver(ctx)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := resolver.ConfiguratorFor(product, session.SurfaceSlug)
	if err != nil {
		return nil, nil, err
	}
	return &session, cfg, nil
}

func (s *sessionService) save(ctx context.Context, session *domain.ConfigurationSession) error {
	if err := s.store.Set(ctx, cache.SessionKey(session.ID), session, s.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *sessionService) view(cfg *customization.Configurator, session *domain.ConfigurationSession) *SessionView {
	return &SessionView{
		Session: session,
		Surface: cfg.Surface(),
		Options: cfg.Matrix().AvailableOptions(session.Attributes),
		Variant: cfg.Matrix().Match(session.Attributes),
	}
}
