// Package router 提供 HTTP 路由设置和中间件配置功能
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/print_shop/internal/api"
	"github.com/MorseWayne/print_shop/internal/cache"
	"github.com/MorseWayne/print_shop/internal/config"
	"github.com/MorseWayne/print_shop/internal/limiter"
	mw "github.com/MorseWayne/print_shop/internal/middleware"
	"github.com/MorseWayne/print_shop/internal/resp"
	"github.com/MorseWayne/print_shop/internal/service"
)

// Dependencies 包含路由设置所需的所有依赖
type Dependencies struct {
	CustomizationHandler *api.CustomizationHandler
	SessionHandler       *api.SessionHandler
	ProductHandler       *api.ProductHandler
	PrintSurfaceHandler  *api.PrintSurfaceHandler
	StockHandler         *api.StockHandler
	JWTService           service.JWTService
	IdempotencyStore     cache.Cache
	RateLimiter          limiter.Limiter // 为空时不限流
}

// Router 路由器接口
type Router interface {
	Setup(cfg *config.Config, deps *Dependencies, lg *zap.Logger) http.Handler
}

// GinRouter Gin路由器实现
type GinRouter struct {
	engine *gin.Engine
	deps   *Dependencies
	logger *zap.Logger
	cfg    *config.Config
}

// New 创建新的路由器实例
func New() Router {
	return &GinRouter{}
}

// Setup 设置路由和中间件
func (r *GinRouter) Setup(cfg *config.Config, deps *Dependencies, lg *zap.Logger) http.Handler {
	// 根据环境设置 Gin 模式
	switch cfg.App.Env {
	case "prod":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r.engine = gin.New()
	r.deps = deps
	r.logger = lg
	r.cfg = cfg

	// 恢复中间件（从 panic 中恢复）
	r.engine.Use(gin.Recovery())

	r.setupRoutes()

	// 标准库中间件链包在 gin 引擎外层：
	// 请求进入时执行顺序为 access log → CORS → timeout → recovery → request ID
	handler := mw.RequestID(r.engine)
	handler = mw.Recovery(lg)(handler)
	handler = mw.Timeout(cfg.App.RequestTimeout)(handler)
	handler = mw.CORS(mw.CORSConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: cfg.CORS.AllowedMethods,
		AllowedHeaders: cfg.CORS.AllowedHeaders,
	})(handler)
	handler = mw.AccessLog(lg)(handler)

	return handler
}

// setupRoutes 设置所有路由
func (r *GinRouter) setupRoutes() {
	// 健康检查
	r.engine.GET("/healthz", r.healthCheck)

	idempotency := mw.Idempotency(r.deps.IdempotencyStore, mw.IdempotencyConfig{
		Header:      mw.HeaderIdempotencyKey,
		TTL:         r.cfg.Session.IdempotencyTTL,
		InFlightTTL: r.cfg.App.RequestTimeout,
	}, r.logger)

	rateLimit := limiter.RateLimitMiddleware(limiter.MiddlewareConfig{
		Limiter: r.deps.RateLimiter,
		Logger:  r.logger,
	})

	// API v1 路由组
	v1 := r.engine.Group("/api/v1")
	{
		// 商品与定制（公开）
		products := v1.Group("/products")
		products.Use(rateLimit)
		{
			products.GET("", r.deps.ProductHandler.ListProducts)
			products.GET("/:id", r.deps.ProductHandler.GetProduct)
			products.GET("/:id/customization", r.deps.CustomizationHandler.GetCustomization)
			products.POST("/:id/availability", r.deps.CustomizationHandler.Availability)
			products.POST("/:id/line-items", idempotency, r.deps.CustomizationHandler.FreezeLineItem)
		}

		// 定制会话（公开，会话ID即凭证）
		sessions := v1.Group("/customizations/sessions")
		sessions.Use(rateLimit)
		{
			sessions.POST("", r.deps.SessionHandler.StartSession)
			sessions.GET("/:sid", r.deps.SessionHandler.GetSession)
			sessions.PUT("/:sid/attributes", r.deps.SessionHandler.SelectAttribute)
			sessions.PUT("/:sid/scope", r.deps.SessionHandler.SelectScope)
			sessions.PUT("/:sid/area", r.deps.SessionHandler.ChooseArea)
			sessions.PUT("/:sid/placement", r.deps.SessionHandler.PlaceDesign)
			sessions.DELETE("/:sid/placement/:area", r.deps.SessionHandler.ClearPlacement)
			sessions.POST("/:sid/finalize", idempotency, r.deps.SessionHandler.FinalizeSession)
		}

		// 管理员路由（需要认证+管理员权限）
		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware(), r.adminMiddleware())
		{
			surfaces := admin.Group("/print-surfaces")
			{
				surfaces.POST("", r.deps.PrintSurfaceHandler.CreateSurface)
				surfaces.GET("", r.deps.PrintSurfaceHandler.ListSurfaces)
				surfaces.GET("/:slug", r.deps.PrintSurfaceHandler.GetSurface)
				surfaces.PUT("/:slug", r.deps.PrintSurfaceHandler.UpdateSurface)
				surfaces.POST("/:slug/deactivate", r.deps.PrintSurfaceHandler.DeactivateSurface)
			}

			adminProducts := admin.Group("/products")
			{
				adminProducts.POST("", r.deps.ProductHandler.CreateProduct)
				adminProducts.PUT("/:id", r.deps.ProductHandler.UpdateProduct)
				adminProducts.DELETE("/:id", r.deps.ProductHandler.DeleteProduct)
			}

			admin.POST("/variants/:id/restock", r.deps.StockHandler.Restock)
			admin.POST("/stock/commit", idempotency, r.deps.StockHandler.Commit)
		}
	}

	r.engine.NoRoute(func(c *gin.Context) {
		resp.Error(c.Writer, http.StatusNotFound, resp.CodeNotFound, "route not found",
			mw.RequestIDFromContext(c.Request.Context()), "")
	})
}

// healthCheck 健康检查处理器
func (r *GinRouter) healthCheck(c *gin.Context) {
	data := map[string]any{
		"status":  "ok",
		"version": r.cfg.App.Version,
	}
	resp.OK(c.Writer, &data, mw.RequestIDFromContext(c.Request.Context()), "")
}

// authMiddleware 认证中间件
func (r *GinRouter) authMiddleware() gin.HandlerFunc {
	return mw.Gin(mw.AuthMiddleware(r.deps.JWTService, r.logger))
}

// adminMiddleware 管理员权限中间件
func (r *GinRouter) adminMiddleware() gin.HandlerFunc {
	return mw.Gin(mw.RequireAdmin(r.logger))
}
