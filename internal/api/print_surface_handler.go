package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/print_shop/internal/domain"
	"github.com/MorseWayne/print_shop/internal/resp"
)

// PrintSurfaceServiceInterface 定义处理器依赖的印刷面服务
type PrintSurfaceServiceInterface interface {
	CreateSurface(ctx context.Context, req *domain.PrintSurfaceRequest) (*domain.PrintSurface, error)
	GetSurface(ctx context.Context, slug string) (*domain.PrintSurface, error)
	ListSurfaces(ctx context.Context, req *domain.PrintSurfaceListRequest) ([]domain.PrintSurface, error)
	UpdateSurface(ctx context.Context, slug string, req *domain.PrintSurfaceRequest) (*domain.PrintSurface, error)
	DeactivateSurface(ctx context.Context, slug string) error
}

// PrintSurfaceHandler 印刷面管理API处理器（运营后台）
type PrintSurfaceHandler struct {
	surfaceService PrintSurfaceServiceInterface
	logger         *zap.Logger
}

// NewPrintSurfaceHandler 创建印刷面管理API处理器
func NewPrintSurfaceHandler(surfaceService PrintSurfaceServiceInterface, logger *zap.Logger) *PrintSurfaceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrintSurfaceHandler{
		surfaceService: surfaceService,
		logger:         logger,
	}
}

// CreateSurface 创建印刷面
// POST /api/v1/admin/print-surfaces
func (h *PrintSurfaceHandler) CreateSurface(c *gin.Context) {
	var req domain.PrintSurfaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	surface, err := h.surfaceService.CreateSurface(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, h.logger, "create print surface", err)
		return
	}

	h.logger.Info("print surface created",
		zap.String("request_id", requestID(c)),
		zap.String("slug", surface.Slug),
		zap.String("kind", string(surface.Kind)))

	resp.OK(c.Writer, surface, requestID(c), "")
}

// GetSurface 获取印刷面
// GET /api/v1/admin/print-surfaces/{slug}
func (h *PrintSurfaceHandler) GetSurface(c *gin.Context) {
	surface, err := h.surfaceService.GetSurface(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeServiceError(c, h.logger, "get print surface", err)
		return
	}
	resp.OK(c.Writer, surface, requestID(c), "")
}

// ListSurfaces 列出印刷面
// GET /api/v1/admin/print-surfaces?product_type=mug&active_only=true
func (h *PrintSurfaceHandler) ListSurfaces(c *gin.Context) {
	req := &domain.PrintSurfaceListRequest{ActiveOnly: c.Query("active_only") == "true"}
	if typ := c.Query("product_type"); typ != "" {
		req.ProductType = &typ
	}

	surfaces, err := h.surfaceService.ListSurfaces(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, h.logger, "list print surfaces", err)
		return
	}
	resp.OK(c.Writer, &surfaces, requestID(c), "")
}

// UpdateSurface 更新印刷面，请求体携带 version 时做乐观锁校验
// PUT /api/v1/admin/print-surfaces/{slug}
func (h *PrintSurfaceHandler) UpdateSurface(c *gin.Context) {
	var req domain.PrintSurfaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	surface, err := h.surfaceService.UpdateSurface(c.Request.Context(), c.Param("slug"), &req)
	if err != nil {
		writeServiceError(c, h.logger, "update print surface", err)
		return
	}

	h.logger.Info("print surface updated",
		zap.String("request_id", requestID(c)),
		zap.String("slug", surface.Slug),
		zap.Int("version", surface.Version))

	resp.OK(c.Writer, surface, requestID(c), "")
}

// DeactivateSurface 下线印刷面；引用它的商品之后回落到内置默认配置
// POST /api/v1/admin/print-surfaces/{slug}/deactivate
func (h *PrintSurfaceHandler) DeactivateSurface(c *gin.Context) {
	slug := c.Param("slug")
	if err := h.surfaceService.DeactivateSurface(c.Request.Context(), slug); err != nil {
		writeServiceError(c, h.logger, "deactivate print surface", err)
		return
	}

	h.logger.Info("print surface deactivated", zap.String("request_id", requestID(c)), zap.String("slug", slug))

	result := map[string]interface{}{"deactivated": true}
	resp.OK(c.Writer, &result, requestID(c), "")
}
