package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/print_shop/internal/domain"
	"github.com/MorseWayne/print_shop/internal/resp"
	"github.com/MorseWayne/print_shop/internal/service"
)

// SessionServiceInterface 定义处理器依赖的定制会话服务
type SessionServiceInterface interface {
	Start(ctx context.Context, req *domain.StartSessionRequest) (*service.SessionView, error)
	Get(ctx context.Context, id string) (*service.SessionView, error)
	SelectAttribute(ctx context.Context, id string, req *domain.SelectAttributeRequest) (*service.SessionView, error)
	SelectScope(ctx context.Context, id string, req *domain.SelectScopeRequest) (*service.SessionView, error)
	ChooseArea(ctx context.Context, id string, req *domain.ChooseAreaRequest) (*service.SessionView, error)
	PlaceDesign(ctx context.Context, id string, placement domain.DesignPlacement) (*service.SessionView, error)
	ClearPlacement(ctx context.Context, id string, areaID string) (*service.SessionView, error)
	Finalize(ctx context.Context, id string, req *domain.FinalizeSessionRequest) (*service.SessionView, error)
}

// SessionHandler 定制会话API处理器
type SessionHandler struct {
	sessionService SessionServiceInterface
	logger         *zap.Logger
}

// NewSessionHandler 创建定制会话API处理器
func NewSessionHandler(sessionService SessionServiceInterface, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{
		sessionService: sessionService,
		logger:         logger,
	}
}

// StartSession 为一个购物车行开启定制会话
// @Summary 开启定制会话
// @Tags 定制会话
// @Accept json
// @Produce json
// @Param request body domain.StartSessionRequest true "商品与锁定维度"
// @Success 201 {object} resp.Response[service.SessionView] "成功"
// @Router /api/v1/customizations/sessions [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req domain.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	view, err := h.sessionService.Start(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, h.logger, "start session", err)
		return
	}

	h.logger.Info("customization session started",
		zap.String("request_id", requestID(c)),
		zap.String("session_id", view.Session.ID),
		zap.Int64("product_id", req.ProductID))

	resp.WriteJSON(c.Writer, http.StatusCreated, resp.CodeOK, "created", view, requestID(c), "")
}

// GetSession 获取会话当前状态
// @Summary 获取定制会话
// @Tags 定制会话
// @Produce json
// @Param sid path string true "会话ID"
// @Success 200 {object} resp.Response[service.SessionView] "成功"
// @Failure 404 {object} resp.Response[any] "会话不存在或已过期"
// @Router /api/v1/customizations/sessions/{sid} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	view, err := h.sessionService.Get(c.Request.Context(), c.Param("sid"))
	h.respond(c, "get session", view, err)
}

// SelectAttribute 选择某个规格维度的值
func (h *SessionHandler) SelectAttribute(c *gin.Context) {
	var req domain.SelectAttributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}
	view, err := h.sessionService.SelectAttribute(c.Request.Context(), c.Param("sid"), &req)
	h.respond(c, "select attribute", view, err)
}

// SelectScope 切换视图或机型
func (h *SessionHandler) SelectScope(c *gin.Context) {
	var req domain.SelectScopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}
	view, err := h.sessionService.SelectScope(c.Request.Context(), c.Param("sid"), &req)
	h.respond(c, "select scope", view, err)
}

// ChooseArea 选择印刷区域
// 单区域印刷面上已有其他区域的设计时返回 409，带 discard_others=true 重新提交即确认丢弃
func (h *SessionHandler) ChooseArea(c *gin.Context) {
	var req domain.ChooseAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}
	view, err := h.sessionService.ChooseArea(c.Request.Context(), c.Param("sid"), &req)
	h.respond(c, "choose area", view, err)
}

// PlaceDesign 在当前区域放置设计
func (h *SessionHandler) PlaceDesign(c *gin.Context) {
	var placement domain.DesignPlacement
	if err := c.ShouldBindJSON(&placement); err != nil {
		bindError(c, h.logger, err)
		return
	}
	view, err := h.sessionService.PlaceDesign(c.Request.Context(), c.Param("sid"), placement)
	h.respond(c, "place design", view, err)
}

// ClearPlacement 清除某个区域的设计
func (h *SessionHandler) ClearPlacement(c *gin.Context) {
	view, err := h.sessionService.ClearPlacement(c.Request.Context(), c.Param("sid"), c.Param("area"))
	h.respond(c, "clear placement", view, err)
}

// FinalizeSession 完成配置并冻结购物车行
// @Summary 完成定制
// @Tags 定制会话
// @Accept json
// @Produce json
// @Param sid path string true "会话ID"
// @Param request body domain.FinalizeSessionRequest true "数量"
// @Success 200 {object} resp.Response[service.SessionView] "成功"
// @Failure 409 {object} resp.Response[any] "库存不足或会话已完成"
// @Failure 422 {object} resp.Response[RejectionDetail] "设计校验失败"
// @Router /api/v1/customizations/sessions/{sid}/finalize [post]
func (h *SessionHandler) FinalizeSession(c *gin.Context) {
	var req domain.FinalizeSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	view, err := h.sessionService.Finalize(c.Request.Context(), c.Param("sid"), &req)
	if err != nil {
		writeServiceError(c, h.logger, "finalize session", err)
		return
	}

	h.logger.Info("customization session finalized",
		zap.String("request_id", requestID(c)),
		zap.String("session_id", view.Session.ID),
		zap.String("sku", view.Session.LineItem.SKU))

	resp.OK(c.Writer, view, requestID(c), "")
}

func (h *SessionHandler) respond(c *gin.Context, op string, view *service.SessionView, err error) {
	if err != nil {
		writeServiceError(c, h.logger, op, err)
		return
	}
	resp.OK(c.Writer, view, requestID(c), "")
}
