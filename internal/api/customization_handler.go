package api

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/print_shop/internal/domain"
	"github.com/MorseWayne/print_shop/internal/resp"
	"github.com/MorseWayne/print_shop/internal/service"
)

// lockQueryPrefix 锁定维度的查询参数前缀，如 lock.size=M
const lockQueryPrefix = "lock."

// CustomizationServiceInterface 定义处理器依赖的定制服务
type CustomizationServiceInterface interface {
	GetCustomization(ctx context.Context, productID int64, surfaceType string, locked domain.Attributes) (*service.CustomizationView, error)
	Availability(ctx context.Context, productID int64, req *domain.AvailabilityRequest) (*service.AvailabilityResult, error)
	FreezeLineItem(ctx context.Context, productID int64, req *domain.FreezeLineItemRequest) (*domain.CartLineItemSnapshot, error)
}

// CustomizationHandler 商品定制API处理器
type CustomizationHandler struct {
	customizationService CustomizationServiceInterface
	logger               *zap.Logger
}

// NewCustomizationHandler 创建商品定制API处理器
func NewCustomizationHandler(customizationService CustomizationServiceInterface, logger *zap.Logger) *CustomizationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomizationHandler{
		customizationService: customizationService,
		logger:               logger,
	}
}

// GetCustomization 获取商品的定制配置
// @Summary 获取商品定制配置
// @Description 解析商品使用的印刷面，返回各维度可选项与初始视图，支持 lock.<维度> 预先锁定规格
// @Tags 定制
// @Produce json
// @Param id path int true "商品ID"
// @Param type query string false "印刷面类型，覆盖商品自身配置"
// @Success 200 {object} resp.Response[service.CustomizationView] "成功"
// @Failure 404 {object} resp.Response[any] "商品或印刷面不存在"
// @Failure 422 {object} resp.Response[any] "锁定的规格不存在"
// @Router /api/v1/products/{id}/customization [get]
func (h *CustomizationHandler) GetCustomization(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	view, err := h.customizationService.GetCustomization(c.Request.Context(), productID,
		c.Query("type"), lockedFromQuery(c))
	if err != nil {
		writeServiceError(c, h.logger, "get customization", err)
		return
	}

	resp.OK(c.Writer, view, requestID(c), "")
}

// Availability 根据部分选择计算可选项
// @Summary 计算可选项
// @Tags 定制
// @Accept json
// @Produce json
// @Param id path int true "商品ID"
// @Param request body domain.AvailabilityRequest true "当前选择"
// @Success 200 {object} resp.Response[service.AvailabilityResult] "成功"
// @Router /api/v1/products/{id}/availability [post]
func (h *CustomizationHandler) Availability(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req domain.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	result, err := h.customizationService.Availability(c.Request.Context(), productID, &req)
	if err != nil {
		writeServiceError(c, h.logger, "availability", err)
		return
	}

	resp.OK(c.Writer, result, requestID(c), "")
}

// FreezeLineItem 校验完整选择并生成购物车行快照
// @Summary 生成购物车行
// @Description 规格必须完全匹配，设计逐一校验，首个失败即返回原因
// @Tags 定制
// @Accept json
// @Produce json
// @Param id path int true "商品ID"
// @Param X-Idempotency-Key header string false "幂等键"
// @Param request body domain.FreezeLineItemRequest true "完整选择"
// @Success 200 {object} resp.Response[domain.CartLineItemSnapshot] "成功"
// @Failure 409 {object} resp.Response[any] "库存不足"
// @Failure 422 {object} resp.Response[RejectionDetail] "设计校验失败"
// @Router /api/v1/products/{id}/line-items [post]
func (h *CustomizationHandler) FreezeLineItem(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req domain.FreezeLineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	item, err := h.customizationService.FreezeLineItem(c.Request.Context(), productID, &req)
	if err != nil {
		writeServiceError(c, h.logger, "freeze line item", err)
		return
	}

	h.logger.Info("line item frozen",
		zap.String("request_id", requestID(c)),
		zap.Int64("product_id", productID),
		zap.String("sku", item.SKU),
		zap.Int("quantity", item.Quantity))

	resp.OK(c.Writer, item, requestID(c), "")
}

// lockedFromQuery 收集 lock.<维度>=<值> 查询参数；没有锁定时返回 nil
func lockedFromQuery(c *gin.Context) domain.Attributes {
	var locked domain.Attributes
	for key, values := range c.Request.URL.Query() {
		axis, found := strings.CutPrefix(key, lockQueryPrefix)
		if !found || axis == "" || len(values) == 0 {
			continue
		}
		if locked == nil {
			locked = domain.Attributes{}
		}
		locked[axis] = values[0]
	}
	return locked
}
