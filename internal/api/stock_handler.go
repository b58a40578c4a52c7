package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/print_shop/internal/domain"
	"github.com/MorseWayne/print_shop/internal/resp"
)

// StockServiceInterface 定义处理器依赖的库存服务
type StockServiceInterface interface {
	Restock(ctx context.Context, variantID int64, req *domain.RestockRequest) (*domain.Variant, error)
	Commit(ctx context.Context, req *domain.StockCommitRequest) error
}

// StockHandler 规格库存API处理器
type StockHandler struct {
	stockService StockServiceInterface
	logger       *zap.Logger
}

// NewStockHandler 创建库存处理器
func NewStockHandler(stockService StockServiceInterface, logger *zap.Logger) *StockHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockHandler{
		stockService: stockService,
		logger:       logger,
	}
}

// Restock 补货
// POST /api/v1/admin/variants/{id}/restock
func (h *StockHandler) Restock(c *gin.Context) {
	variantID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req domain.RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	variant, err := h.stockService.Restock(c.Request.Context(), variantID, &req)
	if err != nil {
		writeServiceError(c, h.logger, "restock", err)
		return
	}

	h.logger.Info("variant restocked",
		zap.String("request_id", requestID(c)),
		zap.Int64("variant_id", variantID),
		zap.Int("quantity", req.Quantity),
		zap.String("reason", req.Reason))

	resp.OK(c.Writer, variant, requestID(c), "")
}

// Commit 订单确认后按购物车行扣减库存，全部成功或全部失败
// POST /api/v1/admin/stock/commit
func (h *StockHandler) Commit(c *gin.Context) {
	var req domain.StockCommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	if err := h.stockService.Commit(c.Request.Context(), &req); err != nil {
		writeServiceError(c, h.logger, "commit stock", err)
		return
	}

	result := map[string]interface{}{"committed": true, "order_ref": req.OrderRef}
	resp.OK(c.Writer, &result, requestID(c), "")
}
