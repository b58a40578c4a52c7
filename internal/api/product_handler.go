package api

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/print_shop/internal/domain"
	"github.com/MorseWayne/print_shop/internal/resp"
)

// ProductServiceInterface 定义处理器依赖的商品服务
type ProductServiceInterface interface {
	CreateProduct(ctx context.Context, req *domain.CreateProductRequest) (*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, req *domain.UpdateProductRequest) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	ListProducts(ctx context.Context, req *domain.ProductListRequest) (*domain.ProductListResponse, error)
}

// ProductHandler 商品相关的HTTP处理器
type ProductHandler struct {
	productService ProductServiceInterface
	logger         *zap.Logger
}

// NewProductHandler 创建商品处理器实例
func NewProductHandler(productService ProductServiceInterface, logger *zap.Logger) *ProductHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// CreateProduct 创建商品
// POST /api/v1/admin/products
// 需要管理员权限
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req domain.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, h.logger, "create product", err)
		return
	}

	h.logger.Info("product created",
		zap.String("request_id", requestID(c)),
		zap.Int64("product_id", product.ID),
		zap.Int("variants", len(product.ProductConfig.Variants)))

	resp.OK(c.Writer, product, requestID(c), "")
}

// GetProduct 获取商品详情
// GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, h.logger, "get product", err)
		return
	}

	resp.OK(c.Writer, product, requestID(c), "")
}

// UpdateProduct 更新商品；传入 variants 时整体替换规格行
// PUT /api/v1/admin/products/{id}
// 需要管理员权限
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req domain.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		writeServiceError(c, h.logger, "update product", err)
		return
	}

	resp.OK(c.Writer, product, requestID(c), "")
}

// DeleteProduct 删除商品
// DELETE /api/v1/admin/products/{id}
// 需要管理员权限
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		writeServiceError(c, h.logger, "delete product", err)
		return
	}

	result := map[string]interface{}{"deleted": true}
	resp.OK(c.Writer, &result, requestID(c), "")
}

// ListProducts 获取商品列表
// GET /api/v1/products?page=1&page_size=20&status=active&type=tshirt&keyword=tee
func (h *ProductHandler) ListProducts(c *gin.Context) {
	req := &domain.ProductListRequest{Page: 1, PageSize: 20}

	// 分页参数，非法值回落到默认
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		req.Page = page
	}
	if pageSize, err := strconv.Atoi(c.Query("page_size")); err == nil && pageSize > 0 && pageSize <= 100 {
		req.PageSize = pageSize
	}

	// 过滤参数
	if status := c.Query("status"); status != "" {
		productStatus := domain.ProductStatus(status)
		req.Status = &productStatus
	}
	if typ := c.Query("type"); typ != "" {
		req.Type = &typ
	}
	if keyword := c.Query("keyword"); keyword != "" {
		req.Keyword = &keyword
	}

	result, err := h.productService.ListProducts(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, h.logger, "list products", err)
		return
	}

	resp.OK(c.Writer, result, requestID(c), "")
}
