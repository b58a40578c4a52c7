package domain

import (
	"time"
)

// ProductStatus 定义商品状态类型
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"   // 正常销售
	ProductStatusInactive ProductStatus = "inactive" // 暂停销售
	ProductStatusDeleted  ProductStatus = "deleted"  // 已删除
)

// PrintConfigRef 商品指定的印刷面
type PrintConfigRef struct {
	ConfigType string `json:"config_type"`
}

// CustomizationSettings 商品定制开关
type CustomizationSettings struct {
	Enabled     bool           `json:"enabled"`
	PrintConfig PrintConfigRef `json:"print_config"`
}

// Product 表示可定制商品聚合
type Product struct {
	ID            int64                 `json:"id"`
	Name          string                `json:"name"`
	Description   string                `json:"description"`
	Type          string                `json:"type"` // 商品类型标签，如 tshirt、mug、phone-case
	Price         float64               `json:"price"`
	Status        ProductStatus         `json:"status"`
	ImageURL      string                `json:"image_url"`
	Customization CustomizationSettings `json:"customization"`
	ProductConfig ProductConfig         `json:"product_config"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// IsAvailable 判断商品是否可售
func (p *Product) IsAvailable() bool {
	return p.Status == ProductStatusActive
}

// FindVariant 按ID查找规格
func (p *Product) FindVariant(id int64) (*Variant, bool) {
	for i := range p.ProductConfig.Variants {
		if p.ProductConfig.Variants[i].ID == id {
			return &p.ProductConfig.Variants[i], true
		}
	}
	return nil, false
}

// CreateProductRequest 表示创建商品请求
type CreateProductRequest struct {
	Name          string                `json:"name" validate:"required,min=1,max=255"`
	Description   string                `json:"description"`
	Type          string                `json:"type" validate:"required,max=64"`
	Price         float64               `json:"price" validate:"gt=0"`
	ImageURL      string                `json:"image_url" validate:"omitempty,url"`
	Customization CustomizationSettings `json:"customization"`
	Attributes    []AttributeAxis       `json:"attributes" validate:"dive"`
	Variants      []VariantInput        `json:"variants" validate:"dive"`
}

// VariantInput 创建/更新商品时提交的规格行
type VariantInput struct {
	SKU           string     `json:"sku" validate:"required,max=100"`
	Attributes    Attributes `json:"attributes"`
	StockQuantity int        `json:"stock_quantity" validate:"gte=0"`
	IsActive      *bool      `json:"is_active"`
}

// UpdateProductRequest 表示更新商品请求
// Variants 非空时整体替换规格行；已被引用的旧规格只做软下架。
type UpdateProductRequest struct {
	Name          *string                `json:"name"`
	Description   *string                `json:"description"`
	Type          *string                `json:"type"`
	Price         *float64               `json:"price"`
	Status        *ProductStatus         `json:"status"`
	ImageURL      *string                `json:"image_url"`
	Customization *CustomizationSettings `json:"customization"`
	Attributes    []AttributeAxis        `json:"attributes"`
	Variants      []VariantInput         `json:"variants" validate:"omitempty,dive"`
}

// ProductListRequest 表示商品列表查询请求
type ProductListRequest struct {
	Page     int            `json:"page"`      // 页码，从1开始
	PageSize int            `json:"page_size"` // 每页大小
	Status   *ProductStatus `json:"status"`    // 商品状态过滤
	Type     *string        `json:"type"`      // 商品类型过滤
	Keyword  *string        `json:"keyword"`   // 关键词搜索
}

// ProductListResponse 表示商品列表查询响应
type ProductListResponse struct {
	Products []*Product `json:"products"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}
