package domain

import (
	"sort"
	"strconv"
	"strings"
)

// AttributeAxis 商品的可选维度（尺码、颜色、机型等）
type AttributeAxis struct {
	Code   string   `json:"code"`
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// HasValue 判断取值是否属于该维度
func (a AttributeAxis) HasValue(v string) bool {
	for _, x := range a.Values {
		if x == v {
			return true
		}
	}
	return false
}

// Attributes 维度编码 -> 取值
type Attributes map[string]string

// Clone 拷贝属性表；nil 拷贝为空表
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Equal 判断两个属性表是否完全一致
func (a Attributes) Equal(b Attributes) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// Key 返回与插入顺序无关的规范键，用于查重与精确匹配
func (a Attributes) Key() string {
	codes := make([]string, 0, len(a))
	for k := range a {
		codes = append(codes, k)
	}
	sort.Strings(codes)

	var b strings.Builder
	for i, k := range codes {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte('=')
		b.WriteString(strconv.Quote(a[k]))
	}
	return b.String()
}

// Variant 一个具体规格组合及其库存
type Variant struct {
	ID            int64      `json:"id"`
	ProductID     int64      `json:"product_id"`
	SKU           string     `json:"sku"`
	Attributes    Attributes `json:"attributes"`
	StockQuantity int        `json:"stock_quantity"`
	IsActive      bool       `json:"is_active"` // 被订单引用的规格只做软下架
	Version       int        `json:"version"`   // 乐观锁版本号
}

// InStock 是否有货
func (v *Variant) InStock() bool {
	return v.IsActive && v.StockQuantity > 0
}

// Clone 深拷贝
func (v Variant) Clone() Variant {
	v.Attributes = v.Attributes.Clone()
	return v
}

// ProductConfig 商品的规格配置
type ProductConfig struct {
	Attributes []AttributeAxis `json:"attributes"`
	Variants   []Variant       `json:"variants"`
}

// VariantStockChange 规格库存变动（正数入库，负数出库）
type VariantStockChange struct {
	VariantID int64 `json:"variant_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required"`
}

// RestockRequest 补货请求
type RestockRequest struct {
	Quantity int    `json:"quantity" binding:"required,gt=0"`
	Reason   string `json:"reason" binding:"required,min=1"`
}

// AvailabilityRequest 查询部分选择下的可选项
type AvailabilityRequest struct {
	SurfaceType string     `json:"surface_type"`
	Attributes  Attributes `json:"attributes"`
}
