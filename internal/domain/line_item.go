package domain

import "time"

// ResolvedPlacement 冻结进购物车行的设计内容
type ResolvedPlacement struct {
	Type     PlacementType `json:"type"`
	ImageURL string        `json:"image_url,omitempty"`
	ImageID  string        `json:"image_id,omitempty"`
	FileName string        `json:"file_name,omitempty"`
	Text     string        `json:"text,omitempty"`
	Font     string        `json:"font,omitempty"`
	Color    string        `json:"color,omitempty"`
}

// LineItemCustomization 购物车行的定制信息
type LineItemCustomization struct {
	Enabled         bool                                    `json:"enabled"`
	PrintConfigType string                                  `json:"print_config_type"`
	SurfaceVersion  int                                     `json:"surface_version"`
	Placements      map[string]map[string]ResolvedPlacement `json:"placements"`
}

// CartLineItemSnapshot 可直接交给结账/支付方的不可变购物车行快照
type CartLineItemSnapshot struct {
	ID            string                `json:"id"`
	ProductID     int64                 `json:"product_id"`
	VariantID     int64                 `json:"variant_id"`
	SKU           string                `json:"sku"`
	Variant       Attributes            `json:"variant"`
	Customization LineItemCustomization `json:"customization"`
	Quantity      int                   `json:"quantity"`
	FrozenAt      time.Time             `json:"frozen_at"`
}

// Clone 深拷贝快照
func (s CartLineItemSnapshot) Clone() CartLineItemSnapshot {
	s.Variant = s.Variant.Clone()
	placements := make(map[string]map[string]ResolvedPlacement, len(s.Customization.Placements))
	for scope, areas := range s.Customization.Placements {
		m := make(map[string]ResolvedPlacement, len(areas))
		for id, p := range areas {
			m[id] = p
		}
		placements[scope] = m
	}
	s.Customization.Placements = placements
	return s
}

// FreezeLineItemRequest 冻结购物车行请求
type FreezeLineItemRequest struct {
	Selection  CustomizationSelection `json:"selection"`
	Attributes Attributes             `json:"attributes"`
	Quantity   int                    `json:"quantity" binding:"required,gt=0"`
}

// StockCommitRequest 下单后扣减库存请求
type StockCommitRequest struct {
	OrderRef  string                 `json:"order_ref" binding:"required"`
	LineItems []CartLineItemSnapshot `json:"line_items" binding:"required,min=1"`
}
