package domain

import "time"

// ConfigState 单个购物车行的配置状态
type ConfigState string

const (
	StateUnconfigured       ConfigState = "unconfigured"
	StateAttributesSelected ConfigState = "attributes_selected"
	StateAreaChosen         ConfigState = "area_chosen"
	StateDesignPlaced       ConfigState = "design_placed"
	StateValidated          ConfigState = "validated" // 终态，可加入购物车
)

// ConfigurationSession 顾客的定制会话
// 以会话句柄显式传递，而不是依赖全局状态；多个会话之间互不影响。
type ConfigurationSession struct {
	ID          string                `json:"id"`
	ProductID   int64                 `json:"product_id"`
	SurfaceSlug string                `json:"surface_slug"`
	Fallback    bool                  `json:"used_fallback,omitempty"` // 绑定的是内置兜底印刷面
	State       ConfigState           `json:"state"`
	Attributes  Attributes            `json:"attributes"`
	Locked      []string              `json:"locked,omitempty"`
	Scope       string                `json:"scope"`
	ActiveArea  string                `json:"active_area,omitempty"`
	Placements  Placements            `json:"placements"`
	LineItem    *CartLineItemSnapshot `json:"line_item,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// IsLocked 维度是否被锁定
func (s *ConfigurationSession) IsLocked(axis string) bool {
	for _, code := range s.Locked {
		if code == axis {
			return true
		}
	}
	return false
}

// Selection 当前会话对应的定制选择
func (s *ConfigurationSession) Selection() CustomizationSelection {
	return CustomizationSelection{
		SurfaceSlug:   s.SurfaceSlug,
		SelectedScope: s.Scope,
		Placements:    s.Placements.Clone(),
	}
}

// StartSessionRequest 开始定制会话
type StartSessionRequest struct {
	ProductID        int64      `json:"product_id" binding:"required,gt=0"`
	SurfaceType      string     `json:"surface_type"`
	LockedAttributes Attributes `json:"locked_attributes"`
}

// SelectAttributeRequest 选择规格
type SelectAttributeRequest struct {
	Axis  string `json:"axis" binding:"required"`
	Value string `json:"value" binding:"required"`
}

// SelectScopeRequest 选择视图或机型
type SelectScopeRequest struct {
	Scope string `json:"scope" binding:"required"`
}

// ChooseAreaRequest 选择区域；DiscardOthers 表示调用方已确认丢弃同一视图下其他区域的设计
type ChooseAreaRequest struct {
	AreaID        string `json:"area_id" binding:"required"`
	DiscardOthers bool   `json:"discard_others"`
}

// FinalizeSessionRequest 完成定制
type FinalizeSessionRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}
