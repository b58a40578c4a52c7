package customization

import (
	"errors"
	"fmt"

	"github.com/MorseWayne/print_shop/internal/domain"
)

// RejectReason 设计被拒绝的原因
type RejectReason string

const (
	ReasonAreaNotFound     RejectReason = "AreaNotFound"
	ReasonSurfaceInactive  RejectReason = "SurfaceInactive"
	ReasonEmptyText        RejectReason = "EmptyText"
	ReasonMissingImageRef  RejectReason = "MissingImageRef"
	ReasonSizeExceeded     RejectReason = "SizeExceeded"
	ReasonInvalidPlacement RejectReason = "InvalidPlacement"
)

// RejectionError 设计校验失败
type RejectionError struct {
	Reason RejectReason
	Scope  string
	AreaID string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("placement rejected at %s/%s: %s", e.Scope, e.AreaID, e.Reason)
}

// AsRejection 从错误链中取出 RejectionError
func AsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// PlacementValidator 按区域约束校验设计内容。
// 单区域占用的确认不在这里处理，由 Configurator 负责。
type PlacementValidator struct{}

// NewPlacementValidator 创建校验器
func NewPlacementValidator() *PlacementValidator {
	return &PlacementValidator{}
}

// Validate 严格校验：图片必须已解析为永久地址
func (v *PlacementValidator) Validate(surface *domain.PrintSurface, scope, areaID string, p domain.DesignPlacement) error {
	return v.validate(surface, scope, areaID, p, false)
}

// ValidateDraft 草稿校验：待转存的上传也视为有效图片
func (v *PlacementValidator) ValidateDraft(surface *domain.PrintSurface, scope, areaID string, p domain.DesignPlacement) error {
	return v.validate(surface, scope, areaID, p, true)
}

func (v *PlacementValidator) validate(surface *domain.PrintSurface, scope, areaID string, p domain.DesignPlacement, draft bool) error {
	reject := func(r RejectReason) error {
		return &RejectionError{Reason: r, Scope: scope, AreaID: areaID}
	}

	if surface == nil || !surface.IsActive {
		return reject(ReasonSurfaceInactive)
	}
	area, ok := surface.FindArea(scope, areaID)
	if !ok {
		return reject(ReasonAreaNotFound)
	}
	if !p.IsWellFormed() {
		return reject(ReasonInvalidPlacement)
	}

	switch p.Type {
	case domain.PlacementText:
		if !p.HasText() {
			return reject(ReasonEmptyText)
		}
	case domain.PlacementImage:
		if !p.Image.IsResolved() && !(draft && p.Image.IsPending()) {
			return reject(ReasonMissingImageRef)
		}
	}

	if area.Max > 0 && p.Size > 0 && p.Size > area.Max {
		return reject(ReasonSizeExceeded)
	}
	return nil
}
