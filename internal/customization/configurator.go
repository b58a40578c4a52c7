package customization

import (
	"errors"
	"fmt"

	"github.com/MorseWayne/print_shop/internal/domain"
)

// 配置会话状态机错误
var (
	ErrInvalidTransition = errors.New("invalid configuration transition")
	ErrSessionFinalized  = errors.New("configuration session already finalized")
	ErrAttributeLocked   = errors.New("attribute is locked")
	ErrOptionUnavailable = errors.New("option unavailable")
	ErrUnknownScope      = errors.New("unknown view or model")
	ErrConfirmAreaSwitch = errors.New("switching area discards existing designs, confirmation required")
	ErrOutOfStock        = errors.New("variant out of stock")
)

// Configurator 驱动单个购物车行的配置状态机：
// unconfigured -> attributes_selected -> area_chosen -> design_placed -> validated。
// 会话本身是普通值，由调用方保存；Configurator 只持有商品、印刷面与规格矩阵。
type Configurator struct {
	resolver *Resolver
	product  *domain.Product
	surface  domain.PrintSurface
	matrix   *VariantMatrix
}

// NewConfigurator 基于解析结果创建状态机
func (r *Resolver) NewConfigurator(product *domain.Product, resolved *ResolvedCustomization) *Configurator {
	return &Configurator{
		resolver: r,
		product:  product,
		surface:  resolved.Surface,
		matrix:   resolved.Matrix,
	}
}

// ConfiguratorFor 为已有会话重建状态机（印刷面按会话记录的 slug 查找）
func (r *Resolver) ConfiguratorFor(product *domain.Product, surfaceSlug string) (*Configurator, error) {
	surface, err := r.SurfaceForSelection(surfaceSlug)
	if err != nil {
		return nil, err
	}
	matrix, err := BuildMatrix(product.ProductConfig.Attributes, product.ProductConfig.Variants)
	if err != nil {
		return nil, fmt.Errorf("product %d: %w", product.ID, err)
	}
	return &Configurator{resolver: r, product: product, surface: *surface, matrix: matrix}, nil
}

// Surface 状态机使用的印刷面
func (c *Configurator) Surface() domain.PrintSurface {
	return c.surface.Clone()
}

// Matrix 状态机使用的规格矩阵
func (c *Configurator) Matrix() *VariantMatrix {
	return c.matrix
}

// Start 用解析结果初始化新会话
func (c *Configurator) Start(id string, resolved *ResolvedCustomization) *domain.ConfigurationSession {
	now := c.resolver.now().UTC()
	s := &domain.ConfigurationSession{
		ID:          id,
		ProductID:   c.product.ID,
		SurfaceSlug: c.surface.Slug,
		Fallback:    resolved.UsedFallback,
		State:       domain.StateUnconfigured,
		Attributes:  resolved.Attributes.Clone(),
		Locked:      append([]string(nil), resolved.Locked...),
		Scope:       resolved.InitialScope,
		Placements:  domain.Placements{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	c.refresh(s)
	return s
}

// SelectAttribute 选择某个维度的取值
func (c *Configurator) SelectAttribute(s *domain.ConfigurationSession, axis, value string) error {
	if err := c.editable(s); err != nil {
		return err
	}
	if s.IsLocked(axis) {
		return fmt.Errorf("%w: %s", ErrAttributeLocked, axis)
	}
	a, ok := c.matrix.Axis(axis)
	if !ok || !a.HasValue(value) {
		return fmt.Errorf("%w: %s=%s", ErrOptionUnavailable, axis, value)
	}
	if !c.matrix.IsValueAvailable(axis, value, s.Attributes) {
		return fmt.Errorf("%w: %s=%s", ErrOptionUnavailable, axis, value)
	}
	if s.Attributes == nil {
		s.Attributes = domain.Attributes{}
	}
	s.Attributes[axis] = value
	c.refresh(s)
	return nil
}

// SelectScope 切换视图或机型。
// 机型之间的设计不能共存，切换机型会丢弃其他机型下的设计；视图之间的设计保留。
func (c *Configurator) SelectScope(s *domain.ConfigurationSession, scope string) error {
	if err := c.editable(s); err != nil {
		return err
	}
	if _, ok := c.surface.AreasIn(scope); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownScope, scope)
	}
	if scope == s.Scope {
		return nil
	}
	if c.surface.Kind == domain.SurfaceKindModels {
		for other := range s.Placements {
			if other != scope {
				delete(s.Placements, other)
			}
		}
	}
	s.Scope = scope
	s.ActiveArea = ""
	c.refresh(s)
	return nil
}

// ChooseArea 选择当前作用域下的区域。
// 对单区域占用的印刷面，若同一作用域的其他区域已有设计，必须由调用方确认丢弃。
func (c *Configurator) ChooseArea(s *domain.ConfigurationSession, areaID string, discardOthers bool) error {
	if err := c.editable(s); err != nil {
		return err
	}
	if s.State == domain.StateUnconfigured {
		return fmt.Errorf("%w: select attributes first", ErrInvalidTransition)
	}
	if _, ok := c.surface.FindArea(s.Scope, areaID); !ok {
		return &RejectionError{Reason: ReasonAreaNotFound, Scope: s.Scope, AreaID: areaID}
	}

	if c.surface.SingleOccupancy {
		var others []string
		for id := range s.Placements[s.Scope] {
			if id != areaID {
				others = append(others, id)
			}
		}
		if len(others) > 0 {
			if !discardOthers {
				return ErrConfirmAreaSwitch
			}
			for _, id := range others {
				s.Placements.Remove(s.Scope, id)
			}
		}
	}

	s.ActiveArea = areaID
	c.refresh(s)
	return nil
}

// PlaceDesign 在当前区域放置设计；草稿阶段允许未转存的上传
func (c *Configurator) PlaceDesign(s *domain.ConfigurationSession, p domain.DesignPlacement) error {
	if err := c.editable(s); err != nil {
		return err
	}
	if s.ActiveArea == "" || s.State == domain.StateUnconfigured {
		return fmt.Errorf("%w: choose an area first", ErrInvalidTransition)
	}
	if err := c.resolver.validator.ValidateDraft(&c.surface, s.Scope, s.ActiveArea, p); err != nil {
		return err
	}
	if s.Placements == nil {
		s.Placements = domain.Placements{}
	}
	s.Placements.Put(s.Scope, s.ActiveArea, p.Clone())
	c.refresh(s)
	return nil
}

// ClearPlacement 清除当前作用域下某个区域的设计，其他区域保留
func (c *Configurator) ClearPlacement(s *domain.ConfigurationSession, areaID string) error {
	if err := c.editable(s); err != nil {
		return err
	}
	if _, ok := s.Placements.Get(s.Scope, areaID); !ok {
		return &RejectionError{Reason: ReasonAreaNotFound, Scope: s.Scope, AreaID: areaID}
	}
	s.Placements.Remove(s.Scope, areaID)
	s.ActiveArea = areaID
	c.refresh(s)
	return nil
}

// Finalize 严格校验并冻结购物车行，会话进入终态
func (c *Configurator) Finalize(s *domain.ConfigurationSession, quantity int) (*domain.CartLineItemSnapshot, error) {
	if err := c.editable(s); err != nil {
		return nil, err
	}
	variant := c.matrix.Match(s.Attributes)
	if variant == nil {
		return nil, fmt.Errorf("%w: attributes incomplete", ErrInvalidTransition)
	}
	if !variant.InStock() || variant.StockQuantity < quantity {
		return nil, fmt.Errorf("%w: %s", ErrOutOfStock, variant.SKU)
	}
	item, err := c.resolver.BuildLineItem(c.product, s.Selection(), variant, quantity)
	if err != nil {
		return nil, err
	}
	s.LineItem = item
	s.State = domain.StateValidated
	s.UpdatedAt = c.resolver.now().UTC()
	return item, nil
}

func (c *Configurator) editable(s *domain.ConfigurationSession) error {
	if s.State == domain.StateValidated {
		return ErrSessionFinalized
	}
	return nil
}

// refresh 根据会话内容重新计算状态
func (c *Configurator) refresh(s *domain.ConfigurationSession) {
	s.UpdatedAt = c.resolver.now().UTC()
	switch {
	case c.matrix.Match(s.Attributes) == nil:
		s.State = domain.StateUnconfigured
	case s.ActiveArea == "":
		s.State = domain.StateAttributesSelected
	default:
		if _, ok := s.Placements.Get(s.Scope, s.ActiveArea); ok {
			s.State = domain.StateDesignPlaced
		} else {
			s.State = domain.StateAreaChosen
		}
	}
}
