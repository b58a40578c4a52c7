// Package customization 实现定制商品的核心规则：印刷面目录、规格矩阵、设计校验与购物车行解析。
// 包内所有操作都是同步的纯计算，不做I/O，也不修改库存。
package customization

import (
	"errors"
	"fmt"

	"github.com/MorseWayne/print_shop/internal/domain"
)

// 印刷面查找错误；ErrSurfaceNotFound 与 ErrSurfaceInactive 均包装 ErrSurfaceUnavailable，
// 调用方只需判断“不可用”即可决定是否回退到内置默认印刷面。
var (
	ErrSurfaceUnavailable = errors.New("print surface unavailable")
	ErrSurfaceNotFound    = fmt.Errorf("%w: not found", ErrSurfaceUnavailable)
	ErrSurfaceInactive    = fmt.Errorf("%w: inactive", ErrSurfaceUnavailable)
)

// 内置默认印刷面的 slug
const (
	DefaultGeneralSlug = "general"
	DefaultViewsSlug   = "default-views"
	DefaultModelsSlug  = "default-models"
)

// Catalog 印刷面目录，构造后只读
type Catalog struct {
	surfaces []domain.PrintSurface
	bySlug   map[string]int
}

// NewCatalog 校验并构造目录
func NewCatalog(surfaces []domain.PrintSurface) (*Catalog, error) {
	c := &Catalog{
		surfaces: make([]domain.PrintSurface, 0, len(surfaces)),
		bySlug:   make(map[string]int, len(surfaces)),
	}
	for i := range surfaces {
		s := surfaces[i]
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.bySlug[s.Slug]; dup {
			return nil, fmt.Errorf("%w: duplicate slug %q", domain.ErrInvalidSurface, s.Slug)
		}
		c.bySlug[s.Slug] = len(c.surfaces)
		c.surfaces = append(c.surfaces, s.Clone())
	}
	return c, nil
}

// Len 目录中的印刷面数量
func (c *Catalog) Len() int {
	return len(c.surfaces)
}

// All 按目录顺序返回全部印刷面的拷贝
func (c *Catalog) All() []domain.PrintSurface {
	out := make([]domain.PrintSurface, 0, len(c.surfaces))
	for _, s := range c.surfaces {
		out = append(out, s.Clone())
	}
	return out
}

// GetBySlug 按 slug 获取可用印刷面
func (c *Catalog) GetBySlug(slug string) (*domain.PrintSurface, error) {
	idx, ok := c.bySlug[slug]
	if !ok {
		return nil, fmt.Errorf("surface %q: %w", slug, ErrSurfaceNotFound)
	}
	s := c.surfaces[idx]
	if !s.IsActive {
		return nil, fmt.Errorf("surface %q: %w", slug, ErrSurfaceInactive)
	}
	out := s.Clone()
	return &out, nil
}

// ListForProductType 返回适用于商品类型的全部可用印刷面。
// overrideSlug 指向的印刷面只要可用就一并返回，不要求其 ProductTypes 包含该类型。
func (c *Catalog) ListForProductType(productType, overrideSlug string) []domain.PrintSurface {
	var out []domain.PrintSurface
	for _, s := range c.surfaces {
		if !s.IsActive {
			continue
		}
		if s.AppliesTo(productType) || (overrideSlug != "" && s.Slug == overrideSlug) {
			out = append(out, s.Clone())
		}
	}
	return out
}

// DefaultSurface 返回内置的兜底印刷面，永远成功，每次返回新的拷贝
func DefaultSurface(kind domain.SurfaceKind) domain.PrintSurface {
	switch kind {
	case domain.SurfaceKindViews:
		return domain.PrintSurface{
			Slug: DefaultViewsSlug,
			Name: "Front & Back",
			Kind: domain.SurfaceKindViews,
			Views: []domain.NamedView{
				{Name: "front", ViewLayout: domain.ViewLayout{Areas: []domain.Area{{ID: "center", Name: "Center"}}}},
				{Name: "back", ViewLayout: domain.ViewLayout{Areas: []domain.Area{{ID: "center", Name: "Center"}}}},
			},
			SingleOccupancy: true,
			IsActive:        true,
			Version:         1,
		}
	case domain.SurfaceKindModels:
		return domain.PrintSurface{
			Slug: DefaultModelsSlug,
			Name: "Universal Model",
			Kind: domain.SurfaceKindModels,
			Models: []domain.ModelLayout{
				{
					ModelCode: "universal",
					ModelName: "Universal",
					View:      domain.ViewLayout{Areas: []domain.Area{{ID: "back", Name: "Back"}}},
				},
			},
			IsActive: true,
			Version:  1,
		}
	default:
		return domain.PrintSurface{
			Slug:     DefaultGeneralSlug,
			Name:     "General",
			Kind:     domain.SurfaceKindGeneral,
			Area:     &domain.Area{ID: "default", Name: "Default"},
			IsActive: true,
			Version:  1,
		}
	}
}

// builtinBySlug 按 slug 查找内置印刷面
func builtinBySlug(slug string) (domain.PrintSurface, bool) {
	for _, kind := range []domain.SurfaceKind{domain.SurfaceKindGeneral, domain.SurfaceKindViews, domain.SurfaceKindModels} {
		s := DefaultSurface(kind)
		if s.Slug == slug {
			return s, true
		}
	}
	return domain.PrintSurface{}, false
}
