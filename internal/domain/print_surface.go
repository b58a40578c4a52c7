// Package domain 定义定制商品的领域模型：印刷面、规格矩阵、设计摆放与购物车快照。
// 领域模型独立于外部依赖（数据库、HTTP等）。
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SurfaceKind 印刷面形态
type SurfaceKind string

const (
	SurfaceKindGeneral SurfaceKind = "general" // 单一印刷区域
	SurfaceKindViews   SurfaceKind = "views"   // 按视图（正面/背面）划分
	SurfaceKindModels  SurfaceKind = "models"  // 按机型划分（手机壳等）
)

// GeneralScope general 形态印刷面唯一的作用域名
const GeneralScope = "general"

// IsValid 判断形态是否合法
func (k SurfaceKind) IsValid() bool {
	switch k {
	case SurfaceKindGeneral, SurfaceKindViews, SurfaceKindModels:
		return true
	}
	return false
}

// Area 可印刷区域
type Area struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Max         int      `json:"max"` // 0 表示未声明上限
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	References  []string `json:"references,omitempty"` // 示例图，不参与校验
}

// ViewLayout 一个视图（或机型）下的底图与区域
type ViewLayout struct {
	BaseImage string `json:"base_image"`
	Areas     []Area `json:"areas"`
}

// NamedView 具名视图，按定义顺序保存以保证“第一个视图”确定
type NamedView struct {
	Name string `json:"name"`
	ViewLayout
}

// ModelLayout 机型布局
type ModelLayout struct {
	ModelCode string     `json:"model_code"`
	ModelName string     `json:"model_name"`
	View      ViewLayout `json:"view"`
}

// PrintSurface 印刷面定义
// 三种形态字段（Area / Views / Models）有且仅有一个被填充，且与 Kind 一致。
type PrintSurface struct {
	ID              int64         `json:"id"`
	Slug            string        `json:"slug"`
	Name            string        `json:"name"`
	Kind            SurfaceKind   `json:"kind"`
	Area            *Area         `json:"area,omitempty"`
	Views           []NamedView   `json:"views,omitempty"`
	Models          []ModelLayout `json:"models,omitempty"`
	ProductTypes    []string      `json:"product_types"`
	SingleOccupancy bool          `json:"single_occupancy"`
	IsActive        bool          `json:"is_active"`
	Version         int           `json:"version"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// ErrInvalidSurface 印刷面定义不满足结构约束
var ErrInvalidSurface = errors.New("invalid print surface")

func invalidSurface(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSurface, fmt.Sprintf(format, args...))
}

// Validate 校验印刷面的结构约束
func (s *PrintSurface) Validate() error {
	if strings.TrimSpace(s.Slug) == "" {
		return invalidSurface("slug is required")
	}
	if !s.Kind.IsValid() {
		return invalidSurface("unknown kind %q", s.Kind)
	}

	populated := 0
	if s.Area != nil {
		populated++
	}
	if len(s.Views) > 0 {
		populated++
	}
	if len(s.Models) > 0 {
		populated++
	}
	if populated != 1 {
		return invalidSurface("surface %q must define exactly one of area, views, models", s.Slug)
	}

	switch s.Kind {
	case SurfaceKindGeneral:
		if s.Area == nil {
			return invalidSurface("general surface %q requires area", s.Slug)
		}
		return validateAreas(GeneralScope, []Area{*s.Area})
	case SurfaceKindViews:
		if len(s.Views) == 0 {
			return invalidSurface("views surface %q requires views", s.Slug)
		}
		seen := make(map[string]struct{}, len(s.Views))
		for _, v := range s.Views {
			if strings.TrimSpace(v.Name) == "" {
				return invalidSurface("surface %q has a view without name", s.Slug)
			}
			if _, dup := seen[v.Name]; dup {
				return invalidSurface("surface %q has duplicate view %q", s.Slug, v.Name)
			}
			seen[v.Name] = struct{}{}
			if err := validateAreas(v.Name, v.Areas); err != nil {
				return err
			}
		}
	case SurfaceKindModels:
		if len(s.Models) == 0 {
			return invalidSurface("models surface %q requires models", s.Slug)
		}
		seen := make(map[string]struct{}, len(s.Models))
		for _, m := range s.Models {
			if strings.TrimSpace(m.ModelCode) == "" {
				return invalidSurface("surface %q has a model without code", s.Slug)
			}
			if _, dup := seen[m.ModelCode]; dup {
				return invalidSurface("surface %q has duplicate model %q", s.Slug, m.ModelCode)
			}
			seen[m.ModelCode] = struct{}{}
			if err := validateAreas(m.ModelCode, m.View.Areas); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateAreas(scope string, areas []Area) error {
	if len(areas) == 0 {
		return invalidSurface("scope %q has no areas", scope)
	}
	seen := make(map[string]struct{}, len(areas))
	for _, a := range areas {
		if strings.TrimSpace(a.ID) == "" {
			return invalidSurface("scope %q has an area without id", scope)
		}
		if _, dup := seen[a.ID]; dup {
			return invalidSurface("scope %q has duplicate area %q", scope, a.ID)
		}
		if a.Max < 0 {
			return invalidSurface("area %q in scope %q has negative max", a.ID, scope)
		}
		seen[a.ID] = struct{}{}
	}
	return nil
}

// Scopes 按定义顺序返回全部作用域（视图名 / 机型码 / general）
func (s *PrintSurface) Scopes() []string {
	switch s.Kind {
	case SurfaceKindGeneral:
		return []string{GeneralScope}
	case SurfaceKindViews:
		scopes := make([]string, 0, len(s.Views))
		for _, v := range s.Views {
			scopes = append(scopes, v.Name)
		}
		return scopes
	case SurfaceKindModels:
		scopes := make([]string, 0, len(s.Models))
		for _, m := range s.Models {
			scopes = append(scopes, m.ModelCode)
		}
		return scopes
	}
	return nil
}

// FirstScope 返回第一个作用域；没有作用域时返回空串
func (s *PrintSurface) FirstScope() string {
	scopes := s.Scopes()
	if len(scopes) == 0 {
		return ""
	}
	return scopes[0]
}

// AreasIn 返回作用域下的区域列表
func (s *PrintSurface) AreasIn(scope string) ([]Area, bool) {
	switch s.Kind {
	case SurfaceKindGeneral:
		if s.Area == nil || (scope != GeneralScope && scope != "") {
			return nil, false
		}
		return []Area{*s.Area}, true
	case SurfaceKindViews:
		for _, v := range s.Views {
			if v.Name == scope {
				return v.Areas, true
			}
		}
	case SurfaceKindModels:
		for _, m := range s.Models {
			if m.ModelCode == scope {
				return m.View.Areas, true
			}
		}
	}
	return nil, false
}

// FindArea 在作用域下查找区域
func (s *PrintSurface) FindArea(scope, areaID string) (Area, bool) {
	areas, ok := s.AreasIn(scope)
	if !ok {
		return Area{}, false
	}
	for _, a := range areas {
		if a.ID == areaID {
			return a, true
		}
	}
	return Area{}, false
}

// AppliesTo 判断印刷面默认是否适用于某商品类型
func (s *PrintSurface) AppliesTo(productType string) bool {
	for _, t := range s.ProductTypes {
		if t == productType {
			return true
		}
	}
	return false
}

// Clone 深拷贝印刷面
func (s PrintSurface) Clone() PrintSurface {
	out := s
	if s.Area != nil {
		a := cloneArea(*s.Area)
		out.Area = &a
	}
	if s.Views != nil {
		out.Views = make([]NamedView, len(s.Views))
		for i, v := range s.Views {
			out.Views[i] = NamedView{Name: v.Name, ViewLayout: cloneLayout(v.ViewLayout)}
		}
	}
	if s.Models != nil {
		out.Models = make([]ModelLayout, len(s.Models))
		for i, m := range s.Models {
			out.Models[i] = ModelLayout{ModelCode: m.ModelCode, ModelName: m.ModelName, View: cloneLayout(m.View)}
		}
	}
	if s.ProductTypes != nil {
		out.ProductTypes = append([]string(nil), s.ProductTypes...)
	}
	return out
}

func cloneLayout(l ViewLayout) ViewLayout {
	out := ViewLayout{BaseImage: l.BaseImage}
	if l.Areas != nil {
		out.Areas = make([]Area, len(l.Areas))
		for i, a := range l.Areas {
			out.Areas[i] = cloneArea(a)
		}
	}
	return out
}

func cloneArea(a Area) Area {
	if a.References != nil {
		a.References = append([]string(nil), a.References...)
	}
	return a
}

// PrintSurfaceRequest 创建/更新印刷面请求（运营后台）
type PrintSurfaceRequest struct {
	Slug            string        `json:"slug" validate:"required,min=1,max=64"`
	Name            string        `json:"name" validate:"required,max=128"`
	Kind            SurfaceKind   `json:"kind" validate:"required,oneof=general views models"`
	Area            *Area         `json:"area"`
	Views           []NamedView   `json:"views"`
	Models          []ModelLayout `json:"models"`
	ProductTypes    []string      `json:"product_types" validate:"dive,required"`
	SingleOccupancy bool          `json:"single_occupancy"`
	IsActive        *bool         `json:"is_active"`
	Version         int           `json:"version" validate:"gte=0"` // 更新时携带，0 表示不校验
}

// PrintSurfaceListRequest 印刷面列表查询
type PrintSurfaceListRequest struct {
	ProductType *string `json:"product_type"`
	ActiveOnly  bool    `json:"active_only"`
}
