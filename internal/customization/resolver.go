package customization

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/MorseWayne/print_shop/internal/domain"
)

var (
	// ErrInvalidLockedVariant 锁定的规格不对应任何规格行
	ErrInvalidLockedVariant = errors.New("locked attributes match no variant")
	// ErrVariantMismatch 传入的规格与矩阵中匹配到的行不一致
	ErrVariantMismatch = errors.New("variant does not match product matrix")
	// ErrInvalidQuantity 数量必须大于0
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Overrides 解析时的可选覆盖项
type Overrides struct {
	SurfaceTypeOverride string
	LockedAttributes    domain.Attributes
}

// ResolvedCustomization 商品解析结果
type ResolvedCustomization struct {
	Surface      domain.PrintSurface
	Matrix       *VariantMatrix
	InitialScope string
	Selection    domain.CustomizationSelection
	Attributes   domain.Attributes // 预置的锁定规格
	Locked       []string
	UsedFallback bool
}

// Resolver 组合印刷面目录、规格矩阵与设计校验器
type Resolver struct {
	catalog   *Catalog
	validator *PlacementValidator
	now       func() time.Time
	newID     func() string
}

// NewResolver 创建解析器；catalog 为 nil 时只使用内置印刷面
func NewResolver(catalog *Catalog) *Resolver {
	if catalog == nil {
		catalog, _ = NewCatalog(nil)
	}
	return &Resolver{
		catalog:   catalog,
		validator: NewPlacementValidator(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Catalog 当前使用的目录
func (r *Resolver) Catalog() *Catalog {
	return r.catalog
}

// Validator 当前使用的校验器
func (r *Resolver) Validator() *PlacementValidator {
	return r.validator
}

// SurfaceSlugFor 按优先级确定印刷面 slug：
// 覆盖项 > 已启用定制的商品配置 > 商品类型 > "general"
func SurfaceSlugFor(product *domain.Product, override string) string {
	if override != "" {
		return override
	}
	if product != nil {
		if product.Customization.Enabled && product.Customization.PrintConfig.ConfigType != "" {
			return product.Customization.PrintConfig.ConfigType
		}
		if product.Type != "" {
			return product.Type
		}
	}
	return DefaultGeneralSlug
}

// modelAxisCodes 表示“按机型区分”的维度编码
var modelAxisCodes = map[string]struct{}{
	"model":       {},
	"phone_model": {},
	"phoneModel":  {},
	"device":      {},
}

// inferKind 在没有可用印刷面时推断兜底形态：
// 目录中已停用的同名印刷面沿用其形态，否则按是否有机型维度在 models 与 general 间选择
func (r *Resolver) inferKind(product *domain.Product, slug string) domain.SurfaceKind {
	if idx, ok := r.catalog.bySlug[slug]; ok {
		return r.catalog.surfaces[idx].Kind
	}
	if product == nil {
		return domain.SurfaceKindGeneral
	}
	for _, a := range product.ProductConfig.Attributes {
		if _, ok := modelAxisCodes[a.Code]; ok {
			return domain.SurfaceKindModels
		}
	}
	return domain.SurfaceKindGeneral
}

// Resolve 解析商品当前适用的定制配置
func (r *Resolver) Resolve(product *domain.Product, overrides Overrides) (*ResolvedCustomization, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}

	slug := SurfaceSlugFor(product, overrides.SurfaceTypeOverride)
	var (
		surface      domain.PrintSurface
		usedFallback bool
	)
	found, err := r.catalog.GetBySlug(slug)
	switch {
	case err == nil:
		surface = *found
	case errors.Is(err, ErrSurfaceUnavailable):
		surface = DefaultSurface(r.inferKind(product, slug))
		usedFallback = true
	default:
		return nil, err
	}

	matrix, err := BuildMatrix(product.ProductConfig.Attributes, product.ProductConfig.Variants)
	if err != nil {
		return nil, fmt.Errorf("product %d: %w", product.ID, err)
	}

	attrs := domain.Attributes{}
	var locked []string
	if len(overrides.LockedAttributes) > 0 {
		for code, v := range overrides.LockedAttributes {
			if _, ok := matrix.Axis(code); !ok {
				return nil, fmt.Errorf("%w: unknown axis %q", ErrInvalidLockedVariant, code)
			}
			attrs[code] = v
			locked = append(locked, code)
		}
		if !matrix.HasAgreeingRow(attrs) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidLockedVariant, attrs.Key())
		}
		sort.Strings(locked)
	}

	initial := surface.FirstScope()
	return &ResolvedCustomization{
		Surface:      surface,
		Matrix:       matrix,
		InitialScope: initial,
		Selection: domain.CustomizationSelection{
			SurfaceSlug:   surface.Slug,
			SelectedScope: initial,
			Placements:    domain.Placements{},
		},
		Attributes:   attrs,
		Locked:       locked,
		UsedFallback: usedFallback,
	}, nil
}

// SurfaceForSelection 查找选择所引用的印刷面（包括已停用的），目录中没有时使用同名内置印刷面。
// 目录中的同名印刷面已停用时，Resolve 会回退到内置印刷面，这里也返回内置的那一个。
func (r *Resolver) SurfaceForSelection(slug string) (*domain.PrintSurface, error) {
	builtin, hasBuiltin := builtinBySlug(slug)
	if idx, ok := r.catalog.bySlug[slug]; ok {
		if r.catalog.surfaces[idx].IsActive || !hasBuiltin {
			s := r.catalog.surfaces[idx].Clone()
			return &s, nil
		}
	}
	if hasBuiltin {
		return &builtin, nil
	}
	return nil, fmt.Errorf("surface %q: %w", slug, ErrSurfaceNotFound)
}

// BuildLineItem 严格校验全部设计并生成不可变的购物车行快照。
// 按印刷面的作用域顺序、区域顺序依次校验，遇到第一个失败立即返回。
// 图片必须已由对象存储解析为永久地址，这里不做转存。
func (r *Resolver) BuildLineItem(product *domain.Product, selection domain.CustomizationSelection, variant *domain.Variant, quantity int) (*domain.CartLineItemSnapshot, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if variant == nil {
		return nil, ErrVariantMismatch
	}

	matrix, err := BuildMatrix(product.ProductConfig.Attributes, product.ProductConfig.Variants)
	if err != nil {
		return nil, fmt.Errorf("product %d: %w", product.ID, err)
	}
	matched := matrix.Match(variant.Attributes)
	if matched == nil || matched.ID != variant.ID {
		return nil, fmt.Errorf("%w: %s", ErrVariantMismatch, variant.Attributes.Key())
	}

	surface, err := r.SurfaceForSelection(selection.SurfaceSlug)
	if err != nil {
		return nil, err
	}
	if !surface.IsActive {
		return nil, &RejectionError{Reason: ReasonSurfaceInactive, Scope: selection.SelectedScope}
	}

	resolved := make(map[string]map[string]domain.ResolvedPlacement, len(selection.Placements))
	for _, scope := range orderedScopes(surface, selection.Placements) {
		areas := selection.Placements[scope]
		if surface.Kind != domain.SurfaceKindViews && len(areas) > 0 && !sameScope(surface, scope, selection.SelectedScope) {
			// models / general 形态的设计只能位于所选作用域下
			return nil, &RejectionError{Reason: ReasonAreaNotFound, Scope: scope, AreaID: firstKey(areas)}
		}
		out := make(map[string]domain.ResolvedPlacement, len(areas))
		for _, areaID := range orderedAreas(surface, scope, areas) {
			p := areas[areaID]
			if err := r.validator.Validate(surface, scope, areaID, p); err != nil {
				return nil, err
			}
			out[areaID] = resolvePlacement(p)
		}
		if len(out) > 0 {
			resolved[scope] = out
		}
	}

	snapshot := &domain.CartLineItemSnapshot{
		ID:        r.newID(),
		ProductID: product.ID,
		VariantID: matched.ID,
		SKU:       matched.SKU,
		Variant:   matched.Attributes.Clone(),
		Customization: domain.LineItemCustomization{
			Enabled:         len(resolved) > 0,
			PrintConfigType: surface.Slug,
			SurfaceVersion:  surface.Version,
			Placements:      resolved,
		},
		Quantity: quantity,
		FrozenAt: r.now().UTC(),
	}
	return snapshot, nil
}

func sameScope(surface *domain.PrintSurface, scope, selected string) bool {
	if surface.Kind == domain.SurfaceKindGeneral {
		return (scope == domain.GeneralScope || scope == "") && (selected == domain.GeneralScope || selected == "")
	}
	return scope == selected
}

func resolvePlacement(p domain.DesignPlacement) domain.ResolvedPlacement {
	out := domain.ResolvedPlacement{Type: p.Type}
	switch p.Type {
	case domain.PlacementImage:
		out.ImageURL = p.Image.URL
		out.ImageID = p.Image.PublicID
		out.FileName = p.Image.FileName
	case domain.PlacementText:
		out.Text = p.Text.Text
		out.Font = p.Text.Font
		out.Color = p.Text.Color
	}
	return out
}

// orderedScopes 先按印刷面定义顺序，再按字典序排列未知作用域
func orderedScopes(surface *domain.PrintSurface, placements domain.Placements) []string {
	out := make([]string, 0, len(placements))
	known := make(map[string]struct{})
	for _, scope := range surface.Scopes() {
		known[scope] = struct{}{}
		if _, ok := placements[scope]; ok {
			out = append(out, scope)
		}
	}
	var unknown []string
	for scope := range placements {
		if _, ok := known[scope]; !ok {
			unknown = append(unknown, scope)
		}
	}
	sort.Strings(unknown)
	return append(out, unknown...)
}

// orderedAreas 先按区域定义顺序，再按字典序排列未知区域
func orderedAreas(surface *domain.PrintSurface, scope string, areas map[string]domain.DesignPlacement) []string {
	out := make([]string, 0, len(areas))
	known := make(map[string]struct{})
	defined, _ := surface.AreasIn(scope)
	for _, a := range defined {
		known[a.ID] = struct{}{}
		if _, ok := areas[a.ID]; ok {
			out = append(out, a.ID)
		}
	}
	var unknown []string
	for id := range areas {
		if _, ok := known[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)
	return append(out, unknown...)
}

func firstKey(m map[string]domain.DesignPlacement) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}
