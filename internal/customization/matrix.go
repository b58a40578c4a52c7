package customization

import (
	"errors"
	"fmt"
	"sort"

	"github.com/MorseWayne/print_shop/internal/domain"
)

// ErrInvalidMatrix 规格矩阵数据不一致，商品不可解析
var ErrInvalidMatrix = errors.New("invalid variant matrix")

func invalidMatrix(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidMatrix, fmt.Sprintf(format, args...))
}

// VariantMatrix 商品的维度与规格行
// 行的迭代顺序即构造时传入的顺序；Match 与 IsValueAvailable 不修改任何状态。
type VariantMatrix struct {
	axes  []domain.AttributeAxis
	rows  []domain.Variant
	index map[string]int // 规范键 -> 行下标
}

// BuildMatrix 校验并构造规格矩阵
func BuildMatrix(axes []domain.AttributeAxis, rows []domain.Variant) (*VariantMatrix, error) {
	axisByCode := make(map[string]domain.AttributeAxis, len(axes))
	for _, a := range axes {
		if a.Code == "" {
			return nil, invalidMatrix("axis without code")
		}
		if _, dup := axisByCode[a.Code]; dup {
			return nil, invalidMatrix("duplicate axis %q", a.Code)
		}
		if len(a.Values) == 0 {
			return nil, invalidMatrix("axis %q has no values", a.Code)
		}
		seen := make(map[string]struct{}, len(a.Values))
		for _, v := range a.Values {
			if _, dup := seen[v]; dup {
				return nil, invalidMatrix("axis %q has duplicate value %q", a.Code, v)
			}
			seen[v] = struct{}{}
		}
		axisByCode[a.Code] = a
	}

	m := &VariantMatrix{
		axes:  make([]domain.AttributeAxis, len(axes)),
		rows:  make([]domain.Variant, 0, len(rows)),
		index: make(map[string]int, len(rows)),
	}
	for i, a := range axes {
		m.axes[i] = domain.AttributeAxis{Code: a.Code, Name: a.Name, Values: append([]string(nil), a.Values...)}
	}

	var dupKeys []string
	for i, row := range rows {
		if row.StockQuantity < 0 {
			return nil, invalidMatrix("row %d has negative stock", i)
		}
		if len(row.Attributes) != len(axes) {
			return nil, invalidMatrix("row %d must set exactly one value per axis", i)
		}
		for code, v := range row.Attributes {
			a, ok := axisByCode[code]
			if !ok {
				return nil, invalidMatrix("row %d references unknown axis %q", i, code)
			}
			if !a.HasValue(v) {
				return nil, invalidMatrix("row %d has unknown value %q for axis %q", i, v, code)
			}
		}
		key := row.Attributes.Key()
		if _, dup := m.index[key]; dup {
			dupKeys = append(dupKeys, key)
			continue
		}
		m.index[key] = len(m.rows)
		m.rows = append(m.rows, row.Clone())
	}
	if len(dupKeys) > 0 {
		// 报告字典序最小的重复组合，与输入顺序无关
		sort.Strings(dupKeys)
		return nil, invalidMatrix("duplicate attribute combination %s", dupKeys[0])
	}
	return m, nil
}

// Axes 返回维度定义的拷贝
func (m *VariantMatrix) Axes() []domain.AttributeAxis {
	out := make([]domain.AttributeAxis, len(m.axes))
	for i, a := range m.axes {
		out[i] = domain.AttributeAxis{Code: a.Code, Name: a.Name, Values: append([]string(nil), a.Values...)}
	}
	return out
}

// Rows 按构造顺序返回规格行的拷贝
func (m *VariantMatrix) Rows() []domain.Variant {
	out := make([]domain.Variant, len(m.rows))
	for i, r := range m.rows {
		out[i] = r.Clone()
	}
	return out
}

// Axis 按编码查找维度
func (m *VariantMatrix) Axis(code string) (domain.AttributeAxis, bool) {
	for _, a := range m.axes {
		if a.Code == code {
			return a, true
		}
	}
	return domain.AttributeAxis{}, false
}

// Match 精确匹配：只有为每个维度都给出取值时才可能命中，部分选择返回 nil
func (m *VariantMatrix) Match(selection domain.Attributes) *domain.Variant {
	if len(selection) != len(m.axes) {
		return nil
	}
	idx, ok := m.index[selection.Key()]
	if !ok || !m.rows[idx].IsActive {
		return nil
	}
	v := m.rows[idx].Clone()
	return &v
}

// IsValueAvailable 是否存在一行：该维度取 value，与 partial 中其他已选维度一致，且有货
func (m *VariantMatrix) IsValueAvailable(axisCode, value string, partial domain.Attributes) bool {
	for i := range m.rows {
		row := &m.rows[i]
		if !row.InStock() || row.Attributes[axisCode] != value {
			continue
		}
		if agrees(row.Attributes, partial, axisCode) {
			return true
		}
	}
	return false
}

// HasAgreeingRow 是否存在与 partial 全部维度一致的上架行（不考虑库存）
func (m *VariantMatrix) HasAgreeingRow(partial domain.Attributes) bool {
	for i := range m.rows {
		if m.rows[i].IsActive && agrees(m.rows[i].Attributes, partial, "") {
			return true
		}
	}
	return false
}

func agrees(row, partial domain.Attributes, skip string) bool {
	for code, v := range partial {
		if code == skip {
			continue
		}
		if row[code] != v {
			return false
		}
	}
	return true
}

// OptionAvailability 单个取值的可选状态
type OptionAvailability struct {
	Value     string `json:"value"`
	Available bool   `json:"available"`
	Selected  bool   `json:"selected"`
}

// AxisOptions 一个维度下全部取值的可选状态
type AxisOptions struct {
	Code    string               `json:"code"`
	Name    string               `json:"name"`
	Options []OptionAvailability `json:"options"`
}

// AvailableOptions 计算当前部分选择下每个维度每个取值是否可选，每次调用都重新计算
func (m *VariantMatrix) AvailableOptions(partial domain.Attributes) []AxisOptions {
	out := make([]AxisOptions, 0, len(m.axes))
	for _, a := range m.axes {
		opts := AxisOptions{Code: a.Code, Name: a.Name, Options: make([]OptionAvailability, 0, len(a.Values))}
		for _, v := range a.Values {
			opts.Options = append(opts.Options, OptionAvailability{
				Value:     v,
				Available: m.IsValueAvailable(a.Code, v, partial),
				Selected:  partial[a.Code] == v,
			})
		}
		out = append(out, opts)
	}
	return out
}
