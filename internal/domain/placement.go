package domain

import (
	"net/url"
	"strings"
)

// PlacementType 设计内容类型
type PlacementType string

const (
	PlacementImage PlacementType = "image"
	PlacementText  PlacementType = "text"
)

// ImageContent 图片设计
// URL + PublicID 为对象存储返回的永久地址与稳定标识；UploadKey 表示尚未转存的临时上传。
type ImageContent struct {
	URL       string `json:"url,omitempty"`
	PublicID  string `json:"public_id,omitempty"`
	FileName  string `json:"file_name,omitempty"`
	UploadKey string `json:"upload_key,omitempty"`
}

// IsResolved 是否已解析为永久地址
func (c *ImageContent) IsResolved() bool {
	if c == nil || c.PublicID == "" {
		return false
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return false
	}
	return (u.Scheme == "https" || u.Scheme == "http") && u.Host != ""
}

// IsPending 是否为待转存的临时上传
func (c *ImageContent) IsPending() bool {
	return c != nil && !c.IsResolved() && c.UploadKey != ""
}

// TextContent 文字设计
type TextContent struct {
	Text  string `json:"text"`
	Font  string `json:"font,omitempty"`
	Color string `json:"color,omitempty"`
}

// DesignPlacement 顾客放在某个区域上的设计内容
// Image 与 Text 有且仅有一个非空，并与 Type 一致。
// Size 由调用方测量后提供（0 表示未测量）。
type DesignPlacement struct {
	Type  PlacementType `json:"type"`
	Image *ImageContent `json:"image,omitempty"`
	Text  *TextContent  `json:"text,omitempty"`
	Size  int           `json:"size,omitempty"`
}

// IsWellFormed 判断标签联合体结构是否自洽
func (p *DesignPlacement) IsWellFormed() bool {
	switch p.Type {
	case PlacementImage:
		return p.Image != nil && p.Text == nil
	case PlacementText:
		return p.Text != nil && p.Image == nil
	}
	return false
}

// HasText 文字内容去除首尾空白后是否非空
func (p *DesignPlacement) HasText() bool {
	return p.Text != nil && strings.TrimSpace(p.Text.Text) != ""
}

// Clone 深拷贝
func (p DesignPlacement) Clone() DesignPlacement {
	if p.Image != nil {
		img := *p.Image
		p.Image = &img
	}
	if p.Text != nil {
		txt := *p.Text
		p.Text = &txt
	}
	return p
}

// Placements 作用域 -> 区域ID -> 设计
type Placements map[string]map[string]DesignPlacement

// Count 设计总数
func (p Placements) Count() int {
	n := 0
	for _, areas := range p {
		n += len(areas)
	}
	return n
}

// Get 获取某作用域下某区域的设计
func (p Placements) Get(scope, areaID string) (DesignPlacement, bool) {
	areas, ok := p[scope]
	if !ok {
		return DesignPlacement{}, false
	}
	d, ok := areas[areaID]
	return d, ok
}

// Put 写入设计（同一区域只保留一份）
func (p Placements) Put(scope, areaID string, d DesignPlacement) {
	areas, ok := p[scope]
	if !ok {
		areas = make(map[string]DesignPlacement)
		p[scope] = areas
	}
	areas[areaID] = d
}

// Remove 删除设计，作用域清空后一并删除
func (p Placements) Remove(scope, areaID string) {
	areas, ok := p[scope]
	if !ok {
		return
	}
	delete(areas, areaID)
	if len(areas) == 0 {
		delete(p, scope)
	}
}

// Clone 深拷贝
func (p Placements) Clone() Placements {
	out := make(Placements, len(p))
	for scope, areas := range p {
		m := make(map[string]DesignPlacement, len(areas))
		for id, d := range areas {
			m[id] = d.Clone()
		}
		out[scope] = m
	}
	return out
}

// CustomizationSelection 结账前已确定的印刷面 + 视图/机型 + 设计集合
type CustomizationSelection struct {
	SurfaceSlug   string     `json:"surface_slug"` // 为空时按商品配置解析
	SelectedScope string     `json:"selected_scope"`
	Placements    Placements `json:"placements"`
}
