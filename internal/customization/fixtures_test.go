package customization

import (
	"time"

	"github.com/MorseWayne/print_shop/internal/domain"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestResolver(surfaces ...domain.PrintSurface) *Resolver {
	catalog, err := NewCatalog(surfaces)
	if err != nil {
		panic(err)
	}
	r := NewResolver(catalog)
	r.now = func() time.Time { return fixedNow }
	r.newID = func() string { return "line-1" }
	return r
}

func apparelAxes() []domain.AttributeAxis {
	return []domain.AttributeAxis{
		{Code: "size", Name: "Size", Values: []string{"S", "M", "L"}},
		{Code: "color", Name: "Color", Values: []string{"Black", "White"}},
	}
}

// apparelRows 全部6种组合，缺少 (L, White)
func apparelRows() []domain.Variant {
	var rows []domain.Variant
	id := int64(1)
	for _, size := range []string{"S", "M", "L"} {
		for _, color := range []string{"Black", "White"} {
			if size == "L" && color == "White" {
				continue
			}
			rows = append(rows, domain.Variant{
				ID:            id,
				ProductID:     100,
				SKU:           "TEE-" + size + "-" + color,
				Attributes:    domain.Attributes{"size": size, "color": color},
				StockQuantity: 10,
				IsActive:      true,
			})
			id++
		}
	}
	return rows
}

func teeSurface() domain.PrintSurface {
	return domain.PrintSurface{
		ID:   1,
		Slug: "tshirt",
		Name: "T-Shirt",
		Kind: domain.SurfaceKindViews,
		Views: []domain.NamedView{
			{Name: "front", ViewLayout: domain.ViewLayout{BaseImage: "https://cdn.example.com/front.png", Areas: []domain.Area{
				{ID: "chest", Name: "Chest", Max: 5},
				{ID: "pocket", Name: "Pocket", Max: 2},
			}}},
			{Name: "back", ViewLayout: domain.ViewLayout{BaseImage: "https://cdn.example.com/back.png", Areas: []domain.Area{
				{ID: "full", Name: "Full Back", Max: 10},
			}}},
		},
		ProductTypes:    []string{"tshirt", "hoodie"},
		SingleOccupancy: true,
		IsActive:        true,
		Version:         3,
	}
}

func caseSurface() domain.PrintSurface {
	return domain.PrintSurface{
		ID:   2,
		Slug: "phone-case",
		Name: "Phone Case",
		Kind: domain.SurfaceKindModels,
		Models: []domain.ModelLayout{
			{ModelCode: "iphone-15", ModelName: "iPhone 15", View: domain.ViewLayout{Areas: []domain.Area{{ID: "back", Name: "Back"}}}},
			{ModelCode: "pixel-8", ModelName: "Pixel 8", View: domain.ViewLayout{Areas: []domain.Area{{ID: "back", Name: "Back"}}}},
		},
		ProductTypes: []string{"phone-case"},
		IsActive:     true,
		Version:      1,
	}
}

func teeProduct() *domain.Product {
	return &domain.Product{
		ID:     100,
		Name:   "Classic Tee",
		Type:   "tshirt",
		Price:  19.9,
		Status: domain.ProductStatusActive,
		Customization: domain.CustomizationSettings{
			Enabled:     true,
			PrintConfig: domain.PrintConfigRef{ConfigType: "tshirt"},
		},
		ProductConfig: domain.ProductConfig{Attributes: apparelAxes(), Variants: apparelRows()},
	}
}

func textPlacement(text string) domain.DesignPlacement {
	return domain.DesignPlacement{Type: domain.PlacementText, Text: &domain.TextContent{Text: text, Font: "Inter", Color: "#000000"}}
}

func imagePlacement(url, id string) domain.DesignPlacement {
	return domain.DesignPlacement{Type: domain.PlacementImage, Image: &domain.ImageContent{URL: url, PublicID: id, FileName: "logo.png"}}
}
