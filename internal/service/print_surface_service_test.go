package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/MorseWayne/print_shop/internal/cache"
	"github.com/MorseWayne/print_shop/internal/customization"
	"github.com/MorseWayne/print_shop/internal/domain"
)

func mugRequest() *domain.PrintSurfaceRequest {
	return &domain.PrintSurfaceRequest{
		Slug:         "mug",
		Name:         "Mug wrap",
		Kind:         domain.SurfaceKindGeneral,
		Area:         &domain.Area{ID: "wrap", Name: "Wrap", Max: 3},
		ProductTypes: []string{"mug"},
	}
}

func TestPrintSurfaceService_CreateSurface(t *testing.T) {
	surfaceRepo := newMockPrintSurfaceRepository(teeSurface())
	catalog := NewCatalogProvider(surfaceRepo, nil, zap.NewNop())
	svc := NewPrintSurfaceService(surfaceRepo, catalog, zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name    string
		req     *domain.PrintSurfaceRequest
		wantErr error
	}{
		{name: "valid surface", req: mugRequest()},
		{name: "duplicate slug", req: mugRequest(), wantErr: ErrSurfaceExists},
		{
			name: "missing name",
			req: &domain.PrintSurfaceRequest{
				Slug: "poster", Kind: domain.SurfaceKindGeneral, Area: &domain.Area{ID: "a"},
			},
			wantErr: ErrValidation,
		},
		{
			name: "kind and shape disagree",
			req: &domain.PrintSurfaceRequest{
				Slug: "poster", Name: "Poster", Kind: domain.SurfaceKindViews, Area: &domain.Area{ID: "a"},
			},
			wantErr: ErrValidation,
		},
		{
			name: "duplicate area ids",
			req: &domain.PrintSurfaceRequest{
				Slug: "bag", Name: "Bag", Kind: domain.SurfaceKindViews,
				Views: []domain.NamedView{{Name: "front", ViewLayout: domain.ViewLayout{Areas: []domain.Area{{ID: "a"}, {ID: "a"}}}}},
			},
			wantErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			surface, err := svc.CreateSurface(ctx, tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("CreateSurface() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateSurface() unexpected error: %v", err)
			}
			if !surface.IsActive || surface.Version != 1 {
				t.Errorf("CreateSurface() = %+v, want active version 1", surface)
			}
		})
	}
}

func TestCatalogProvider_SharedVersionReloadsOtherInstances(t *testing.T) {
	surfaceRepo := newMockPrintSurfaceRepository(teeSurface())
	shared := cache.NewMemoryCache()
	writer := NewCatalogProvider(surfaceRepo, shared, zap.NewNop())
	reader := NewCatalogProvider(surfaceRepo, shared, zap.NewNop())
	svc := NewPrintSurfaceService(surfaceRepo, writer, zap.NewNop())
	ctx := context.Background()

	r, err := reader.Resolver(ctx)
	if err != nil {
		t.Fatalf("Resolver failed: %v", err)
	}
	if _, err := r.Catalog().GetBySlug("tshirt"); err != nil {
		t.Fatalf("Expected tshirt to be resolvable, got %v", err)
	}

	// 另一个实例停用印刷面
	if err := svc.DeactivateSurface(ctx, "tshirt"); err != nil {
		t.Fatalf("DeactivateSurface failed: %v", err)
	}

	r, err = reader.Resolver(ctx)
	if err != nil {
		t.Fatalf("Resolver failed: %v", err)
	}
	if _, err := r.Catalog().GetBySlug("tshirt"); !errors.Is(err, customization.ErrSurfaceInactive) {
		t.Errorf("Expected deactivated surface to be unavailable on the other instance, got %v", err)
	}
	if surfaceRepo.lists != 2 {
		t.Errorf("Expected reader to reload once, got %d loads", surfaceRepo.lists)
	}

	// 版本未变时不重复加载
	if _, err := reader.Resolver(ctx); err != nil {
		t.Fatalf("Resolver failed: %v", err)
	}
	if surfaceRepo.lists != 2 {
		t.Errorf("Expected cached catalog, got %d loads", surfaceRepo.lists)
	}
}

func TestPrintSurfaceService_CreateInvalidatesCatalog(t *testing.T) {
	surfaceRepo := newMockPrintSurfaceRepository(teeSurface())
	catalog := NewCatalogProvider(surfaceRepo, nil, zap.NewNop())
	svc := NewPrintSurfaceService(surfaceRepo, catalog, zap.NewNop())
	ctx := context.Background()

	r, err := catalog.Resolver(ctx)
	if err != nil {
		t.Fatalf("Resolver failed: %v", err)
	}
	if _, err := r.Catalog().GetBySlug("mug"); err == nil {
		t.Fatal("mug should not exist yet")
	}

	if _, err := svc.CreateSurface(ctx, mugRequest()); err != nil {
		t.Fatalf("CreateSurface failed: %v", err)
	}

	r, err = catalog.Resolver(ctx)
	if err != nil {
		t.Fatalf("Resolver failed: %v", err)
	}
	if _, err := r.Catalog().GetBySlug("mug"); err != nil {
		t.Errorf("Expected mug after invalidation, got %v", err)
	}
}

func TestPrintSurfaceService_UpdateSurface(t *testing.T) {
	surfaceRepo := newMockPrintSurfaceRepository(teeSurface())
	svc := NewPrintSurfaceService(surfaceRepo, NewCatalogProvider(surfaceRepo, nil, zap.NewNop()), zap.NewNop())
	ctx := context.Background()

	req := &domain.PrintSurfaceRequest{
		Name: "T-Shirt v2",
		Kind: domain.SurfaceKindViews,
		Views: []domain.NamedView{
			{Name: "front", ViewLayout: domain.ViewLayout{Areas: []domain.Area{{ID: "chest", Name: "Chest"}}}},
		},
		ProductTypes: []string{"tshirt"},
		Version:      1,
	}
	updated, err := svc.UpdateSurface(ctx, "tshirt", req)
	if err != nil {
		t.Fatalf("UpdateSurface failed: %v", err)
	}
	if updated.Version != 2 || updated.Name != "T-Shirt v2" {
		t.Errorf("UpdateSurface() = version %d name %s", updated.Version, updated.Name)
	}

	// 旧版本号
	req.Version = 1
	if _, err := svc.UpdateSurface(ctx, "tshirt", req); !errors.Is(err, ErrSurfaceConflict) {
		t.Errorf("Expected ErrSurfaceConflict for stale version, got %v", err)
	}

	req.Version = 0
	if _, err := svc.UpdateSurface(ctx, "missing", req); !errors.Is(err, ErrSurfaceNotFound) {
		t.Errorf("Expected ErrSurfaceNotFound, got %v", err)
	}

	surfaceRepo.stale = true
	if _, err := svc.UpdateSurface(ctx, "tshirt", req); !errors.Is(err, ErrSurfaceConflict) {
		t.Errorf("Expected ErrSurfaceConflict on concurrent write, got %v", err)
	}
}

func TestPrintSurfaceService_DeactivateAndList(t *testing.T) {
	mug := domain.PrintSurface{
		Slug: "mug", Name: "Mug", Kind: domain.SurfaceKindGeneral,
		Area: &domain.Area{ID: "wrap"}, ProductTypes: []string{"mug"}, IsActive: true,
	}
	surfaceRepo := newMockPrintSurfaceRepository(teeSurface(), mug)
	svc := NewPrintSurfaceService(surfaceRepo, NewCatalogProvider(surfaceRepo, nil, zap.NewNop()), zap.NewNop())
	ctx := context.Background()

	if err := svc.DeactivateSurface(ctx, "mug"); err != nil {
		t.Fatalf("DeactivateSurface failed: %v", err)
	}
	if err := svc.DeactivateSurface(ctx, "missing"); !errors.Is(err, ErrSurfaceNotFound) {
		t.Errorf("Expected ErrSurfaceNotFound, got %v", err)
	}

	all, err := svc.ListSurfaces(ctx, &domain.PrintSurfaceListRequest{})
	if err != nil {
		t.Fatalf("ListSurfaces failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 surfaces, got %d", len(all))
	}

	active, err := svc.ListSurfaces(ctx, &domain.PrintSurfaceListRequest{ActiveOnly: true})
	if err != nil {
		t.Fatalf("ListSurfaces failed: %v", err)
	}
	if len(active) != 1 || active[0].Slug != "tshirt" {
		t.Errorf("Expected only tshirt to be active, got %+v", active)
	}

	typ := "mug"
	byType, err := svc.ListSurfaces(ctx, &domain.PrintSurfaceListRequest{ProductType: &typ})
	if err != nil {
		t.Fatalf("ListSurfaces failed: %v", err)
	}
	if len(byType) != 1 || byType[0].Slug != "mug" {
		t.Errorf("Expected mug by product type, got %+v", byType)
	}

	got, err := svc.GetSurface(ctx, "mug")
	if err != nil {
		t.Fatalf("GetSurface failed: %v", err)
	}
	if got.IsActive {
		t.Error("Expected mug to be inactive")
	}
}
