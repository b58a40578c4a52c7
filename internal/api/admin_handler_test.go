package api

import (
	"fmt"
	"net/http"
	"testing"

	"go.uber.org/zap"

	"github.com/MorseWayne/print_shop/internal/domain"
	"github.com/MorseWayne/print_shop/internal/service"
)

func TestProductHandler(t *testing.T) {
	mockService := &MockProductService{products: map[int64]*domain.Product{
		1: {ID: 1, Name: "Classic Tee", Type: "tshirt", Status: domain.ProductStatusActive},
	}}
	handler := NewProductHandler(mockService, zap.NewNop())

	router := setupTestRouter()
	router.GET("/products", handler.ListProducts)
	router.GET("/products/:id", handler.GetProduct)
	router.POST("/admin/products", handler.CreateProduct)
	router.PUT("/admin/products/:id", handler.UpdateProduct)
	router.DELETE("/admin/products/:id", handler.DeleteProduct)

	tests := []struct {
		name       string
		method     string
		path       string
		body       interface{}
		wantStatus int
	}{
		{"get existing", "GET", "/products/1", nil, http.StatusOK},
		{"get missing", "GET", "/products/2", nil, http.StatusNotFound},
		{"get invalid id", "GET", "/products/-1", nil, http.StatusBadRequest},
		{"create", "POST", "/admin/products", map[string]interface{}{"name": "Mug", "type": "mug", "price": 9.9}, http.StatusOK},
		{"create malformed", "POST", "/admin/products", "[", http.StatusBadRequest},
		{"update", "PUT", "/admin/products/1", map[string]interface{}{"name": "Premium Tee"}, http.StatusOK},
		{"update missing", "PUT", "/admin/products/9", map[string]interface{}{"name": "x"}, http.StatusNotFound},
		{"delete", "DELETE", "/admin/products/1", nil, http.StatusOK},
		{"delete again", "DELETE", "/admin/products/1", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := doJSON(t, router, tt.method, tt.path, tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}

	mockService.err = fmt.Errorf("%w: matrix has duplicate rows", service.ErrValidation)
	if w, _ := doJSON(t, router, "POST", "/admin/products", map[string]interface{}{"name": "Mug"}); w.Code != http.StatusBadRequest {
		t.Errorf("CreateProduct() validation status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestProductHandler_ListProducts(t *testing.T) {
	mockService := &MockProductService{}
	handler := NewProductHandler(mockService, zap.NewNop())
	router := setupTestRouter()
	router.GET("/products", handler.ListProducts)

	tests := []struct {
		name         string
		query        string
		wantPage     int
		wantPageSize int
		wantType     string
	}{
		{name: "defaults", query: "", wantPage: 1, wantPageSize: 20},
		{name: "explicit", query: "?page=3&page_size=50&type=mug", wantPage: 3, wantPageSize: 50, wantType: "mug"},
		{name: "out of range", query: "?page=-2&page_size=1000", wantPage: 1, wantPageSize: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := doJSON(t, router, "GET", "/products"+tt.query, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("ListProducts() status = %d", w.Code)
			}
			got := mockService.lastList
			if got.Page != tt.wantPage || got.PageSize != tt.wantPageSize {
				t.Errorf("ListProducts() page = %d size = %d, want %d %d", got.Page, got.PageSize, tt.wantPage, tt.wantPageSize)
			}
			if tt.wantType != "" && (got.Type == nil || *got.Type != tt.wantType) {
				t.Errorf("ListProducts() type = %v, want %s", got.Type, tt.wantType)
			}
		})
	}
}

func TestPrintSurfaceHandler(t *testing.T) {
	mockService := &MockPrintSurfaceService{}
	handler := NewPrintSurfaceHandler(mockService, zap.NewNop())

	router := setupTestRouter()
	router.POST("/surfaces", handler.CreateSurface)
	router.GET("/surfaces", handler.ListSurfaces)
	router.GET("/surfaces/:slug", handler.GetSurface)
	router.PUT("/surfaces/:slug", handler.UpdateSurface)
	router.POST("/surfaces/:slug/deactivate", handler.DeactivateSurface)

	mug := map[string]interface{}{
		"slug": "mug", "name": "Mug", "kind": "general",
		"area": map[string]interface{}{"id": "wrap", "name": "Wrap", "max": 3},
	}

	w, response := doJSON(t, router, "POST", "/surfaces", mug)
	if w.Code != http.StatusOK {
		t.Fatalf("CreateSurface() status = %d", w.Code)
	}
	if data := response["data"].(map[string]interface{}); data["slug"] != "mug" || data["version"].(float64) != 1 {
		t.Errorf("CreateSurface() data = %v", data)
	}

	errorCases := []struct {
		name       string
		setup      func()
		method     string
		path       string
		body       interface{}
		wantStatus int
	}{
		{"duplicate slug", func() { mockService.createErr = service.ErrSurfaceExists }, "POST", "/surfaces", mug, http.StatusConflict},
		{"invalid shape", func() { mockService.createErr = fmt.Errorf("%w: kind mismatch", service.ErrValidation) }, "POST", "/surfaces", mug, http.StatusBadRequest},
		{"stale version", func() { mockService.updateErr = service.ErrSurfaceConflict }, "PUT", "/surfaces/tshirt", mug, http.StatusConflict},
		{"update missing", func() { mockService.updateErr = service.ErrSurfaceNotFound }, "PUT", "/surfaces/poster", mug, http.StatusNotFound},
		{"get missing", func() {}, "GET", "/surfaces/poster", nil, http.StatusNotFound},
		{"deactivate missing", func() {}, "POST", "/surfaces/poster/deactivate", nil, http.StatusNotFound},
		{"deactivate", func() {}, "POST", "/surfaces/tshirt/deactivate", nil, http.StatusOK},
	}

	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			w, _ := doJSON(t, router, tt.method, tt.path, tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}

	if len(mockService.deactivated) != 1 || mockService.deactivated[0] != "tshirt" {
		t.Errorf("DeactivateSurface() calls = %v", mockService.deactivated)
	}

	if w, _ := doJSON(t, router, "GET", "/surfaces?product_type=mug&active_only=true", nil); w.Code != http.StatusOK {
		t.Fatalf("ListSurfaces() status = %d", w.Code)
	}
	if got := mockService.lastList; !got.ActiveOnly || got.ProductType == nil || *got.ProductType != "mug" {
		t.Errorf("ListSurfaces() request = %+v", got)
	}
}

func TestStockHandler(t *testing.T) {
	mockService := &MockStockService{}
	handler := NewStockHandler(mockService, zap.NewNop())

	router := setupTestRouter()
	router.POST("/variants/:id/restock", handler.Restock)
	router.POST("/stock/commit", handler.Commit)

	commit := map[string]interface{}{
		"order_ref":  "ORD-1",
		"line_items": []map[string]interface{}{{"id": "li-1", "variant_id": 11, "quantity": 2}},
	}

	tests := []struct {
		name       string
		setup      func()
		path       string
		body       interface{}
		wantStatus int
	}{
		{"restock", func() {}, "/variants/11/restock", map[string]interface{}{"quantity": 5, "reason": "delivery"}, http.StatusOK},
		{"restock invalid id", func() {}, "/variants/x/restock", map[string]interface{}{"quantity": 5, "reason": "delivery"}, http.StatusBadRequest},
		{"restock zero", func() {}, "/variants/11/restock", map[string]interface{}{"quantity": 0, "reason": "delivery"}, http.StatusBadRequest},
		{"restock unknown variant", func() { mockService.restockErr = service.ErrVariantNotFound }, "/variants/99/restock", map[string]interface{}{"quantity": 1, "reason": "delivery"}, http.StatusNotFound},
		{"commit", func() {}, "/stock/commit", commit, http.StatusOK},
		{"commit empty", func() {}, "/stock/commit", map[string]interface{}{"order_ref": "ORD-2", "line_items": []interface{}{}}, http.StatusBadRequest},
		{"commit insufficient", func() { mockService.commitErr = service.ErrInsufficientStock }, "/stock/commit", commit, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			w, _ := doJSON(t, router, "POST", tt.path, tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("POST %s status = %d, want %d", tt.path, w.Code, tt.wantStatus)
			}
		})
	}

	if mockService.committed == nil || mockService.committed.OrderRef != "ORD-1" || len(mockService.committed.LineItems) != 1 {
		t.Errorf("Commit() request = %+v", mockService.committed)
	}
}
