package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/MorseWayne/print_shop/internal/domain"
	"github.com/MorseWayne/print_shop/internal/service"
)

// MockCustomizationService for testing
type MockCustomizationService struct {
	getCustomizationFunc func(ctx context.Context, productID int64, surfaceType string, locked domain.Attributes) (*service.CustomizationView, error)
	availabilityFunc     func(ctx context.Context, productID int64, req *domain.AvailabilityRequest) (*service.AvailabilityResult, error)
	freezeFunc           func(ctx context.Context, productID int64, req *domain.FreezeLineItemRequest) (*domain.CartLineItemSnapshot, error)
}

func (m *MockCustomizationService) GetCustomization(ctx context.Context, productID int64, surfaceType string, locked domain.Attributes) (*service.CustomizationView, error) {
	if m.getCustomizationFunc != nil {
		return m.getCustomizationFunc(ctx, productID, surfaceType, locked)
	}
	return &service.CustomizationView{ProductID: productID, InitialScope: "front"}, nil
}

func (m *MockCustomizationService) Availability(ctx context.Context, productID int64, req *domain.AvailabilityRequest) (*service.AvailabilityResult, error) {
	if m.availabilityFunc != nil {
		return m.availabilityFunc(ctx, productID, req)
	}
	return &service.AvailabilityResult{}, nil
}

func (m *MockCustomizationService) FreezeLineItem(ctx context.Context, productID int64, req *domain.FreezeLineItemRequest) (*domain.CartLineItemSnapshot, error) {
	if m.freezeFunc != nil {
		return m.freezeFunc(ctx, productID, req)
	}
	return &domain.CartLineItemSnapshot{ID: "li-1", ProductID: productID, SKU: "TEE-M-B", Quantity: req.Quantity}, nil
}

// MockSessionService for testing
type MockSessionService struct {
	startFunc      func(ctx context.Context, req *domain.StartSessionRequest) (*service.SessionView, error)
	getFunc        func(ctx context.Context, id string) (*service.SessionView, error)
	chooseAreaFunc func(ctx context.Context, id string, req *domain.ChooseAreaRequest) (*service.SessionView, error)
	placeFunc      func(ctx context.Context, id string, placement domain.DesignPlacement) (*service.SessionView, error)
	clearFunc      func(ctx context.Context, id string, areaID string) (*service.SessionView, error)
	finalizeFunc   func(ctx context.Context, id string, req *domain.FinalizeSessionRequest) (*service.SessionView, error)
}

func sessionView(id string, state domain.ConfigState) *service.SessionView {
	return &service.SessionView{Session: &domain.ConfigurationSession{ID: id, State: state}}
}

func (m *MockSessionService) Start(ctx context.Context, req *domain.StartSessionRequest) (*service.SessionView, error) {
	if m.startFunc != nil {
		return m.startFunc(ctx, req)
	}
	return sessionView("s-1", domain.StateUnconfigured), nil
}

func (m *MockSessionService) Get(ctx context.Context, id string) (*service.SessionView, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return sessionView(id, domain.StateUnconfigured), nil
}

func (m *MockSessionService) SelectAttribute(ctx context.Context, id string, req *domain.SelectAttributeRequest) (*service.SessionView, error) {
	return sessionView(id, domain.StateUnconfigured), nil
}

func (m *MockSessionService) SelectScope(ctx context.Context, id string, req *domain.SelectScopeRequest) (*service.SessionView, error) {
	return sessionView(id, domain.StateUnconfigured), nil
}

func (m *MockSessionService) ChooseArea(ctx context.Context, id string, req *domain.ChooseAreaRequest) (*service.SessionView, error) {
	if m.chooseAreaFunc != nil {
		return m.chooseAreaFunc(ctx, id, req)
	}
	return sessionView(id, domain.StateAreaChosen), nil
}

func (m *MockSessionService) PlaceDesign(ctx context.Context, id string, placement domain.DesignPlacement) (*service.SessionView, error) {
	if m.placeFunc != nil {
		return m.placeFunc(ctx, id, placement)
	}
	return sessionView(id, domain.StateDesignPlaced), nil
}

func (m *MockSessionService) ClearPlacement(ctx context.Context, id string, areaID string) (*service.SessionView, error) {
	if m.clearFunc != nil {
		return m.clearFunc(ctx, id, areaID)
	}
	return sessionView(id, domain.StateAreaChosen), nil
}

func (m *MockSessionService) Finalize(ctx context.Context, id string, req *domain.FinalizeSessionRequest) (*service.SessionView, error) {
	if m.finalizeFunc != nil {
		return m.finalizeFunc(ctx, id, req)
	}
	view := sessionView(id, domain.StateValidated)
	view.Session.LineItem = &domain.CartLineItemSnapshot{SKU: "TEE-M-B", Quantity: req.Quantity}
	return view, nil
}

// MockProductService for testing
type MockProductService struct {
	products map[int64]*domain.Product
	lastList *domain.ProductListRequest
	err      error
}

func (m *MockProductService) CreateProduct(ctx context.Context, req *domain.CreateProductRequest) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Product{ID: 1, Name: req.Name, Type: req.Type, Price: req.Price}, nil
}

func (m *MockProductService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, service.ErrProductNotFound
}

func (m *MockProductService) UpdateProduct(ctx context.Context, id int64, req *domain.UpdateProductRequest) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, service.ErrProductNotFound
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	return p, nil
}

func (m *MockProductService) DeleteProduct(ctx context.Context, id int64) error {
	if _, ok := m.products[id]; !ok {
		return service.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *MockProductService) ListProducts(ctx context.Context, req *domain.ProductListRequest) (*domain.ProductListResponse, error) {
	m.lastList = req
	return &domain.ProductListResponse{Page: req.Page, PageSize: req.PageSize}, nil
}

// MockPrintSurfaceService for testing
type MockPrintSurfaceService struct {
	createErr   error
	updateErr   error
	deactivated []string
	lastList    *domain.PrintSurfaceListRequest
}

func (m *MockPrintSurfaceService) CreateSurface(ctx context.Context, req *domain.PrintSurfaceRequest) (*domain.PrintSurface, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &domain.PrintSurface{ID: 1, Slug: req.Slug, Name: req.Name, Kind: req.Kind, IsActive: true, Version: 1}, nil
}

func (m *MockPrintSurfaceService) GetSurface(ctx context.Context, slug string) (*domain.PrintSurface, error) {
	if slug != "tshirt" {
		return nil, service.ErrSurfaceNotFound
	}
	return &domain.PrintSurface{Slug: slug, Kind: domain.SurfaceKindViews, IsActive: true}, nil
}

func (m *MockPrintSurfaceService) ListSurfaces(ctx context.Context, req *domain.PrintSurfaceListRequest) ([]domain.PrintSurface, error) {
	m.lastList = req
	return []domain.PrintSurface{{Slug: "tshirt"}}, nil
}

func (m *MockPrintSurfaceService) UpdateSurface(ctx context.Context, slug string, req *domain.PrintSurfaceRequest) (*domain.PrintSurface, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return &domain.PrintSurface{Slug: slug, Name: req.Name, Kind: req.Kind, Version: req.Version + 1}, nil
}

func (m *MockPrintSurfaceService) DeactivateSurface(ctx context.Context, slug string) error {
	if slug != "tshirt" {
		return service.ErrSurfaceNotFound
	}
	m.deactivated = append(m.deactivated, slug)
	return nil
}

// MockStockService for testing
type MockStockService struct {
	restockErr error
	commitErr  error
	committed  *domain.StockCommitRequest
}

func (m *MockStockService) Restock(ctx context.Context, variantID int64, req *domain.RestockRequest) (*domain.Variant, error) {
	if m.restockErr != nil {
		return nil, m.restockErr
	}
	return &domain.Variant{ID: variantID, StockQuantity: req.Quantity}, nil
}

func (m *MockStockService) Commit(ctx context.Context, req *domain.StockCommitRequest) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.committed = req
	return nil
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router
}

// doJSON 发送请求并解析统一响应
func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Buffer
	switch b := body.(type) {
	case nil:
		reader = &bytes.Buffer{}
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("%s %s: failed to parse response %q: %v", method, path, w.Body.String(), err)
	}
	return w, response
}
