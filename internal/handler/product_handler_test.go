package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/denkiya/internal/model"
)

type mockCatalogService struct {
	listFn   func(ctx context.Context, productType string) ([]*model.Product, error)
	getFn    func(ctx context.Context, maSP string) (*model.Product, error)
	searchFn func(ctx context.Context, value string) ([]*model.Product, error)
	createFn func(ctx context.Context, product *model.Product) (*model.Product, error)
	updateFn func(ctx context.Context, id string, product *model.Product) (*model.Product, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockCatalogService) List(ctx context.Context, productType string) ([]*model.Product, error) {
	if m.listFn != nil {
		return m.listFn(ctx, productType)
	}
	return nil, nil
}

func (m *mockCatalogService) Get(ctx context.Context, maSP string) (*model.Product, error) {
	if m.getFn != nil {
		return m.getFn(ctx, maSP)
	}
	return nil, model.NewProductNotFoundError(maSP)
}

func (m *mockCatalogService) Search(ctx context.Context, value string) ([]*model.Product, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, value)
	}
	return nil, nil
}

func (m *mockCatalogService) Create(ctx context.Context, product *model.Product) (*model.Product, error) {
	if m.createFn != nil {
		return m.createFn(ctx, product)
	}
	return product, nil
}

func (m *mockCatalogService) Update(ctx context.Context, id string, product *model.Product) (*model.Product, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, product)
	}
	return product, nil
}

func (m *mockCatalogService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

var _ CatalogServiceInterface = (*mockCatalogService)(nil)

// productTestRouter はURLパラメータ付きルートを解決するための最小ルーター。
func productTestRouter(h *ProductHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/products/get", h.List)
	r.Get("/products/get/{MaSP}", h.Get)
	r.Post("/products/search", h.Search)
	r.Post("/products/add", h.Create)
	r.Put("/products/update/{id}", h.Update)
	r.Delete("/products/del/{id}", h.Delete)
	return r
}

// TestProductList_FilterByType はtypeクエリがサービスに渡ることを検証する。
func TestProductList_FilterByType(t *testing.T) {
	var gotType string
	service := &mockCatalogService{
		listFn: func(ctx context.Context, productType string) ([]*model.Product, error) {
			gotType = productType
			return []*model.Product{
				{ID: "p1", MaSP: "SP001", Name: "ThinkPad X1", Price: 250000, Type: "laptop"},
			}, nil
		},
	}
	router := productTestRouter(NewProductHandler(service))

	req := httptest.NewRequest(http.MethodGet, "/products/get?type=laptop", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotType != "laptop" {
		t.Errorf("productType = %q, want %q", gotType, "laptop")
	}

	var body []productResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスのデコードに失敗した: %v", err)
	}
	if len(body) != 1 || body[0].MaSP != "SP001" {
		t.Errorf("products = %+v, want SP001の1件", body)
	}
}

// TestProductList_EmptyResult は0件でも空配列が返ることを検証する。
func TestProductList_EmptyResult(t *testing.T) {
	router := productTestRouter(NewProductHandler(&mockCatalogService{}))

	req := httptest.NewRequest(http.MethodGet, "/products/get", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("body = %q, want %q", body, "[]")
	}
}

// TestProductGet_Success はMaSPがURLパラメータから渡ることを検証する。
func TestProductGet_Success(t *testing.T) {
	service := &mockCatalogService{
		getFn: func(ctx context.Context, maSP string) (*model.Product, error) {
			return &model.Product{ID: "p1", MaSP: maSP, Name: "ThinkPad X1"}, nil
		},
	}
	router := productTestRouter(NewProductHandler(service))

	req := httptest.NewRequest(http.MethodGet, "/products/get/SP001", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body productResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスのデコードに失敗した: %v", err)
	}
	if body.MaSP != "SP001" {
		t.Errorf("MaSP = %q, want %q", body.MaSP, "SP001")
	}
}

// TestProductGet_NotFound は存在しない商品が404になることを検証する。
func TestProductGet_NotFound(t *testing.T) {
	router := productTestRouter(NewProductHandler(&mockCatalogService{}))

	req := httptest.NewRequest(http.MethodGet, "/products/get/SP999", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}

	var body apiErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスのデコードに失敗した: %v", err)
	}
	if body.Code != model.ErrCodeProductNotFound {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeProductNotFound)
	}
}

// TestProductSearch_PassesValue は検索語がサービスに渡ることを検証する。
func TestProductSearch_PassesValue(t *testing.T) {
	var gotValue string
	service := &mockCatalogService{
		searchFn: func(ctx context.Context, value string) ([]*model.Product, error) {
			gotValue = value
			return []*model.Product{{ID: "p1", MaSP: "SP001", Name: "ThinkPad X1"}}, nil
		},
	}
	router := productTestRouter(NewProductHandler(service))

	req := httptest.NewRequest(http.MethodPost, "/products/search",
		strings.NewReader(`{"value":"ThinkPad"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotValue != "ThinkPad" {
		t.Errorf("value = %q, want %q", gotValue, "ThinkPad")
	}
}

// TestProductSearch_InvalidBody は壊れたJSONが400になることを検証する。
func TestProductSearch_InvalidBody(t *testing.T) {
	router := productTestRouter(NewProductHandler(&mockCatalogService{}))

	req := httptest.NewRequest(http.MethodPost, "/products/search", strings.NewReader(`{`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// TestProductCreate_Success は登録成功で201と登録結果が返ることを検証する。
func TestProductCreate_Success(t *testing.T) {
	service := &mockCatalogService{
		createFn: func(ctx context.Context, product *model.Product) (*model.Product, error) {
			product.ID = "p-new"
			return product, nil
		},
	}
	router := productTestRouter(NewProductHandler(service))

	req := httptest.NewRequest(http.MethodPost, "/products/add",
		strings.NewReader(`{"MaSP":"SP100","name":"新商品","price":198000,"stock":5,"type":"laptop","image":"https://cdn.example.com/sp100.jpg"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var body productResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスのデコードに失敗した: %v", err)
	}
	if body.ID != "p-new" || body.Price != 198000 {
		t.Errorf("response = %+v, want ID=p-new price=198000", body)
	}
}

// TestProductCreate_Duplicate はMaSP重複が409になることを検証する。
func TestProductCreate_Duplicate(t *testing.T) {
	service := &mockCatalogService{
		createFn: func(ctx context.Context, product *model.Product) (*model.Product, error) {
			return nil, model.NewDuplicateMaSPError(product.MaSP)
		},
	}
	router := productTestRouter(NewProductHandler(service))

	req := httptest.NewRequest(http.MethodPost, "/products/add",
		strings.NewReader(`{"MaSP":"SP001","name":"重複商品"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

// TestProductUpdate_PassesID はURLパラメータのIDがサービスに渡ることを検証する。
func TestProductUpdate_PassesID(t *testing.T) {
	var gotID string
	service := &mockCatalogService{
		updateFn: func(ctx context.Context, id string, product *model.Product) (*model.Product, error) {
			gotID = id
			product.ID = id
			return product, nil
		},
	}
	router := productTestRouter(NewProductHandler(service))

	req := httptest.NewRequest(http.MethodPut, "/products/update/p1",
		strings.NewReader(`{"price":150000}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotID != "p1" {
		t.Errorf("id = %q, want %q", gotID, "p1")
	}
}

// TestProductDelete_Success は削除成功で完了メッセージが返ることを検証する。
func TestProductDelete_Success(t *testing.T) {
	var gotID string
	service := &mockCatalogService{
		deleteFn: func(ctx context.Context, id string) error {
			gotID = id
			return nil
		},
	}
	router := productTestRouter(NewProductHandler(service))

	req := httptest.NewRequest(http.MethodDelete, "/products/del/p1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotID != "p1" {
		t.Errorf("id = %q, want %q", gotID, "p1")
	}
	if !strings.Contains(w.Body.String(), "削除しました") {
		t.Errorf("body = %q, 完了メッセージを含むべき", w.Body.String())
	}
}

// TestProductDelete_NotFound は存在しないIDの削除が404になることを検証する。
func TestProductDelete_NotFound(t *testing.T) {
	service := &mockCatalogService{
		deleteFn: func(ctx context.Context, id string) error {
			return model.NewProductNotFoundError(id)
		},
	}
	router := productTestRouter(NewProductHandler(service))

	req := httptest.NewRequest(http.MethodDelete, "/products/del/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
