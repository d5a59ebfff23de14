package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/denkiya/internal/middleware"
	"github.com/hitoshi/denkiya/internal/model"
)

type mockCartService struct {
	addFn            func(ctx context.Context, maKH, maSP string, soLuong int) (*model.Cart, error)
	getFn            func(ctx context.Context, maKH string) (*model.Cart, error)
	updateQuantityFn func(ctx context.Context, maKH, maSP string, soLuong int) (*model.Cart, error)
	removeFn         func(ctx context.Context, maKH, maSP string) (*model.Cart, error)
	clearFn          func(ctx context.Context, maKH string) error
}

func (m *mockCartService) Add(ctx context.Context, maKH, maSP string, soLuong int) (*model.Cart, error) {
	if m.addFn != nil {
		return m.addFn(ctx, maKH, maSP, soLuong)
	}
	return &model.Cart{MaKH: maKH}, nil
}

func (m *mockCartService) Get(ctx context.Context, maKH string) (*model.Cart, error) {
	if m.getFn != nil {
		return m.getFn(ctx, maKH)
	}
	return &model.Cart{MaKH: maKH, Lines: []model.CartLine{}}, nil
}

func (m *mockCartService) UpdateQuantity(ctx context.Context, maKH, maSP string, soLuong int) (*model.Cart, error) {
	if m.updateQuantityFn != nil {
		return m.updateQuantityFn(ctx, maKH, maSP, soLuong)
	}
	return &model.Cart{MaKH: maKH}, nil
}

func (m *mockCartService) Remove(ctx context.Context, maKH, maSP string) (*model.Cart, error) {
	if m.removeFn != nil {
		return m.removeFn(ctx, maKH, maSP)
	}
	return &model.Cart{MaKH: maKH}, nil
}

func (m *mockCartService) Clear(ctx context.Context, maKH string) error {
	if m.clearFn != nil {
		return m.clearFn(ctx, maKH)
	}
	return nil
}

var _ CartServiceInterface = (*mockCartService)(nil)

// authedRequest は顧客セッション済みのリクエストを生成する。
func authedRequest(method, target, body, maKH string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(middleware.ContextWithMaKH(req.Context(), maKH))
}

// TestCartAdd_Success は追加成功でカートが返ることを検証する。
func TestCartAdd_Success(t *testing.T) {
	var gotMaSP string
	var gotSoLuong int
	service := &mockCartService{
		addFn: func(ctx context.Context, maKH, maSP string, soLuong int) (*model.Cart, error) {
			gotMaSP, gotSoLuong = maSP, soLuong
			return &model.Cart{
				ID:   "cart-1",
				MaKH: maKH,
				Lines: []model.CartLine{
					{MaSP: maSP, SoLuong: soLuong, Product: &model.Product{MaSP: maSP, Name: "ThinkPad"}},
				},
			}, nil
		},
	}
	h := NewCartHandler(service)

	req := authedRequest(http.MethodPost, "/user/cart/add",
		`{"MaSP":"SP001","MaKH":"KH01","soLuong":2}`, "KH01")
	w := httptest.NewRecorder()

	h.Add(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotMaSP != "SP001" || gotSoLuong != 2 {
		t.Errorf("サービスに渡された値 = (%q, %d), want (SP001, 2)", gotMaSP, gotSoLuong)
	}

	var body cartResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスのデコードに失敗した: %v", err)
	}
	if len(body.Lines) != 1 || body.Lines[0].SoLuong != 2 {
		t.Errorf("products = %+v, want 1行/数量2", body.Lines)
	}
	if body.Lines[0].Product == nil || body.Lines[0].Product.Name != "ThinkPad" {
		t.Error("商品情報が展開されて返るべき")
	}
}

// soLuong未指定の追加は1個として扱われること
func TestCartAdd_DefaultQuantityIsOne(t *testing.T) {
	var gotSoLuong int
	service := &mockCartService{
		addFn: func(ctx context.Context, maKH, maSP string, soLuong int) (*model.Cart, error) {
			gotSoLuong = soLuong
			return &model.Cart{MaKH: maKH}, nil
		},
	}
	h := NewCartHandler(service)

	req := authedRequest(http.MethodPost, "/user/cart/add",
		`{"MaSP":"SP001","MaKH":"KH01"}`, "KH01")
	w := httptest.NewRecorder()

	h.Add(w, req)

	if gotSoLuong != 1 {
		t.Errorf("soLuong = %d, want 1", gotSoLuong)
	}
}

// 0はデフォルトの1に置き換えず、そのままサービスに渡して拒否させること
func TestCartAdd_ExplicitZeroForwarded(t *testing.T) {
	service := &mockCartService{
		addFn: func(ctx context.Context, maKH, maSP string, soLuong int) (*model.Cart, error) {
			if soLuong != 0 {
				t.Errorf("soLuong = %d, want 0（明示された0は転送する）", soLuong)
			}
			return nil, model.NewInvalidQuantityError(soLuong)
		},
	}
	h := NewCartHandler(service)

	req := authedRequest(http.MethodPost, "/user/cart/add",
		`{"MaSP":"SP001","MaKH":"KH01","soLuong":0}`, "KH01")
	w := httptest.NewRecorder()

	h.Add(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// TestCartAdd_OtherCustomerForbidden は他人のMaKHを指定した操作が403になることを検証する。
func TestCartAdd_OtherCustomerForbidden(t *testing.T) {
	serviceCalled := false
	service := &mockCartService{
		addFn: func(ctx context.Context, maKH, maSP string, soLuong int) (*model.Cart, error) {
			serviceCalled = true
			return nil, nil
		},
	}
	h := NewCartHandler(service)

	req := authedRequest(http.MethodPost, "/user/cart/add",
		`{"MaSP":"SP001","MaKH":"KH99","soLuong":1}`, "KH01")
	w := httptest.NewRecorder()

	h.Add(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	if serviceCalled {
		t.Error("403のときサービスは呼ばれてはならない")
	}
}

// TestCartAdd_Unauthenticated はセッションなしの操作が401になることを検証する。
func TestCartAdd_Unauthenticated(t *testing.T) {
	h := NewCartHandler(&mockCartService{})

	req := httptest.NewRequest(http.MethodPost, "/user/cart/add",
		strings.NewReader(`{"MaSP":"SP001","MaKH":"KH01","soLuong":1}`))
	w := httptest.NewRecorder()

	h.Add(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// TestCartUpdate_MissingSoLuong はsoLuong未指定の更新が400になることを検証する。
func TestCartUpdate_MissingSoLuong(t *testing.T) {
	h := NewCartHandler(&mockCartService{})

	req := authedRequest(http.MethodPut, "/user/cart/update",
		`{"MaSP":"SP001","MaKH":"KH01"}`, "KH01")
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// TestCartUpdate_UnknownLine は存在しない行の更新が404になることを検証する。
func TestCartUpdate_UnknownLine(t *testing.T) {
	service := &mockCartService{
		updateQuantityFn: func(ctx context.Context, maKH, maSP string, soLuong int) (*model.Cart, error) {
			return nil, model.NewCartLineNotFoundError(maSP)
		},
	}
	h := NewCartHandler(service)

	req := authedRequest(http.MethodPut, "/user/cart/update",
		`{"MaSP":"SP999","MaKH":"KH01","soLuong":3}`, "KH01")
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// TestCartClear_ReturnsAck はクリア成功でackメッセージが返ることを検証する。
func TestCartClear_ReturnsAck(t *testing.T) {
	cleared := false
	service := &mockCartService{
		clearFn: func(ctx context.Context, maKH string) error {
			cleared = true
			return nil
		},
	}
	h := NewCartHandler(service)

	req := authedRequest(http.MethodDelete, "/user/cart/clear", `{"MaKH":"KH01"}`, "KH01")
	w := httptest.NewRecorder()

	h.Clear(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !cleared {
		t.Error("サービスのClearが呼ばれていない")
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスのデコードに失敗した: %v", err)
	}
	if body["message"] == "" {
		t.Error("ackメッセージが空")
	}
}

// TestCartRemove_UnknownLine は存在しない行の削除が404になることを検証する。
func TestCartRemove_UnknownLine(t *testing.T) {
	service := &mockCartService{
		removeFn: func(ctx context.Context, maKH, maSP string) (*model.Cart, error) {
			return nil, model.NewCartLineNotFoundError(maSP)
		},
	}
	h := NewCartHandler(service)

	req := authedRequest(http.MethodDelete, "/user/cart/remove",
		`{"MaSP":"SP999","MaKH":"KH01"}`, "KH01")
	w := httptest.NewRecorder()

	h.Remove(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
