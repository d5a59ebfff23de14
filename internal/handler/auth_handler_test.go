package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/denkiya/internal/model"
)

type mockAuthService struct {
	loginCustomerFn   func(ctx context.Context, email, password string) (*model.Customer, *model.Session, error)
	loginAdminFn      func(ctx context.Context, userName, password string) (*model.Admin, *model.Session, error)
	signupCustomerFn  func(ctx context.Context, userName, email, password, sdt string) (*model.Customer, *model.Session, error)
	logoutFn          func(ctx context.Context, sessionID string) error
	currentCustomerFn func(ctx context.Context, sessionID string) (*model.Customer, error)
	currentAdminFn    func(ctx context.Context, sessionID string) (*model.Admin, error)
}

func (m *mockAuthService) LoginCustomer(ctx context.Context, email, password string) (*model.Customer, *model.Session, error) {
	if m.loginCustomerFn != nil {
		return m.loginCustomerFn(ctx, email, password)
	}
	return nil, nil, model.NewLoginFailedError()
}

func (m *mockAuthService) LoginAdmin(ctx context.Context, userName, password string) (*model.Admin, *model.Session, error) {
	if m.loginAdminFn != nil {
		return m.loginAdminFn(ctx, userName, password)
	}
	return nil, nil, model.NewLoginFailedError()
}

func (m *mockAuthService) SignupCustomer(ctx context.Context, userName, email, password, sdt string) (*model.Customer, *model.Session, error) {
	if m.signupCustomerFn != nil {
		return m.signupCustomerFn(ctx, userName, email, password, sdt)
	}
	return nil, nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

func (m *mockAuthService) CurrentCustomer(ctx context.Context, sessionID string) (*model.Customer, error) {
	if m.currentCustomerFn != nil {
		return m.currentCustomerFn(ctx, sessionID)
	}
	return nil, nil
}

func (m *mockAuthService) CurrentAdmin(ctx context.Context, sessionID string) (*model.Admin, error) {
	if m.currentAdminFn != nil {
		return m.currentAdminFn(ctx, sessionID)
	}
	return nil, nil
}

var _ AuthServiceInterface = (*mockAuthService)(nil)

type countLoginFailures struct {
	roles []string
}

func (c *countLoginFailures) RecordLoginFailure(role string) {
	c.roles = append(c.roles, role)
}

func testAuthConfig() AuthHandlerConfig {
	return AuthHandlerConfig{SessionMaxAge: 86400}
}

func sessionCookieFrom(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	return nil
}

// TestLoginCustomer_Success はログイン成功でセッションCookieと顧客情報が返ることを検証する。
func TestLoginCustomer_Success(t *testing.T) {
	service := &mockAuthService{
		loginCustomerFn: func(ctx context.Context, email, password string) (*model.Customer, *model.Session, error) {
			return &model.Customer{ID: "cust-1", MaKH: "KH01", UserName: "tanaka", Email: email},
				&model.Session{ID: "sess-1", Role: model.RoleCustomer}, nil
		},
	}
	h := NewAuthHandler(service, nil, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/user/login",
		strings.NewReader(`{"email":"tanaka@example.com","password":"secret"}`))
	w := httptest.NewRecorder()

	h.LoginCustomer(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	cookie := sessionCookieFrom(t, w)
	if cookie == nil || cookie.Value != "sess-1" {
		t.Errorf("セッションCookieが設定されていない: %+v", cookie)
	}
	if cookie != nil && !cookie.HttpOnly {
		t.Error("セッションCookieはHttpOnlyであるべき")
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスのデコードに失敗した: %v", err)
	}
	if body["MaKH"] != "KH01" {
		t.Errorf("MaKH = %v, want KH01", body["MaKH"])
	}
}

// TestLoginCustomer_WrongPassword はログイン失敗で401とメトリクス記録になることを検証する。
func TestLoginCustomer_WrongPassword(t *testing.T) {
	metrics := &countLoginFailures{}
	h := NewAuthHandler(&mockAuthService{}, metrics, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/user/login",
		strings.NewReader(`{"email":"tanaka@example.com","password":"wrong"}`))
	w := httptest.NewRecorder()

	h.LoginCustomer(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if len(metrics.roles) != 1 || metrics.roles[0] != "customer" {
		t.Errorf("ログイン失敗メトリクス = %v, want [customer]", metrics.roles)
	}

	var body apiErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスのデコードに失敗した: %v", err)
	}
	if body.Code != model.ErrCodeLoginFailed {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeLoginFailed)
	}
}

// TestLoginCustomer_MissingFields は空のemail/passwordが400になることを検証する。
func TestLoginCustomer_MissingFields(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/user/login", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	h.LoginCustomer(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// TestLoginAdmin_ResponseHasPosition は管理者ログイン成功レスポンスにposition=adminが含まれることを検証する。
// バックエンド側でロールタグを必ず付与し、クライアント側の判定に使用させる。
func TestLoginAdmin_ResponseHasPosition(t *testing.T) {
	service := &mockAuthService{
		loginAdminFn: func(ctx context.Context, userName, password string) (*model.Admin, *model.Session, error) {
			return &model.Admin{ID: "admin-1", UserName: userName},
				&model.Session{ID: "sess-a", Role: model.RoleAdmin}, nil
		},
	}
	h := NewAuthHandler(service, nil, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/admin/login",
		strings.NewReader(`{"userName":"boss","password":"secret"}`))
	w := httptest.NewRecorder()

	h.LoginAdmin(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスのデコードに失敗した: %v", err)
	}
	if body["position"] != "admin" {
		t.Errorf("position = %v, want admin", body["position"])
	}
}

// TestSignup_Success はサインアップ成功で201とセッションCookieが返ることを検証する。
func TestSignup_Success(t *testing.T) {
	service := &mockAuthService{
		signupCustomerFn: func(ctx context.Context, userName, email, password, sdt string) (*model.Customer, *model.Session, error) {
			return &model.Customer{ID: "cust-2", MaKH: "KH02", UserName: userName, Email: email, SDT: sdt},
				&model.Session{ID: "sess-2", Role: model.RoleCustomer}, nil
		},
	}
	h := NewAuthHandler(service, nil, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/user/signup",
		strings.NewReader(`{"userName":"suzuki","email":"suzuki@example.com","password":"secret","SDT":"0901234567"}`))
	w := httptest.NewRecorder()

	h.Signup(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if cookie := sessionCookieFrom(t, w); cookie == nil || cookie.Value != "sess-2" {
		t.Error("サインアップ成功でセッションCookieが設定されるべき")
	}
}

// TestSignup_DuplicateEmail はメール重複が409になることを検証する。
func TestSignup_DuplicateEmail(t *testing.T) {
	service := &mockAuthService{
		signupCustomerFn: func(ctx context.Context, userName, email, password, sdt string) (*model.Customer, *model.Session, error) {
			return nil, nil, model.NewDuplicateEmailError(email)
		},
	}
	h := NewAuthHandler(service, nil, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/user/signup",
		strings.NewReader(`{"userName":"suzuki","email":"dup@example.com","password":"secret"}`))
	w := httptest.NewRecorder()

	h.Signup(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

// TestLogout_ClearsCookieEvenOnServiceError はサーバー側の削除失敗でもCookieがクリアされることを検証する。
func TestLogout_ClearsCookieEvenOnServiceError(t *testing.T) {
	service := &mockAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			return context.DeadlineExceeded
		},
	}
	h := NewAuthHandler(service, nil, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/user/logout", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess-1"})
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	cookie := sessionCookieFrom(t, w)
	if cookie == nil || cookie.MaxAge != -1 {
		t.Errorf("セッションCookieがクリアされていない: %+v", cookie)
	}
}

// TestLogout_NoCookie はCookieなしのログアウトも200で完了することを検証する。
func TestLogout_NoCookie(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/user/logout", nil)
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

// TestCheckCustomer_Success は有効な顧客セッションで顧客情報が返ることを検証する。
func TestCheckCustomer_Success(t *testing.T) {
	service := &mockAuthService{
		currentCustomerFn: func(ctx context.Context, sessionID string) (*model.Customer, error) {
			return &model.Customer{ID: "cust-1", MaKH: "KH01", UserName: "tanaka"}, nil
		},
	}
	h := NewAuthHandler(service, nil, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/user/check", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess-1"})
	w := httptest.NewRecorder()

	h.CheckCustomer(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスのデコードに失敗した: %v", err)
	}
	if body["MaKH"] != "KH01" {
		t.Errorf("MaKH = %v, want KH01", body["MaKH"])
	}
}

// TestCheckCustomer_NoSession はCookieなしのプローブが401になることを検証する。
func TestCheckCustomer_NoSession(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/user/check", nil)
	w := httptest.NewRecorder()

	h.CheckCustomer(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// TestCheckAdmin_CustomerSessionRejected は顧客セッションでの管理者プローブが401になることを検証する。
func TestCheckAdmin_CustomerSessionRejected(t *testing.T) {
	// 顧客ロールのセッションに対してCurrentAdminはnilを返す
	h := NewAuthHandler(&mockAuthService{}, nil, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/admin/check", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess-customer"})
	w := httptest.NewRecorder()

	h.CheckAdmin(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// TestCheckAdmin_Success は有効な管理者セッションでposition付きの管理者情報が返ることを検証する。
func TestCheckAdmin_Success(t *testing.T) {
	service := &mockAuthService{
		currentAdminFn: func(ctx context.Context, sessionID string) (*model.Admin, error) {
			return &model.Admin{ID: "admin-1", UserName: "boss"}, nil
		},
	}
	h := NewAuthHandler(service, nil, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/admin/check", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess-a"})
	w := httptest.NewRecorder()

	h.CheckAdmin(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスのデコードに失敗した: %v", err)
	}
	if body["position"] != "admin" {
		t.Errorf("position = %v, want admin", body["position"])
	}
}
