// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/denkiya/internal/model"
)

const sessionCookieName = "session_id"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	LoginCustomer(ctx context.Context, email, password string) (*model.Customer, *model.Session, error)
	LoginAdmin(ctx context.Context, userName, password string) (*model.Admin, *model.Session, error)
	SignupCustomer(ctx context.Context, userName, email, password, sdt string) (*model.Customer, *model.Session, error)
	Logout(ctx context.Context, sessionID string) error
	CurrentCustomer(ctx context.Context, sessionID string) (*model.Customer, error)
	CurrentAdmin(ctx context.Context, sessionID string) (*model.Admin, error)
}

// LoginFailureRecorder はログイン失敗メトリクスの記録インターフェース。
// metrics.MetricsCollectorの部分集合として定義する。
type LoginFailureRecorder interface {
	RecordLoginFailure(role string)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	metrics LoginFailureRecorder
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。metricsはnil可。
func NewAuthHandler(service AuthServiceInterface, metrics LoginFailureRecorder, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		metrics: metrics,
		config:  config,
	}
}

// customerLoginRequest は顧客ログインリクエストのボディ。
type customerLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// adminLoginRequest は管理者ログインリクエストのボディ。
type adminLoginRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

// signupRequest は顧客サインアップリクエストのボディ。
type signupRequest struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	SDT      string `json:"SDT"`
}

// customerResponse は顧客情報のAPIレスポンス。
// MaKH（顧客コード）は認証済み顧客の判定に必須のため常に含める。
type customerResponse struct {
	ID       string `json:"_id"`
	MaKH     string `json:"MaKH"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
	SDT      string `json:"SDT,omitempty"`
	TypeCs   string `json:"typeCs,omitempty"`
}

// adminResponse は管理者情報のAPIレスポンス。
// positionは常に"admin"を返し、クライアント側のロール判定に使用される。
type adminResponse struct {
	ID       string `json:"_id"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Position string `json:"position"`
}

func toCustomerResponse(c *model.Customer) customerResponse {
	return customerResponse{
		ID:       c.ID,
		MaKH:     c.MaKH,
		UserName: c.UserName,
		Email:    c.Email,
		SDT:      c.SDT,
		TypeCs:   c.TypeCs,
	}
}

func toAdminResponse(a *model.Admin) adminResponse {
	return adminResponse{
		ID:       a.ID,
		UserName: a.UserName,
		Email:    a.Email,
		Position: "admin",
	}
}

// LoginCustomer は顧客ログインを処理する。
// POST /user/login
func (h *AuthHandler) LoginCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldError("email, password"))
		return
	}

	customer, session, err := h.service.LoginCustomer(r.Context(), req.Email, req.Password)
	if err != nil {
		h.recordLoginFailure(err, "customer")
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, session.ID)
	writeJSONResponse(w, http.StatusOK, toCustomerResponse(customer))
}

// LoginAdmin は管理者ログインを処理する。
// POST /admin/login
func (h *AuthHandler) LoginAdmin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}
	if req.UserName == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldError("userName, password"))
		return
	}

	admin, session, err := h.service.LoginAdmin(r.Context(), req.UserName, req.Password)
	if err != nil {
		h.recordLoginFailure(err, "admin")
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, session.ID)
	writeJSONResponse(w, http.StatusOK, toAdminResponse(admin))
}

// Signup は顧客の新規登録を処理する。登録成功時はそのままログイン状態になる。
// POST /user/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}
	if req.UserName == "" || req.Email == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldError("userName, email, password"))
		return
	}

	customer, session, err := h.service.SignupCustomer(r.Context(), req.UserName, req.Email, req.Password, req.SDT)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, session.ID)
	writeJSONResponse(w, http.StatusCreated, toCustomerResponse(customer))
}

// Logout はセッションを破棄する。顧客・管理者共用。
// サーバー側の削除に失敗してもCookieは必ずクリアする。
// POST /user/logout, POST /admin/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	h.clearSessionCookie(w)
	writeJSONResponse(w, http.StatusOK, map[string]string{
		"message": "ログアウトしました。",
	})
}

// CheckCustomer は現在の顧客セッションを検証し、顧客情報を返す。
// GET /user/check, GET /user/checkCustomer
func (h *AuthHandler) CheckCustomer(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	customer, err := h.service.CurrentCustomer(r.Context(), cookie.Value)
	if err != nil {
		slog.Error("failed to resolve customer session", slog.String("error", err.Error()))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if customer == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	writeJSONResponse(w, http.StatusOK, toCustomerResponse(customer))
}

// CheckAdmin は現在の管理者セッションを検証し、管理者情報を返す。
// GET /admin/check, GET /admin/checkAdmin
func (h *AuthHandler) CheckAdmin(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	admin, err := h.service.CurrentAdmin(r.Context(), cookie.Value)
	if err != nil {
		slog.Error("failed to resolve admin session", slog.String("error", err.Error()))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if admin == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	writeJSONResponse(w, http.StatusOK, toAdminResponse(admin))
}

// recordLoginFailure はLOGIN_FAILEDの場合のみメトリクスを記録する。
func (h *AuthHandler) recordLoginFailure(err error, role string) {
	if h.metrics == nil {
		return
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeLoginFailed {
		h.metrics.RecordLoginFailure(role)
	}
}

// setSessionCookie はセッションIDをHTTP Only Cookieに設定する。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie はセッションCookieを削除する。
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
