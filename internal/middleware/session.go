// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/denkiya/internal/model"
)

// SessionCookieName はセッションIDを保持するHTTP Only Cookieの名前。
const SessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// maKHContextKey はリクエストコンテキストに顧客コードを格納するためのキー。
var maKHContextKey = contextKey("ma_kh")

// adminIDContextKey はリクエストコンテキストに管理者IDを格納するためのキー。
var adminIDContextKey = contextKey("admin_id")

// CustomerResolver はセッションから顧客を解決するインターフェース。
// auth.Serviceの部分集合として定義する。
type CustomerResolver interface {
	CurrentCustomer(ctx context.Context, sessionID string) (*model.Customer, error)
}

// AdminResolver はセッションから管理者を解決するインターフェース。
// auth.Serviceの部分集合として定義する。
type AdminResolver interface {
	CurrentAdmin(ctx context.Context, sessionID string) (*model.Admin, error)
}

// NewCustomerSessionMiddleware はHTTP Only Cookieから顧客セッションを読み取り、
// 有効性を検証するミドルウェアを返す。
// 認証済み顧客のMaKHをリクエストコンテキストに注入する。
// 未認証リクエストおよび管理者ロールのセッションには401 Unauthorizedを返す。
func NewCustomerSessionMiddleware(resolver CustomerResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			customer, err := resolver.CurrentCustomer(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to resolve customer session",
					slog.String("error", err.Error()),
				)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if customer == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), maKHContextKey, customer.MaKH)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewAdminSessionMiddleware はHTTP Only Cookieから管理者セッションを読み取り、
// 有効性を検証するミドルウェアを返す。
// 認証済み管理者のIDをリクエストコンテキストに注入する。
// 未認証リクエストおよび顧客ロールのセッションには401 Unauthorizedを返す。
func NewAdminSessionMiddleware(resolver AdminResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			admin, err := resolver.CurrentAdmin(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to resolve admin session",
					slog.String("error", err.Error()),
				)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if admin == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), adminIDContextKey, admin.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// MaKHFromContext はリクエストコンテキストから顧客コードを取得する。
// 顧客セッションミドルウェアを通過したリクエストでのみ有効。
func MaKHFromContext(ctx context.Context) (string, error) {
	maKH, ok := ctx.Value(maKHContextKey).(string)
	if !ok || maKH == "" {
		return "", fmt.Errorf("MaKH not found in context")
	}
	return maKH, nil
}

// AdminIDFromContext はリクエストコンテキストから管理者IDを取得する。
// 管理者セッションミドルウェアを通過したリクエストでのみ有効。
func AdminIDFromContext(ctx context.Context) (string, error) {
	adminID, ok := ctx.Value(adminIDContextKey).(string)
	if !ok || adminID == "" {
		return "", fmt.Errorf("admin ID not found in context")
	}
	return adminID, nil
}

// ContextWithMaKH はコンテキストに顧客コードを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithMaKH(ctx context.Context, maKH string) context.Context {
	return context.WithValue(ctx, maKHContextKey, maKH)
}

// ContextWithAdminID はコンテキストに管理者IDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithAdminID(ctx context.Context, adminID string) context.Context {
	return context.WithValue(ctx, adminIDContextKey, adminID)
}
