package middleware

import "net/http"

// corsAllowedMethods はストアAPIが受け付ける全メソッド。
const corsAllowedMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"

// corsAllowedHeaders はフロントエンドが付与するヘッダー。CSRFトークンを含む。
const corsAllowedHeaders = "Content-Type, X-CSRF-Token"

// NewCORSMiddleware は単一オリジン向けのCORSミドルウェアを返す。
// セッションCookieを伴うcredentials送信と共存させるため、
// ワイルドカード(*)ではなく設定されたオリジンをそのまま返す。
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowedOrigin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")

			// プリフライトはここで完結させる
			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", corsAllowedMethods)
				h.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
				h.Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
