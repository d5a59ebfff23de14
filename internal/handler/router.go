package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/denkiya/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CustomerResolver  middleware.CustomerResolver
	AdminResolver     middleware.AdminResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig
	Logger            *slog.Logger
	HTTPMetrics       middleware.HTTPMetricsRecorder

	// 認証
	AuthService AuthServiceInterface
	AuthMetrics LoginFailureRecorder
	AuthConfig  AuthHandlerConfig

	// カート
	CartService CartServiceInterface

	// 商品カタログ
	CatalogService CatalogServiceInterface

	// 注文
	ReceiptService ReceiptServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → CSRF → RateLimit(General)
//
// 認証が必要なルートはさらにセッションミドルウェア（顧客または管理者）で包む。
// /admin/check と /user/check はセッションミドルウェアの外に置き、
// 未認証でも401を返すプローブとして機能させる。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.HTTPMetrics))
	r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
	r.Use(deps.RateLimiter.GeneralMiddleware())

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthMetrics, deps.AuthConfig)
	cartHandler := NewCartHandler(deps.CartService)
	productHandler := NewProductHandler(deps.CatalogService)
	receiptHandler := NewReceiptHandler(deps.ReceiptService)

	customerSession := middleware.NewCustomerSessionMiddleware(deps.CustomerResolver)
	adminSession := middleware.NewAdminSessionMiddleware(deps.AdminResolver)
	loginLimit := deps.RateLimiter.LoginMiddleware()

	// 死活監視
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// CSRFトークン取得
	r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// --- 管理者の認証ルート ---
	r.Route("/admin", func(r chi.Router) {
		r.With(loginLimit).Post("/login", authHandler.LoginAdmin)
		r.Post("/logout", authHandler.Logout)

		// セッションプローブ: 両方のパス表記を受け付ける
		r.Get("/check", authHandler.CheckAdmin)
		r.Get("/checkAdmin", authHandler.CheckAdmin)
	})

	// --- 顧客の認証ルートとカート ---
	r.Route("/user", func(r chi.Router) {
		r.With(loginLimit).Post("/login", authHandler.LoginCustomer)
		r.With(loginLimit).Post("/signup", authHandler.Signup)
		r.Post("/logout", authHandler.Logout)

		// セッションプローブ: 両方のパス表記を受け付ける
		r.Get("/check", authHandler.CheckCustomer)
		r.Get("/checkCustomer", authHandler.CheckCustomer)

		// カート: 顧客セッション必須
		r.Route("/cart", func(r chi.Router) {
			r.Use(customerSession)

			r.Post("/add", cartHandler.Add)
			r.Put("/update", cartHandler.Update)
			r.Delete("/remove", cartHandler.Remove)
			r.Delete("/clear", cartHandler.Clear)
			r.Get("/{MaKH}", cartHandler.Get)
		})
	})

	// --- 商品カタログ ---
	r.Route("/products", func(r chi.Router) {
		// 公開ルート
		r.Get("/get", productHandler.List)
		r.Get("/get/{MaSP}", productHandler.Get)
		r.Post("/search", productHandler.Search)

		// 管理者専用ルート
		r.Group(func(r chi.Router) {
			r.Use(adminSession)

			r.Post("/add", productHandler.Create)
			r.Put("/update/{id}", productHandler.Update)
			r.Delete("/del/{id}", productHandler.Delete)
		})
	})

	// --- 注文: 顧客セッション必須 ---
	r.Route("/receipt", func(r chi.Router) {
		r.Use(customerSession)

		r.Post("/create", receiptHandler.Create)
		r.Get("/getByCustomer/{MaKH}", receiptHandler.ListByCustomer)
	})

	return r
}
