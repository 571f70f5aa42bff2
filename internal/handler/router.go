package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/session"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionManager *session.Manager
	UserResolver   middleware.CurrentUserResolver
	RateLimiter    *middleware.RateLimiter
	CSRFConfig     middleware.CSRFConfig
	Logger         *slog.Logger

	// 画面
	Renderer *Renderer

	// ストア
	CatalogService CatalogServiceInterface
	CartService    CartServiceInterface

	// アカウント
	AccountService AccountServiceInterface

	// 運用
	HealthChecker    HealthChecker
	MetricsCollector metrics.MetricsCollector
	MetricsGatherer  prometheus.Gatherer
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Metrics → Session → CurrentUser → Logging → CSRF
//
// /health, /metrics, /static/* はセッションを扱わない。
// ログイン・登録・パスワード再設定のPOSTには認証用レート制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.MetricsCollector != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.MetricsCollector))
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	storeHandler := NewStoreHandler(deps.CatalogService, deps.CartService, deps.Renderer)
	accountHandler := NewAccountHandler(deps.AccountService, deps.Renderer)

	// --- セッション不要のルート ---
	if deps.HealthChecker != nil {
		r.Get("/health", NewHealthHandler(deps.HealthChecker))
	}
	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}
	r.Handle("/static/*", http.StripPrefix("/static/", StaticHandler()))

	// --- 画面ルート ---
	// ミドルウェアスタック: Session → CurrentUser → Logging → CSRF
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionManager))
		r.Use(middleware.NewCurrentUserMiddleware(deps.UserResolver))
		r.Use(middleware.NewLoggingMiddleware(logger))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		// ストア
		r.Get("/", storeHandler.Index)
		r.Get("/add_to_cart/{product_id}", storeHandler.AddToCart)
		r.Get("/cart", storeHandler.ViewCart)
		r.Get("/remove_from_cart/{product_id}", storeHandler.RemoveFromCart)
		r.Get("/checkout", storeHandler.Checkout)

		// アカウント
		authLimit := deps.RateLimiter.AuthMiddleware()

		r.Get("/register", accountHandler.RegisterForm)
		r.With(authLimit).Post("/register", accountHandler.Register)
		r.Get("/login", accountHandler.LoginForm)
		r.With(authLimit).Post("/login", accountHandler.Login)
		r.Get("/logout", accountHandler.Logout)
		r.Get("/profile", accountHandler.Profile)
		r.Get("/forgot_password", accountHandler.ForgotPasswordForm)
		r.With(authLimit).Post("/forgot_password", accountHandler.ForgotPassword)
	})

	return r
}
