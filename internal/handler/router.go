package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/paperdeck/internal/metrics"
	"github.com/hitoshi/paperdeck/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	SessionResolver   middleware.SessionResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig

	// メトリクス
	Collector metrics.MetricsCollector
	Gatherer  prometheus.Gatherer

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// コンテンツカタログ
	CatalogService CatalogServiceInterface

	// フィード・推薦
	FeedService      FeedServiceInterface
	RecommendService RecommendServiceInterface

	// 状態ストア
	StateStore        StateStoreInterface
	StateCatalog      StateCatalogInterface
	NotificationStore NotificationStoreInterface
	ModerationStore   ModerationStoreInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Recovery → Logging → Session → RateLimit(General)
//
// セッションミドルウェアは全ルートでアイデンティティを解決するが、
// 認証を強制するのはRequireAuthを付けたグループのみ。
// /metrics と /healthz はレート制限の外に置く。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Collector))
	r.Use(middleware.NewSessionMiddleware(deps.SessionResolver))

	authHandler := NewAuthHandler(deps.AuthService, deps.Collector, deps.AuthConfig)
	catalogHandler := NewCatalogHandler(deps.CatalogService)
	feedHandler := NewFeedHandler(deps.FeedService, deps.RecommendService)
	stateHandler := NewStateHandler(deps.StateStore, deps.StateCatalog)
	notifyHandler := NewNotificationHandler(deps.NotificationStore)
	modHandler := NewModerationHandler(deps.ModerationStore)

	// --- 運用エンドポイント（レート制限なし） ---
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.SetupMetricsRoute(deps.Gatherer))

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		// --- 認証ルート ---
		r.Route("/auth", func(r chi.Router) {
			// POST /auth/login - ログイン専用レート制限を追加
			r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})

		// --- 認証不要のルート ---

		// コンテンツカタログ
		r.Route("/api/papers", func(r chi.Router) {
			r.Get("/", catalogHandler.ListPapers)
			r.Get("/{id}", catalogHandler.GetPaper)

			// PUT /api/papers/{id}/state - 操作状態の更新はログイン必須
			r.With(middleware.RequireAuth).Put("/{id}/state", stateHandler.UpdatePaperState)
		})
		r.Get("/api/summaries/{paperID}", catalogHandler.GetSummary)
		r.Route("/api/reports", func(r chi.Router) {
			r.Get("/", catalogHandler.ListReports)
			r.Get("/{id}", catalogHandler.GetReport)
		})
		r.Route("/api/authors", func(r chi.Router) {
			r.Get("/", catalogHandler.ListAuthors)
			r.Get("/{id}", catalogHandler.GetAuthor)
			r.Get("/{id}/papers", catalogHandler.ListAuthorPapers)
		})
		r.Route("/api/tags", func(r chi.Router) {
			r.Get("/", catalogHandler.ListTags)
			r.Get("/trending", catalogHandler.TrendingTags)
		})

		// フィードはゲストでもデフォルト設定で閲覧できる
		r.Get("/api/feed", feedHandler.GetFeed)
		r.Post("/api/recommendations", feedHandler.Recommendations)

		// --- 認証が必要なルート ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Route("/api/me", func(r chi.Router) {
				r.Put("/profile", stateHandler.UpdateProfile)
				r.Get("/library", stateHandler.GetLibrary)
				r.Get("/preferences", stateHandler.GetPreferences)
				r.Put("/preferences", stateHandler.UpdatePreferences)
				r.Get("/settings", stateHandler.GetSettings)
				r.Put("/settings", stateHandler.UpdateSettings)
			})

			r.Route("/api/notifications", func(r chi.Router) {
				r.Get("/", notifyHandler.ListNotifications)
				r.Put("/{id}/read", notifyHandler.MarkRead)
			})

			r.Route("/api/moderation", func(r chi.Router) {
				r.Get("/", modHandler.GetModeration)
				r.Post("/hide", modHandler.HidePaper)
				r.Post("/unhide", modHandler.UnhidePaper)
				r.Post("/block-author", modHandler.BlockAuthor)
				r.Post("/exclude-tag", modHandler.ExcludeTag)
			})
		})
	})

	return r
}
