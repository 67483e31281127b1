// Package app はアプリケーションの起動と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/paperdeck/internal/auth"
	"github.com/hitoshi/paperdeck/internal/catalog"
	"github.com/hitoshi/paperdeck/internal/config"
	"github.com/hitoshi/paperdeck/internal/feed"
	"github.com/hitoshi/paperdeck/internal/handler"
	"github.com/hitoshi/paperdeck/internal/logger"
	"github.com/hitoshi/paperdeck/internal/metrics"
	"github.com/hitoshi/paperdeck/internal/middleware"
	"github.com/hitoshi/paperdeck/internal/recommend"
	"github.com/hitoshi/paperdeck/internal/security"
	"github.com/hitoshi/paperdeck/internal/state"
	"github.com/hitoshi/paperdeck/internal/storage"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 開発環境ではDEBUGレベルまで出力する
	logger.SetupDefault(w, !cfg.IsProduction())

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	return runServe(cfg)
}

// runServe はAPIサーバーモードで起動する。
// 永続ブリッジを開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. メトリクス
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 2. 永続ブリッジとアプリケーション状態ストア
	bridge := storage.Open(storage.Config{
		Dir:        cfg.DataDir,
		SyncWrites: cfg.SyncWrites,
	})
	defer bridge.Close()

	store := state.NewStore(bridge,
		state.WithLogger(slog.Default()),
		state.WithMetrics(collector),
	)
	if err := store.Load(); err != nil {
		return fmt.Errorf("failed to load persisted state: %w", err)
	}

	// 3. コンテンツカタログ
	catalogService, err := catalog.NewService(security.NewContentSanitizer())
	if err != nil {
		return fmt.Errorf("failed to load content catalog: %w", err)
	}

	// 4. ドメインサービスの初期化
	recommendService := recommend.NewService(store, catalogService,
		recommend.WithMetrics(collector),
	)
	feedService := feed.NewService(store, catalogService, recommendService, collector, cfg.FeedFeaturedCount)
	authService := auth.NewService(store, auth.ServiceConfig{
		LoginDelay:       cfg.LoginDelay,
		SessionMaxAge:    cfg.SessionMaxAge,
		RememberMeMaxAge: cfg.RememberMeMaxAge,
	})

	// 5. ルーターの構築
	// configのレート制限はリクエスト/分単位なのでreq/secに変換する
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.LoginRate = rate.Limit(float64(cfg.RateLimitLogin) / 60.0)
	rateLimiterCfg.LoginBurst = cfg.RateLimitLogin

	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		SessionResolver:   store,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},

		Collector: collector,
		Gatherer:  registry,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:     cfg.CookieDomain,
			CookieSecure:     cfg.CookieSecure,
			SessionMaxAge:    cfg.SessionMaxAge,
			RememberMeMaxAge: cfg.RememberMeMaxAge,
		},

		CatalogService: catalogService,

		FeedService:      feedService,
		RecommendService: recommendService,

		StateStore:        store,
		StateCatalog:      catalogService,
		NotificationStore: store,
		ModerationStore:   store,
	}

	router := handler.NewRouter(deps)

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /healthz エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/healthz", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}
