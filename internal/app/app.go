package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/storefront/internal/account"
	"github.com/hitoshi/storefront/internal/cart"
	"github.com/hitoshi/storefront/internal/catalog"
	"github.com/hitoshi/storefront/internal/config"
	"github.com/hitoshi/storefront/internal/database"
	"github.com/hitoshi/storefront/internal/handler"
	"github.com/hitoshi/storefront/internal/logger"
	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/repository"
	"github.com/hitoshi/storefront/internal/security"
	"github.com/hitoshi/storefront/internal/session"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定に合わせてログレベルを変更する
	if !logger.SetLevel(cfg.LogLevel) {
		slog.Warn("unknown log level, falling back to info", slog.String("log_level", cfg.LogLevel))
	}

	if cfg.SessionSecretInsecure {
		slog.Warn("SESSION_SECRET is not set; using an insecure development secret")
	}

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

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandSeed:
		return runSeed(cfg)
	default:
		return runServe(cfg)
	}
}

// openDatabase はプール設定を適用してDBに接続し、疎通を確認する。
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.OpenWithPool(cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")
	return db, nil
}

// runServe はWebサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. マイグレーション（DB接続より先に適用する）
	if cfg.MigrateOnStart {
		if err := runMigrate(cfg); err != nil {
			return err
		}
	}

	// 2. DB接続
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// 3. リポジトリの初期化
	var productRepo repository.ProductRepository = repository.NewPostgresProductRepo(db)
	userRepo := repository.NewPostgresUserRepo(db)

	if cfg.RedisURL != "" {
		cache, err := repository.NewRedisCacheStore(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer cache.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pingErr := cache.Ping(ctx)
		cancel()
		if pingErr != nil {
			// キャッシュは任意のため、疎通できなくても起動は続ける
			slog.Warn("catalog cache unreachable", slog.String("error", pingErr.Error()))
		}

		productRepo = repository.NewCachedProductRepo(productRepo, cache, cfg.CatalogCacheTTL)
		slog.Info("catalog cache enabled", slog.Duration("ttl", cfg.CatalogCacheTTL))
	}

	// 4. メトリクスの初期化
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 5. ドメインサービスの初期化
	catalogService := catalog.NewService(productRepo)
	cartService := cart.NewService(catalogService, collector)
	accountService := account.NewService(
		userRepo,
		security.NewBcryptHasher(cfg.BcryptCost),
		security.ParsePasswordPolicy(cfg.PasswordPolicy),
		collector,
	)

	if cfg.SeedOnStart {
		if _, err := catalogService.SeedIfEmpty(context.Background()); err != nil {
			return fmt.Errorf("failed to seed catalog: %w", err)
		}
	}

	// 6. 画面描画の初期化
	renderer, err := handler.NewRenderer(security.NewContentSanitizer())
	if err != nil {
		return err
	}

	// 7. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(middleware.AuthRateLimiterConfig(cfg.RateLimitAuth))
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		SessionManager: session.NewManager(session.Options{
			Secret:         cfg.SessionSecret,
			Secure:         cfg.CookieSecure,
			Domain:         cfg.CookieDomain,
			RememberMaxAge: cfg.RememberMaxAge(),
		}),
		UserResolver: accountService,
		RateLimiter:  rateLimiter,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		Logger: slog.Default(),

		Renderer: renderer,

		CatalogService: catalogService,
		CartService:    cartService,
		AccountService: accountService,

		HealthChecker:    db,
		MetricsCollector: collector,
		MetricsGatherer:  registry,
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
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

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("web server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serverErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down web server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("web server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runSeed はカタログが空の場合にサンプル商品を投入する。
// 既に商品がある場合は何もしない。
func runSeed(cfg *config.Config) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	catalogService := catalog.NewService(repository.NewPostgresProductRepo(db))
	n, err := catalogService.SeedIfEmpty(context.Background())
	if err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	slog.Info("seed finished", slog.Int("inserted", n))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
