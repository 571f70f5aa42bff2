package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultSessionSecret はSESSION_SECRET未設定時に使う開発用の署名鍵。
// 本番環境では必ずSESSION_SECRETを設定すること。
const DefaultSessionSecret = "dev-secret-change-me"

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL    string
	DBMaxOpenConns int
	DBMaxIdleConns int
	DBConnLifetime time.Duration
	SeedOnStart    bool
	MigrateOnStart bool

	// Session
	SessionSecret         string
	SessionSecretInsecure bool // 開発用の既定値を使っている場合true
	RememberDays          int

	// Account
	PasswordPolicy string
	BcryptCost     int

	// Catalog cache
	RedisURL        string
	CatalogCacheTTL time.Duration

	// Rate Limit
	RateLimitAuth int // 認証フォームPOSTのreq/min（クライアントIPごと）

	// Logging
	LogLevel string

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.env（ENV_FILEで変更可）があれば先に読み込むが、
// 既に設定済みの環境変数は上書きしない。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	if err := loadDotEnv(getEnvString("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Session secret falls back to an insecure development value
	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = DefaultSessionSecret
		cfg.SessionSecretInsecure = true
	}

	// Optional fields with defaults
	cfg.DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	cfg.DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 5)
	cfg.DBConnLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	cfg.SeedOnStart = getEnvBool("SEED_ON_START", true)
	cfg.MigrateOnStart = getEnvBool("MIGRATE_ON_START", true)
	cfg.RememberDays = getEnvInt("SESSION_REMEMBER_DAYS", 30)
	cfg.PasswordPolicy = getEnvString("PASSWORD_POLICY", "strict")
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 10)
	cfg.RedisURL = getEnvString("REDIS_URL", "")
	cfg.CatalogCacheTTL = getEnvDuration("CATALOG_CACHE_TTL", 5*time.Minute)
	cfg.RateLimitAuth = getEnvInt("RATE_LIMIT_AUTH", 20)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")

	return cfg, nil
}

// RememberMaxAge は「ログイン状態を保持する」を選んだセッションの有効期間（秒）を返す。
func (c *Config) RememberMaxAge() int {
	return c.RememberDays * 24 * 60 * 60
}

// loadDotEnv は.envファイルを読み込む。ファイルが存在しない場合は何もしない。
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
