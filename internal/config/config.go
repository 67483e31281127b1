package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// ローカルファーストのデーモンなので必須環境変数はなく、全項目に既定値がある。
type Config struct {
	// Server
	ServerPort string
	BaseURL    string

	// Environment ("development" / "production")
	AppEnv string

	// Storage
	DataDir    string
	SyncWrites bool

	// Auth
	LoginDelay       time.Duration
	SessionMaxAge    time.Duration
	RememberMeMaxAge time.Duration

	// Rate Limit（リクエスト/分）
	RateLimitGeneral int
	RateLimitLogin   int

	// Feed
	FeedFeaturedCount int

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:8080")
	cfg.AppEnv = getEnvString("APP_ENV", "development")
	cfg.DataDir = getEnvString("DATA_DIR", defaultDataDir())
	cfg.SyncWrites = getEnvBool("SYNC_WRITES", false)
	cfg.LoginDelay = getEnvDuration("LOGIN_DELAY", 600*time.Millisecond)
	cfg.SessionMaxAge = getEnvDuration("SESSION_MAX_AGE", 24*time.Hour)
	cfg.RememberMeMaxAge = getEnvDuration("REMEMBER_ME_MAX_AGE", 30*24*time.Hour)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitLogin = getEnvInt("RATE_LIMIT_LOGIN", 10)
	cfg.FeedFeaturedCount = getEnvInt("FEED_FEATURED_COUNT", 5)
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

// IsProduction は本番環境かどうかを返す。
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// defaultDataDir はローカルスナップショットの既定の保存先を返す。
// 取得できない場合は空文字を返し、ストレージ層がインメモリへフォールバックする。
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.paperdeck"
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
