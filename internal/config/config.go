// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// セッションストアの種類
const (
	SessionBackendCookie   = "cookie"
	SessionBackendRedis    = "redis"
	SessionBackendPostgres = "postgres"
)

// ユーザーストアの種類
const (
	UserStoreMemory   = "memory"
	UserStorePostgres = "postgres"
	UserStoreRedis    = "redis"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port           string        // HTTPサーバーのポート番号
	GinMode        string        // Ginの実行モード (debug, release, test)
	RequestTimeout time.Duration // 1リクエストあたりの処理上限

	// セッション設定
	SessionSecret  string // セッション署名用の秘密鍵
	SessionBackend string // cookie / redis / postgres
	SessionMaxAge  int    // セッションの有効期限（秒）

	// ユーザーストア設定
	UserStore   string // memory / postgres / redis
	DatabaseURL string // PostgreSQL 接続URL
	RedisURL    string // Redis 接続URL

	// パスワードハッシュ設定
	BcryptCost int

	// ログ設定
	LogLevel  string
	LogFormat string // json / text

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り、空なら無効）

	// メトリクス設定
	MetricsEnabled bool
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	config := &Config{
		Port:           getEnv("PORT", "5002"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		RequestTimeout: time.Duration(getEnvAsInt("REQUEST_TIMEOUT_SECONDS", 10)) * time.Second,

		SessionSecret:  getEnv("SESSION_SECRET", ""),
		SessionBackend: strings.ToLower(getEnv("SESSION_BACKEND", SessionBackendCookie)),
		SessionMaxAge:  getEnvAsInt("SESSION_MAX_AGE_SECONDS", 86400),

		UserStore:   strings.ToLower(getEnv("USER_STORE", UserStoreMemory)),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", "redis://127.0.0.1:6379/0"),

		BcryptCost: getEnvAsInt("BCRYPT_COST", 10),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	switch c.SessionBackend {
	case SessionBackendCookie, SessionBackendRedis, SessionBackendPostgres:
	default:
		return fmt.Errorf("unknown SESSION_BACKEND: %q", c.SessionBackend)
	}

	switch c.UserStore {
	case UserStoreMemory, UserStorePostgres, UserStoreRedis:
	default:
		return fmt.Errorf("unknown USER_STORE: %q", c.UserStore)
	}

	if c.usesPostgres() && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when postgres is used")
	}
	if c.usesRedis() && c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required when redis is used")
	}

	// ローカル開発では秘密鍵は任意（起動時に警告のみ）
	if c.GinMode == "release" && c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required in release mode")
	}

	return nil
}

// NeedsPostgres はユーザーストアかセッションストアが PostgreSQL を使うかを返します。
func (c *Config) NeedsPostgres() bool {
	return c.usesPostgres()
}

func (c *Config) usesPostgres() bool {
	return c.UserStore == UserStorePostgres || c.SessionBackend == SessionBackendPostgres
}

func (c *Config) usesRedis() bool {
	return c.UserStore == UserStoreRedis || c.SessionBackend == SessionBackendRedis
}

// AllowedOrigins は CORS 許可オリジンを配列で返します。
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
