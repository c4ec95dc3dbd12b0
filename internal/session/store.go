// Package session は設定に応じたセッションストアを組み立てます。
//
// セッションの実体（署名付きクッキー / Redis / PostgreSQL）は
// gin-contrib/sessions に任せ、このパッケージは選択と共通オプションだけを扱います。
package session

import (
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-contrib/sessions/postgres"
	ginredis "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/yourusername/sessionauth/internal/config"
)

// redisPoolSize は Redis セッションストアの最大アイドル接続数です。
const redisPoolSize = 10

// Secret はセッション署名鍵を返します。
// SESSION_SECRET が空なら起動ごとの乱数鍵を生成し、generated を true にします。
func Secret(cfg *config.Config) (key []byte, generated bool, err error) {
	if cfg.SessionSecret != "" {
		return []byte(cfg.SessionSecret), false, nil
	}
	key = make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("generate session secret: %w", err)
	}
	return key, true, nil
}

// Options はクッキーとストアに共通のセッションオプションを返します。
func Options(cfg *config.Config) sessions.Options {
	return sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewStore は cfg.SessionBackend に応じたストアを作成します。
// db は postgres バックエンドのときだけ使います。
func NewStore(cfg *config.Config, secret []byte, db *sql.DB) (sessions.Store, error) {
	if len(secret) == 0 {
		return nil, errors.New("session secret is empty")
	}

	var (
		store sessions.Store
		err   error
	)
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		store, err = newRedisStore(cfg.RedisURL, secret)
	case config.SessionBackendPostgres:
		if db == nil {
			return nil, errors.New("postgres session backend requires a database")
		}
		store, err = postgres.NewStore(db, secret)
	case config.SessionBackendCookie, "":
		store = cookie.NewStore(secret)
	default:
		return nil, fmt.Errorf("unknown session backend: %q", cfg.SessionBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s session store: %w", cfg.SessionBackend, err)
	}

	store.Options(Options(cfg))
	return store, nil
}

func newRedisStore(rawURL string, secret []byte) (sessions.Store, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	return ginredis.NewStoreWithDB(redisPoolSize, "tcp", opt.Addr, opt.Username, opt.Password, strconv.Itoa(opt.DB), secret)
}
