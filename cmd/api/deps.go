package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sessionauth/internal/config"
	"github.com/yourusername/sessionauth/internal/users"
)

// deps はサーバーが使う外部リソースをまとめたものです。
type deps struct {
	users   users.Store
	db      *sql.DB // postgres セッションストア用。使わなければ nil
	closers []func()
}

// Close は開いた接続を逆順に閉じます。
func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// buildDeps は設定に従ってユーザーストアと DB 接続を用意します。
func buildDeps(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*deps, error) {
	d := &deps{}

	var pool *pgxpool.Pool
	if cfg.NeedsPostgres() {
		p, db, err := openPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		pool = p
		d.db = db
		d.closers = append(d.closers, pool.Close, func() { _ = db.Close() })
	}

	switch cfg.UserStore {
	case config.UserStorePostgres:
		if err := users.Migrate(ctx, d.db); err != nil {
			d.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		d.users = users.NewPostgresStore(pool)
	case config.UserStoreRedis:
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.closers = append(d.closers, func() { _ = rdb.Close() })
		d.users = users.NewRedisStore(rdb)
	default:
		logger.Warn("using in-memory user store; registered users are lost on restart")
		d.users = users.NewMemoryStore()
	}

	return d, nil
}

// openPostgres は pgx のプールと、それを包む database/sql ハンドルを返します。
func openPostgres(ctx context.Context, url string) (*pgxpool.Pool, *sql.DB, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, stdlib.OpenDBFromPool(pool), nil
}

func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}
