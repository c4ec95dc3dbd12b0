package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sessionauth/internal/auth"
	"github.com/yourusername/sessionauth/internal/config"
	"github.com/yourusername/sessionauth/internal/metrics"
	"github.com/yourusername/sessionauth/internal/session"
)

const shutdownTimeout = 10 * time.Second

// serve は依存を組み立ててHTTPサーバーを起動し、シグナルを受けるまで待ちます。
func serve(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	secret, generated, err := session.Secret(cfg)
	if err != nil {
		return err
	}
	if generated {
		logger.Warn("SESSION_SECRET is not set; using a random key, sessions will not survive a restart")
	}
	store, err := session.NewStore(cfg, secret, d.db)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	svc := auth.NewService(d.users, auth.NewBcryptHasher(cfg.BcryptCost), logger, m)
	router, err := newRouter(cfg, store, svc, logger, m)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"port":           cfg.Port,
			"mode":           cfg.GinMode,
			"sessionBackend": cfg.SessionBackend,
			"userStore":      cfg.UserStore,
		}).Infof("Server running on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
