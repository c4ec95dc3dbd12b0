package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sessionauth/internal/auth"
	"github.com/yourusername/sessionauth/internal/config"
	"github.com/yourusername/sessionauth/internal/logging"
	"github.com/yourusername/sessionauth/internal/metrics"
	"github.com/yourusername/sessionauth/internal/middleware"
	"github.com/yourusername/sessionauth/internal/web"
)

// newRouter はミドルウェアとルーティングを組み立てた gin.Engine を返します。
// m が nil の場合は /metrics を公開しません。
func newRouter(cfg *config.Config, store sessions.Store, svc *auth.Service, logger logrus.FieldLogger, m *metrics.Metrics) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.Middleware(logger))
	if m != nil {
		router.Use(m.Middleware())
	}
	router.Use(middleware.Timeout(cfg.RequestTimeout))

	// CORS はオリジンが設定されているときだけ有効にする
	if origins := cfg.AllowedOrigins(); len(origins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
		router.Use(cors.New(corsConfig))
	}

	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(tmpl)
	router.StaticFS("/static", web.Static())

	// 運用向けのエンドポイントはセッションを発行しない
	router.GET("/health", handleHealth)
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	h := auth.NewHandler(svc, logger)

	app := router.Group("/")
	app.Use(sessions.Sessions(auth.SessionCookieName, store), h.EnsureSession())
	{
		app.GET("/", h.Index)
		app.GET("/register", h.RegisterPage)
		app.POST("/register", h.Register)
		app.GET("/login", h.LoginPage)
		app.POST("/login", h.Login)
		app.GET("/dashboard", h.RequireLogin(), h.Dashboard)
		app.GET("/logout", h.Logout)
	}

	return router, nil
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "sessionauth",
		"version": version,
	})
}
