package auth

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// EnsureSession は初回アクセス時に匿名セッションを発行するミドルウェアです。
func (h *Handler) EnsureSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if session.Get(sessionKeyIssuedAt) == nil {
			session.Set(sessionKeyIssuedAt, time.Now().Unix())
			if err := session.Save(); err != nil {
				// 匿名セッションが作れなくてもリクエスト自体は続行する
				h.logger.WithError(err).Warn("failed to issue anonymous session")
			}
		}
		c.Next()
	}
}

// RequireLogin はセッションにユーザーIDがなければ /login へリダイレクトします。
// ユーザーIDは ContextUserKey で後続のハンドラーに渡します。
func (h *Handler) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := SessionUserID(sessions.Default(c))
		if !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Set(ContextUserKey, userID)
		c.Next()
	}
}
