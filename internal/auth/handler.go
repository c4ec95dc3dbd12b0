package auth

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// 利用者に見せる文言
const (
	msgInvalidCredentials = "Invalid credentials"
	msgUserNotFound       = "User not found"
	msgServerError        = "Server Error"
	msgDuplicateEmail     = "Email is already registered"
	msgInvalidInput       = "Email and password are required (password up to 72 bytes)"
)

// Handler は画面と認証フローの HTTP ハンドラーです。
type Handler struct {
	svc    *Service
	logger logrus.FieldLogger
}

// NewHandler は Handler を作成します。
func NewHandler(svc *Service, logger logrus.FieldLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type registerRequest struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

type loginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Index は GET / のハンドラーです。
func (h *Handler) Index(c *gin.Context) {
	if _, ok := SessionUserID(sessions.Default(c)); ok {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

// RegisterPage は GET /register のハンドラーです。
func (h *Handler) RegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, "register.tmpl", registerView(registerRequest{}, ""))
}

// Register は POST /register のハンドラーです。
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "register.tmpl", registerView(req, msgInvalidInput))
		return
	}

	_, err := h.svc.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	switch {
	case err == nil:
		c.Redirect(http.StatusFound, "/login")
	case errors.Is(err, ErrDuplicateEmail):
		c.HTML(http.StatusConflict, "register.tmpl", registerView(req, msgDuplicateEmail))
	case errors.Is(err, ErrInvalidInput):
		c.HTML(http.StatusBadRequest, "register.tmpl", registerView(req, msgInvalidInput))
	default:
		h.logger.WithError(err).Error("registration failed")
		c.String(http.StatusInternalServerError, msgServerError)
	}
}

// LoginPage は GET /login のハンドラーです。
func (h *Handler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.tmpl", gin.H{})
}

// Login は POST /login のハンドラーです。
// 失敗時はメールアドレスとパスワードのどちらが誤りかを区別せずに返します。
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.String(http.StatusBadRequest, msgInvalidCredentials)
		return
	}

	ctx := c.Request.Context()
	userID, err := h.svc.Login(ctx, req.Email, req.Password)
	switch {
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrInvalidCredentials):
		c.String(http.StatusUnauthorized, msgInvalidCredentials)
		return
	case err != nil:
		h.logger.WithError(err).Error("login failed")
		c.String(http.StatusInternalServerError, msgServerError)
		return
	}

	// 期限切れのリクエストではセッションを書き換えない
	if err := ctx.Err(); err != nil {
		h.logger.WithError(err).Error("login aborted before session update")
		c.String(http.StatusInternalServerError, msgServerError)
		return
	}

	if err := startSession(sessions.Default(c), userID); err != nil {
		h.logger.WithError(err).WithField("userId", userID).Error("failed to save session")
		c.String(http.StatusInternalServerError, msgServerError)
		return
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

// Dashboard は GET /dashboard のハンドラーです。RequireLogin の後ろで使います。
func (h *Handler) Dashboard(c *gin.Context) {
	userID := c.GetString(ContextUserKey)

	user, err := h.svc.User(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			h.logger.WithField("userId", userID).Warn("session references a missing user")
			c.String(http.StatusNotFound, msgUserNotFound)
			return
		}
		h.logger.WithError(err).WithField("userId", userID).Error("failed to load user")
		c.String(http.StatusInternalServerError, msgServerError)
		return
	}

	c.HTML(http.StatusOK, "dashboard.tmpl", gin.H{
		"Username":    user.Username,
		"Email":       user.Email,
		"MemberSince": user.CreatedAt,
	})
}

// Logout は GET /logout のハンドラーです。破棄に失敗した場合はエラー内容をそのまま返します。
func (h *Handler) Logout(c *gin.Context) {
	if err := h.svc.Logout(sessions.Default(c)); err != nil {
		h.logger.WithError(err).Error("failed to destroy session")
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

func registerView(req registerRequest, errMsg string) gin.H {
	return gin.H{
		"Error":    errMsg,
		"Username": req.Username,
		"Email":    req.Email,
	}
}
