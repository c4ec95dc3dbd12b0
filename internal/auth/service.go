// Package auth は認証・認可機能を提供します。
//
// 登録とログインの判定は Service、HTTP との変換は Handler が担当します。
// セッションに載るのはユーザーIDだけで、ユーザー本体は毎回ストアから引き直します。
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sessionauth/internal/metrics"
	"github.com/yourusername/sessionauth/internal/users"
)

// Service は登録・ログイン・ログアウトをまとめます。自身は状態を持ちません。
type Service struct {
	store   users.Store
	hasher  PasswordHasher
	logger  logrus.FieldLogger
	metrics *metrics.Metrics
}

// NewService は Service を作成します。metrics は nil でも構いません。
func NewService(store users.Store, hasher PasswordHasher, logger logrus.FieldLogger, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		hasher:  hasher,
		logger:  logger,
		metrics: m,
	}
}

// Register は新しいユーザーを登録し、そのIDを返します。
func (s *Service) Register(ctx context.Context, username, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		s.metrics.ObserveRegistration(metrics.ResultInvalidInput)
		return "", fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		result := metrics.ResultError
		if errors.Is(err, ErrInvalidInput) {
			result = metrics.ResultInvalidInput
		}
		s.metrics.ObserveRegistration(result)
		return "", err
	}

	user := &users.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			s.metrics.ObserveRegistration(metrics.ResultDuplicateEmail)
			s.logger.WithField("email", email).Info("registration rejected: duplicate email")
			return "", ErrDuplicateEmail
		}
		s.metrics.ObserveRegistration(metrics.ResultError)
		return "", fmt.Errorf("%w: create user: %w", ErrStorage, err)
	}

	s.metrics.ObserveRegistration(metrics.ResultSuccess)
	s.logger.WithFields(logrus.Fields{"userId": user.ID, "email": email}).Info("user registered")
	return user.ID, nil
}

// Login はメールアドレスとパスワードを照合し、ユーザーIDを返します。
// セッションへの保存は呼び出し側で行います。
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			s.metrics.ObserveLogin(metrics.ResultUserNotFound)
			s.logger.WithField("email", email).Info("login rejected: unknown email")
			return "", ErrUserNotFound
		}
		s.metrics.ObserveLogin(metrics.ResultError)
		return "", fmt.Errorf("%w: find user: %w", ErrStorage, err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.metrics.ObserveLogin(metrics.ResultInvalidCredentials)
		s.logger.WithField("userId", user.ID).Info("login rejected: wrong password")
		return "", ErrInvalidCredentials
	}

	s.metrics.ObserveLogin(metrics.ResultSuccess)
	s.logger.WithField("userId", user.ID).Info("user logged in")
	return user.ID, nil
}

// User はセッションが参照するユーザーを取得します。
// ユーザーが消えていれば ErrUserNotFound を返します（ダングリングセッション）。
func (s *Service) User(ctx context.Context, id string) (*users.User, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: find user: %w", ErrStorage, err)
	}
	return user, nil
}

// Logout はセッションを破棄します。失敗はそのまま返し、再試行しません。
func (s *Service) Logout(session sessions.Session) error {
	userID, _ := SessionUserID(session)
	if err := destroySession(session); err != nil {
		return err
	}
	if userID != "" {
		s.logger.WithField("userId", userID).Info("user logged out")
	}
	return nil
}
