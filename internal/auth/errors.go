package auth

import "errors"

// 認証処理のエラー。呼び出し側は errors.Is で判定します。
var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
	// ErrStorage はユーザーストアの障害を包みます。詳細は利用者に見せません。
	ErrStorage = errors.New("storage error")
)
