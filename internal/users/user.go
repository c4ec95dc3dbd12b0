// Package users はユーザーレコード（資格情報）の永続化を提供します。
//
// ストアはメールアドレスの一意性を保証します。同じメールアドレスで同時に
// 登録された場合でも、作成に成功するのは一件だけです。
package users

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound は該当するユーザーが存在しない場合に返されます。
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail はメールアドレスが既に登録済みの場合に返されます。
	ErrDuplicateEmail = errors.New("email already registered")
)

// User は登録済みユーザーを表します。
// PasswordHash は平文パスワードではなく、画面やログに出してはいけません。
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Store はユーザーレコードの保存先です。
type Store interface {
	// Create は新しいユーザーを保存します。ID と CreatedAt が空なら採番します。
	Create(ctx context.Context, user *User) error
	// FindByEmail はメールアドレスでユーザーを取得します。
	FindByEmail(ctx context.Context, email string) (*User, error)
	// FindByID は ID でユーザーを取得します。
	FindByID(ctx context.Context, id string) (*User, error)
}

// Deleter はユーザーを削除できるストアです。運用・テスト用で、HTTP からは使いません。
type Deleter interface {
	Delete(ctx context.Context, id string) error
}

var (
	_ Deleter = (*MemoryStore)(nil)
	_ Deleter = (*PostgresStore)(nil)
	_ Deleter = (*RedisStore)(nil)
)
