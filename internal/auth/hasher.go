package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher はパスワードのハッシュ化と照合を行います。
type PasswordHasher interface {
	// Hash はソルト付きのハッシュを返します。同じ入力でも毎回異なる値になります。
	Hash(password string) (string, error)
	// Verify はパスワードがハッシュと一致するかを返します。
	// 不一致や壊れたハッシュは false で、エラーにはしません。
	Verify(password, hash string) bool
}

// BcryptHasher は bcrypt による PasswordHasher です。状態を持たず並行に使えます。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher は BcryptHasher を作成します。
// 範囲外のコストは bcrypt.DefaultCost に置き換えます。
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Cost は実際に使われるコストを返します。
func (h *BcryptHasher) Cost() int {
	return h.cost
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password exceeds 72 bytes", ErrInvalidInput)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
