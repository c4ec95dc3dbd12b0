package auth

import (
	"github.com/gin-contrib/sessions"
)

const (
	// SessionCookieName はセッションクッキーの名前です。
	SessionCookieName = "sessionauth_sid"

	sessionKeyUser     = "user_id"
	sessionKeyIssuedAt = "issued_at"
)

// ContextUserKey は、RequireLogin が gin.Context にログイン済みユーザーIDを置くキーです。
const ContextUserKey = "auth.userID"

// SessionUserID はセッションに保存されたユーザーIDを返します。
// 未ログイン（匿名セッション）なら false です。
func SessionUserID(session sessions.Session) (string, bool) {
	id, ok := session.Get(sessionKeyUser).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// startSession はログイン成功時にユーザーIDをセッションへ保存します。
func startSession(session sessions.Session, userID string) error {
	session.Set(sessionKeyUser, userID)
	return session.Save()
}

// destroySession はセッションを破棄します。
// 値を消したうえで MaxAge を負にして保存し、ストア側のレコードとクッキーを削除します。
func destroySession(session sessions.Session) error {
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	return session.Save()
}
