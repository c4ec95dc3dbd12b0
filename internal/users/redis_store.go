package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	userKeyPrefix  = "user:"
	emailKeyPrefix = "user:email:"
)

// RedisStore はユーザー情報を Redis に保存します。
//
// user:<id> にレコード本体（JSON）、user:email:<email> に ID を置きます。
// メールアドレスの一意性は Lua スクリプト内の SETNX で確保し、本体と同時に書き込みます。
type RedisStore struct {
	rdb *redis.Client
}

// createScript はメールアドレスの確保と本体の保存を一度に行います。
// 確保済みなら何も書かずに 0 を返します。
var createScript = redis.NewScript(`
if redis.call("SETNX", KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call("SET", KEYS[2], ARGV[2])
return 1
`)

// releaseEmailScript は索引がまだ ARGV[1] を指している場合だけ削除します。
var releaseEmailScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewRedisStore は RedisStore を作成します。
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// record は Redis に保存する形式です。
type record struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (s *RedisStore) Create(ctx context.Context, user *User) error {
	if user == nil {
		return fmt.Errorf("user is nil")
	}
	prepare(user)

	payload, err := json.Marshal(record(*user))
	if err != nil {
		return err
	}

	created, err := createScript.Run(ctx, s.rdb,
		[]string{emailKey(user.Email), userKey(user.ID)},
		user.ID, payload,
	).Int()
	if err != nil {
		return err
	}
	if created == 0 {
		return ErrDuplicateEmail
	}
	return nil
}

// FindByEmail はメールアドレスの索引から ID を引き、レコード本体を返します。
// 本体のない索引は掃除して ErrNotFound を返します。
func (s *RedisStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	id, err := s.rdb.Get(ctx, emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	user, err := s.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		if delErr := releaseEmailScript.Run(ctx, s.rdb, []string{emailKey(email)}, id).Err(); delErr != nil {
			return nil, delErr
		}
	}
	return user, err
}

func (s *RedisStore) FindByID(ctx context.Context, id string) (*User, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	data, err := s.rdb.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	user := User(rec)
	return &user, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	tx := s.rdb.TxPipeline()
	tx.Del(ctx, userKey(user.ID))
	tx.Del(ctx, emailKey(user.Email))
	_, err = tx.Exec(ctx)
	return err
}

func userKey(id string) string {
	return userKeyPrefix + id
}

func emailKey(email string) string {
	return emailKeyPrefix + email
}
