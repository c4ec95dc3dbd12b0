package auth

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/sessionauth/internal/metrics"
	"github.com/yourusername/sessionauth/internal/users"
)

// failingStore は常にストア障害を返すユーザーストアです。
type failingStore struct {
	err error
}

func (s *failingStore) Create(ctx context.Context, user *users.User) error { return s.err }
func (s *failingStore) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	return nil, s.err
}
func (s *failingStore) FindByID(ctx context.Context, id string) (*users.User, error) {
	return nil, s.err
}

func newTestLogger() (*logrus.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})
	return logger, &buf
}

func newTestService(t *testing.T, store users.Store) (*Service, *metrics.Metrics, *bytes.Buffer) {
	t.Helper()
	logger, buf := newTestLogger()
	m := metrics.New()
	return NewService(store, NewBcryptHasher(bcrypt.MinCost), logger, m), m, buf
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	store := users.NewMemoryStore()
	svc, m, _ := newTestService(t, store)

	id, err := svc.Register(ctx, "alice", "a@x.com", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	stored, err := store.FindByID(ctx, id)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)

	loginID, err := svc.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, id, loginID)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Registrations.WithLabelValues(metrics.ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Logins.WithLabelValues(metrics.ResultSuccess)))
}

func TestRegisterTrimsEmail(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, users.NewMemoryStore())

	id, err := svc.Register(ctx, "alice", "  a@x.com ", "secret1")
	require.NoError(t, err)

	loginID, err := svc.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, id, loginID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store := users.NewMemoryStore()
	svc, m, _ := newTestService(t, store)

	firstID, err := svc.Register(ctx, "alice", "a@x.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice-again", "a@x.com", "other")
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	// 元のユーザーは上書きされていない
	loginID, err := svc.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, firstID, loginID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Registrations.WithLabelValues(metrics.ResultDuplicateEmail)))
}

func TestRegisterConcurrentDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, users.NewMemoryStore())

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(ctx, "alice", "race@x.com", "secret1")
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDuplicateEmail):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, dup)
}

func TestRegisterInvalidInput(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, users.NewMemoryStore())

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "empty email", email: "", password: "secret1"},
		{name: "blank email", email: "   ", password: "secret1"},
		{name: "empty password", email: "a@x.com", password: ""},
		{name: "password over bcrypt limit", email: "a@x.com", password: string(bytes.Repeat([]byte("x"), 73))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, "alice", tt.email, tt.password)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRegisterNeverLogsPassword(t *testing.T) {
	ctx := context.Background()
	svc, _, logs := newTestService(t, users.NewMemoryStore())

	_, err := svc.Register(ctx, "alice", "a@x.com", "hunter2-secret")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "a@x.com", "wrong-hunter2")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	assert.NotContains(t, logs.String(), "hunter2")
	assert.NotContains(t, logs.String(), "$2a$")
}

func TestLoginErrors(t *testing.T) {
	ctx := context.Background()
	svc, m, _ := newTestService(t, users.NewMemoryStore())

	_, err := svc.Register(ctx, "alice", "a@x.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "nobody@x.com", "secret1")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Login(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.NotErrorIs(t, err, ErrUserNotFound)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Logins.WithLabelValues(metrics.ResultUserNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Logins.WithLabelValues(metrics.ResultInvalidCredentials)))
}

func TestStorageErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")
	svc, _, _ := newTestService(t, &failingStore{err: boom})

	_, err := svc.Register(ctx, "alice", "a@x.com", "secret1")
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, boom)

	_, err = svc.Login(ctx, "a@x.com", "secret1")
	assert.ErrorIs(t, err, ErrStorage)
	assert.NotErrorIs(t, err, ErrUserNotFound)

	_, err = svc.User(ctx, "id")
	assert.ErrorIs(t, err, ErrStorage)
}

func TestUserDangling(t *testing.T) {
	ctx := context.Background()
	store := users.NewMemoryStore()
	svc, _, _ := newTestService(t, store)

	id, err := svc.Register(ctx, "alice", "a@x.com", "secret1")
	require.NoError(t, err)

	user, err := svc.User(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	require.NoError(t, store.Delete(ctx, id))
	_, err = svc.User(ctx, id)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
