package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/booktrack/booktrack-go/internal/apperr"
	"github.com/booktrack/booktrack-go/internal/crypto"
	"github.com/booktrack/booktrack-go/internal/repository"
)

const testSecret = "test-secret"

type testEnv struct {
	auth  *AuthService
	books *BookService
	users *repository.UserRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "service.db")
	require.NoError(t, repository.Migrate(repository.DriverSQLite, dsn))

	db, err := repository.NewDB(context.Background(), repository.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	hasher, err := crypto.NewPasswordHasher(crypto.HashParams{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	require.NoError(t, err)

	users := repository.NewUserRepository(db)

	return &testEnv{
		auth:  NewAuthService(users, hasher, testSecret, time.Hour),
		books: NewBookService(repository.NewBookRepository(db)),
		users: users,
	}
}

// registerUser signs up a user and returns its id.
func (e *testEnv) registerUser(t *testing.T, email string) string {
	t.Helper()

	resp, err := e.auth.Register(context.Background(), validSignup(email))
	require.NoError(t, err)
	return resp.User.ID
}

func requireKind(t *testing.T, err error, kind apperr.Kind, msg string) {
	t.Helper()

	require.Error(t, err)
	require.Equal(t, kind, apperr.KindOf(err), "error: %v", err)
	if msg != "" {
		require.Equal(t, msg, apperr.From(err).Message)
	}
}

func strPtr(s string) *string { return &s }
