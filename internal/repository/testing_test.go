package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/booktrack/booktrack-go/internal/model"
)

// newTestDB returns a migrated SQLite database living in the test's temp dir.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "booktrack.db")
	require.NoError(t, Migrate(DriverSQLite, dsn))

	db, err := NewDB(context.Background(), DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func createTestUser(t *testing.T, repo *UserRepository, email string) *model.User {
	t.Helper()

	u := &model.User{Name: "Reader", Email: email, PasswordHash: "$argon2id$dummy"}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}
