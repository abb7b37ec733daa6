package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/booktrack/booktrack-go/internal/crypto"
	"github.com/booktrack/booktrack-go/internal/model"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

const userColumns = `id, name, email, password_hash, created_at, updated_at`

// UserRepository handles user persistence operations.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user, assigning its ID and timestamps.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	now := now()
	user.ID = crypto.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	return classify(err, ErrDuplicateEmail)
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	if !crypto.IsValidObjectID(id) {
		return nil, ErrInvalidID
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// Update saves the user's name and email. The caller is expected to have loaded the user first.
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = now()

	query := `UPDATE users SET name = ?, email = ?, updated_at = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, user.Name, user.Email, user.UpdatedAt, user.ID)
	return classify(err, ErrDuplicateEmail)
}

func (r *UserRepository) scanOne(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

// now returns the current time at the precision the schema stores.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
