package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/social-sync/internal/apperror"
	"github.com/sakif/social-sync/internal/model"
	"github.com/sakif/social-sync/internal/repository"
)

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

// UserStore reads and writes the users table.
type UserStore struct {
	conn *sql.DB
}

const userColumns = `id, username, email, password, created_at`

// Create inserts a new user and fills in ID and CreatedAt.
//
// The service checks for duplicates first, but two concurrent registrations
// can still race past that check. The UNIQUE columns catch the loser, and we
// translate the constraint error into the same validation error.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	user.CreatedAt = time.Now().UTC()

	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (username, email, password, created_at) VALUES (?, ?, ?, ?)`,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "users.email") {
				return apperror.ValidationFailed("email", "Email already in use")
			}
			return apperror.ValidationFailed("username", "Username already exists")
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	user.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading user id: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, apperror.NotFound("user", id), "getting user %d", id)
	}
	return u, nil
}

// GetByUsername matches case-insensitively (the column is COLLATE NOCASE).
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)

	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, apperror.NotFound("user", username), "getting user %q", username)
	}
	return u, nil
}

// GetByEmail matches case-insensitively (the column is COLLATE NOCASE).
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)

	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, apperror.NotFound("user", email), "getting user by email")
	}
	return u, nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
