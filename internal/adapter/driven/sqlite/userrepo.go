package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/gatekeep/internal/domain/model"
	"github.com/ericfisherdev/gatekeep/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.UserStore = (*UserRepo)(nil)

// UserRepo is the SQLite implementation of the UserStore port interface.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo backed by the given DB.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, username, email, first_name, last_name, password_digest, role_id, active, created_at, last_access_at`

// Create inserts a new account. The UNIQUE constraints on username and email
// are the final arbiter for concurrent registrations.
func (r *UserRepo) Create(ctx context.Context, user model.UserAccount) error {
	const query = `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var lastAccess any
	if user.LastAccessAt != nil {
		lastAccess = formatTime(*user.LastAccessAt)
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordDigest,
		user.RoleID,
		boolToInt(user.Active),
		formatTime(user.CreatedAt),
		lastAccess,
	)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err, "users.username"):
		return fmt.Errorf("create user %q: %w", user.Username, model.ErrDuplicateUsername)
	case isUniqueViolation(err, "users.email"):
		return fmt.Errorf("create user %q: %w", user.Username, model.ErrDuplicateEmail)
	default:
		return fmt.Errorf("create user %q: %w", user.Username, err)
	}
}

// GetByID returns the account with the given id, or (nil, nil) if absent.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.UserAccount, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.getOne(ctx, query, id)
}

// GetByUsername returns the account with the given username, or (nil, nil) if absent.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.UserAccount, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return r.getOne(ctx, query, username)
}

// UsernameExists reports whether any account uses username.
func (r *UserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username)
}

// EmailExists reports whether any account uses email.
func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email)
}

// TouchLastAccess stamps last_access_at for the account.
func (r *UserRepo) TouchLastAccess(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE users SET last_access_at = ? WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("touch last access for %q: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %q: %w", id, model.ErrNotFound)
	}

	return nil
}

func (r *UserRepo) exists(ctx context.Context, query string, arg string) (bool, error) {
	var found int
	if err := r.db.Reader.QueryRowContext(ctx, query, arg).Scan(&found); err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return found == 1, nil
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg string) (*model.UserAccount, error) {
	var (
		user       model.UserAccount
		active     int
		createdAt  string
		lastAccess sql.NullString
	)

	err := r.db.Reader.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordDigest,
		&user.RoleID,
		&active,
		&createdAt,
		&lastAccess,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	user.Active = active != 0

	user.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	if lastAccess.Valid {
		t, err := parseTime(lastAccess.String)
		if err != nil {
			return nil, fmt.Errorf("parse last_access_at: %w", err)
		}
		user.LastAccessAt = &t
	}

	return &user, nil
}
