package driven

import (
	"context"
	"time"

	"github.com/ericfisherdev/gatekeep/internal/domain/model"
)

// UserStore defines the driven port for user account persistence.
// Lookups return (nil, nil) when no account matches.
type UserStore interface {
	// Create inserts a new account. A unique-constraint violation is reported
	// as model.ErrDuplicateUsername or model.ErrDuplicateEmail.
	Create(ctx context.Context, user model.UserAccount) error

	GetByID(ctx context.Context, id string) (*model.UserAccount, error)
	GetByUsername(ctx context.Context, username string) (*model.UserAccount, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	// TouchLastAccess stamps the account's last successful login.
	// Returns model.ErrNotFound for an unknown id.
	TouchLastAccess(ctx context.Context, id string, at time.Time) error
}

// RoleStore defines the driven port for roles.
type RoleStore interface {
	// GetByID returns (nil, nil) when the role does not exist.
	GetByID(ctx context.Context, id int64) (*model.Role, error)
	Add(ctx context.Context, role model.Role) (model.Role, error)
	ListAll(ctx context.Context) ([]model.Role, error)
}
