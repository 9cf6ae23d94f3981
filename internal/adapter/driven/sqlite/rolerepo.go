package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/gatekeep/internal/domain/model"
	"github.com/ericfisherdev/gatekeep/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RoleStore = (*RoleRepo)(nil)

// RoleRepo is the SQLite implementation of the RoleStore port interface.
type RoleRepo struct {
	db *DB
}

// NewRoleRepo creates a new RoleRepo backed by the given DB.
func NewRoleRepo(db *DB) *RoleRepo {
	return &RoleRepo{db: db}
}

// GetByID returns the role, or (nil, nil) if it does not exist.
func (r *RoleRepo) GetByID(ctx context.Context, id int64) (*model.Role, error) {
	const query = `SELECT id, name, description, active, created_at FROM roles WHERE id = ?`

	role, err := scanRole(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get role %d: %w", id, err)
	}

	return &role, nil
}

// Add inserts a role and returns it with its generated id.
func (r *RoleRepo) Add(ctx context.Context, role model.Role) (model.Role, error) {
	if role.CreatedAt.IsZero() {
		role.CreatedAt = timeNow()
	}

	const query = `INSERT INTO roles (name, description, active, created_at) VALUES (?, ?, ?, ?)`
	res, err := r.db.Writer.ExecContext(ctx, query, role.Name, role.Description, boolToInt(role.Active), formatTime(role.CreatedAt))
	if err != nil {
		return model.Role{}, fmt.Errorf("add role %q: %w", role.Name, err)
	}

	role.ID, err = res.LastInsertId()
	if err != nil {
		return model.Role{}, fmt.Errorf("last insert id: %w", err)
	}

	return role, nil
}

// ListAll returns every role ordered by id.
func (r *RoleRepo) ListAll(ctx context.Context) ([]model.Role, error) {
	const query = `SELECT id, name, description, active, created_at FROM roles ORDER BY id`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}

	return roles, nil
}

func scanRole(row rowScanner) (model.Role, error) {
	var (
		role      model.Role
		active    int
		createdAt string
	)

	if err := row.Scan(&role.ID, &role.Name, &role.Description, &active, &createdAt); err != nil {
		return model.Role{}, err
	}
	role.Active = active != 0

	var err error
	role.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return model.Role{}, fmt.Errorf("parse created_at: %w", err)
	}

	return role, nil
}
