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
var _ driven.CustomerStore = (*CustomerRepo)(nil)

// CustomerRepo is the SQLite implementation of the CustomerStore port interface.
type CustomerRepo struct {
	db *DB
}

// NewCustomerRepo creates a new CustomerRepo backed by the given DB.
func NewCustomerRepo(db *DB) *CustomerRepo {
	return &CustomerRepo{db: db}
}

// Create inserts a customer and returns it with its generated id.
func (r *CustomerRepo) Create(ctx context.Context, customer model.Customer) (model.Customer, error) {
	const query = `INSERT INTO customers (name) VALUES (?)`

	res, err := r.db.Writer.ExecContext(ctx, query, customer.Name)
	if err != nil {
		return model.Customer{}, fmt.Errorf("create customer: %w", err)
	}

	customer.ID, err = res.LastInsertId()
	if err != nil {
		return model.Customer{}, fmt.Errorf("last insert id: %w", err)
	}

	return customer, nil
}

// GetByID returns the customer, or (nil, nil) if it does not exist.
func (r *CustomerRepo) GetByID(ctx context.Context, id int64) (*model.Customer, error) {
	const query = `SELECT id, name FROM customers WHERE id = ?`

	var c model.Customer
	err := r.db.Reader.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get customer %d: %w", id, err)
	}

	return &c, nil
}

// List returns one page of customers whose name contains req.Query, ordered by id.
func (r *CustomerRepo) List(ctx context.Context, req model.PageRequest) (model.Page[model.Customer], error) {
	const countQuery = `SELECT COUNT(*) FROM customers WHERE name LIKE ? ESCAPE '\'`
	const listQuery = `SELECT id, name FROM customers WHERE name LIKE ? ESCAPE '\' ORDER BY id LIMIT ? OFFSET ?`

	pattern := likePattern(req.Query)
	page := model.Page[model.Customer]{Items: []model.Customer{}, Page: req.Page, PageSize: req.PageSize}

	if err := r.db.Reader.QueryRowContext(ctx, countQuery, pattern).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("count customers: %w", err)
	}

	rows, err := r.db.Reader.QueryContext(ctx, listQuery, pattern, req.PageSize, req.Offset())
	if err != nil {
		return page, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return page, fmt.Errorf("scan customer: %w", err)
		}
		page.Items = append(page.Items, c)
	}
	if err := rows.Err(); err != nil {
		return page, fmt.Errorf("iterate customers: %w", err)
	}

	return page, nil
}

// Update replaces every column of the customer row.
func (r *CustomerRepo) Update(ctx context.Context, customer model.Customer) error {
	const query = `UPDATE customers SET name = ? WHERE id = ?`
	return execAffectingOne(ctx, r.db, query, fmt.Sprintf("customer %d", customer.ID), customer.Name, customer.ID)
}

// Delete removes the customer and, through the foreign key, its posts.
func (r *CustomerRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM customers WHERE id = ?`
	return execAffectingOne(ctx, r.db, query, fmt.Sprintf("customer %d", id), id)
}

// execAffectingOne runs a write that must touch a row, returning
// model.ErrNotFound when it touched none.
func execAffectingOne(ctx context.Context, db *DB, query, subject string, args ...any) error {
	result, err := db.Writer.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("write %s: %w", subject, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", subject, model.ErrNotFound)
	}

	return nil
}
