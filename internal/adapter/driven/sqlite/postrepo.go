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
var _ driven.PostStore = (*PostRepo)(nil)

// PostRepo is the SQLite implementation of the PostStore port interface.
type PostRepo struct {
	db *DB
}

// NewPostRepo creates a new PostRepo backed by the given DB.
func NewPostRepo(db *DB) *PostRepo {
	return &PostRepo{db: db}
}

const postColumns = `id, title, body, type, category, customer_id`

// Create inserts a post and returns it with its generated id.
func (r *PostRepo) Create(ctx context.Context, post model.Post) (model.Post, error) {
	const query = `INSERT INTO posts (title, body, type, category, customer_id) VALUES (?, ?, ?, ?, ?)`

	res, err := r.db.Writer.ExecContext(ctx, query, post.Title, post.Body, int(post.Type), post.Category, post.CustomerID)
	if err != nil {
		return model.Post{}, fmt.Errorf("create post: %w", err)
	}

	post.ID, err = res.LastInsertId()
	if err != nil {
		return model.Post{}, fmt.Errorf("last insert id: %w", err)
	}

	return post, nil
}

// GetByID returns the post, or (nil, nil) if it does not exist.
func (r *PostRepo) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	const query = `SELECT ` + postColumns + ` FROM posts WHERE id = ?`

	post, err := scanPost(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}

	return &post, nil
}

// List returns one page of posts whose title contains req.Query, ordered by id.
func (r *PostRepo) List(ctx context.Context, req model.PageRequest) (model.Page[model.Post], error) {
	const countQuery = `SELECT COUNT(*) FROM posts WHERE title LIKE ? ESCAPE '\'`
	const listQuery = `SELECT ` + postColumns + ` FROM posts WHERE title LIKE ? ESCAPE '\' ORDER BY id LIMIT ? OFFSET ?`

	pattern := likePattern(req.Query)
	page := model.Page[model.Post]{Items: []model.Post{}, Page: req.Page, PageSize: req.PageSize}

	if err := r.db.Reader.QueryRowContext(ctx, countQuery, pattern).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("count posts: %w", err)
	}

	posts, err := r.query(ctx, listQuery, pattern, req.PageSize, req.Offset())
	if err != nil {
		return page, err
	}
	page.Items = append(page.Items, posts...)

	return page, nil
}

// Search returns posts whose title or body contains term, ordered by id.
func (r *PostRepo) Search(ctx context.Context, term string) ([]model.Post, error) {
	const query = `SELECT ` + postColumns + ` FROM posts
		WHERE title LIKE ? ESCAPE '\' OR body LIKE ? ESCAPE '\'
		ORDER BY id`

	pattern := likePattern(term)
	return r.query(ctx, query, pattern, pattern)
}

// ListByCustomer returns the customer's posts ordered by id.
func (r *PostRepo) ListByCustomer(ctx context.Context, customerID int64) ([]model.Post, error) {
	const query = `SELECT ` + postColumns + ` FROM posts WHERE customer_id = ? ORDER BY id`
	return r.query(ctx, query, customerID)
}

// Update replaces every column of the post row.
func (r *PostRepo) Update(ctx context.Context, post model.Post) error {
	const query = `UPDATE posts SET title = ?, body = ?, type = ?, category = ?, customer_id = ? WHERE id = ?`
	return execAffectingOne(ctx, r.db, query, fmt.Sprintf("post %d", post.ID),
		post.Title, post.Body, int(post.Type), post.Category, post.CustomerID, post.ID)
}

// Delete removes the post.
func (r *PostRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM posts WHERE id = ?`
	return execAffectingOne(ctx, r.db, query, fmt.Sprintf("post %d", id), id)
}

func (r *PostRepo) query(ctx context.Context, query string, args ...any) ([]model.Post, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	return posts, nil
}

func scanPost(row rowScanner) (model.Post, error) {
	var (
		post     model.Post
		postType int
	)
	if err := row.Scan(&post.ID, &post.Title, &post.Body, &postType, &post.Category, &post.CustomerID); err != nil {
		return model.Post{}, err
	}
	post.Type = model.PostType(postType)
	return post, nil
}
