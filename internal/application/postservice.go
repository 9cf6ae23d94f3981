package application

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/gatekeep/internal/domain/model"
	"github.com/ericfisherdev/gatekeep/internal/domain/port/driven"
)

// PostService implements post use cases. Posts are normalized with
// model.Post.Normalize before they are stored or compared.
type PostService struct {
	posts     driven.PostStore
	customers driven.CustomerStore
}

// NewPostService creates a PostService.
func NewPostService(posts driven.PostStore, customers driven.CustomerStore) *PostService {
	return &PostService{posts: posts, customers: customers}
}

// List returns one page of posts filtered by title.
func (s *PostService) List(ctx context.Context, req model.PageRequest) (model.Page[model.Post], error) {
	return s.posts.List(ctx, req)
}

// Get returns the post or model.ErrNotFound.
func (s *PostService) Get(ctx context.Context, id int64) (model.Post, error) {
	p, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return model.Post{}, err
	}
	if p == nil {
		return model.Post{}, fmt.Errorf("post %d: %w", id, model.ErrNotFound)
	}
	return *p, nil
}

// Search returns posts whose title or body contains term.
func (s *PostService) Search(ctx context.Context, term string) ([]model.Post, error) {
	return s.posts.Search(ctx, term)
}

// ListByCustomer returns the posts of an existing customer.
func (s *PostService) ListByCustomer(ctx context.Context, customerID int64) ([]model.Post, error) {
	c, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("customer %d: %w", customerID, model.ErrNotFound)
	}
	return s.posts.ListByCustomer(ctx, customerID)
}

// Create normalizes and stores a new post.
func (s *PostService) Create(ctx context.Context, p model.Post) (model.Post, error) {
	if err := s.requireCustomer(ctx, p.CustomerID); err != nil {
		return model.Post{}, err
	}

	p.ID = 0
	return s.posts.Create(ctx, p.Normalize())
}

// CreateBatch creates each post independently. A failing item is reported in
// its result and does not stop the rest.
func (s *PostService) CreateBatch(ctx context.Context, posts []model.Post) []model.BatchResult {
	results := make([]model.BatchResult, 0, len(posts))
	for i, p := range posts {
		created, err := s.Create(ctx, p)
		if err != nil {
			results = append(results, model.BatchResult{Index: i, Err: err})
			continue
		}
		results = append(results, model.BatchResult{Index: i, Post: &created})
	}
	return results
}

// Update replaces post id with the normalized incoming post. It returns
// model.ErrNoChanges when nothing differs after normalization.
func (s *PostService) Update(ctx context.Context, id int64, incoming model.Post) (model.Post, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return model.Post{}, err
	}

	if err := s.requireCustomer(ctx, incoming.CustomerID); err != nil {
		return model.Post{}, err
	}

	incoming.ID = id
	updated, diff, err := ApplyUpdate(ctx, existing, incoming.Normalize(), s.posts.Update)
	if err != nil {
		return model.Post{}, err
	}
	if !diff.Changed {
		return model.Post{}, model.ErrNoChanges
	}

	return updated, nil
}

// Delete removes the post.
func (s *PostService) Delete(ctx context.Context, id int64) error {
	return s.posts.Delete(ctx, id)
}

func (s *PostService) requireCustomer(ctx context.Context, customerID int64) error {
	if customerID <= 0 {
		return fmt.Errorf("%w: %d", model.ErrUnknownCustomer, customerID)
	}

	c, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("%w: %d", model.ErrUnknownCustomer, customerID)
	}

	return nil
}
