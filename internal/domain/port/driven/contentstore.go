package driven

import (
	"context"

	"github.com/ericfisherdev/gatekeep/internal/domain/model"
)

// CustomerStore defines the driven port for customer persistence.
// Update and Delete return model.ErrNotFound for an unknown id.
type CustomerStore interface {
	Create(ctx context.Context, customer model.Customer) (model.Customer, error)
	// GetByID returns (nil, nil) when the customer does not exist.
	GetByID(ctx context.Context, id int64) (*model.Customer, error)
	List(ctx context.Context, req model.PageRequest) (model.Page[model.Customer], error)
	Update(ctx context.Context, customer model.Customer) error
	Delete(ctx context.Context, id int64) error
}

// PostStore defines the driven port for post persistence.
// Update and Delete return model.ErrNotFound for an unknown id.
type PostStore interface {
	Create(ctx context.Context, post model.Post) (model.Post, error)
	// GetByID returns (nil, nil) when the post does not exist.
	GetByID(ctx context.Context, id int64) (*model.Post, error)
	List(ctx context.Context, req model.PageRequest) (model.Page[model.Post], error)
	Search(ctx context.Context, term string) ([]model.Post, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]model.Post, error)
	Update(ctx context.Context, post model.Post) error
	Delete(ctx context.Context, id int64) error
}
