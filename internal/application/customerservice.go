package application

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/gatekeep/internal/domain/model"
	"github.com/ericfisherdev/gatekeep/internal/domain/port/driven"
)

// CustomerService implements customer use cases on top of the CustomerStore.
type CustomerService struct {
	customers driven.CustomerStore
}

// NewCustomerService creates a CustomerService.
func NewCustomerService(customers driven.CustomerStore) *CustomerService {
	return &CustomerService{customers: customers}
}

// List returns one page of customers filtered by req.Query.
func (s *CustomerService) List(ctx context.Context, req model.PageRequest) (model.Page[model.Customer], error) {
	return s.customers.List(ctx, req)
}

// Get returns the customer or model.ErrNotFound.
func (s *CustomerService) Get(ctx context.Context, id int64) (model.Customer, error) {
	c, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return model.Customer{}, err
	}
	if c == nil {
		return model.Customer{}, fmt.Errorf("customer %d: %w", id, model.ErrNotFound)
	}
	return *c, nil
}

// Create stores a new customer. Any id on the input is ignored.
func (s *CustomerService) Create(ctx context.Context, c model.Customer) (model.Customer, error) {
	c.ID = 0
	return s.customers.Create(ctx, c)
}

// Update replaces customer id with incoming. It returns model.ErrNoChanges
// when incoming is identical to the stored record.
func (s *CustomerService) Update(ctx context.Context, id int64, incoming model.Customer) (model.Customer, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return model.Customer{}, err
	}

	incoming.ID = id
	updated, diff, err := ApplyUpdate(ctx, existing, incoming, s.customers.Update)
	if err != nil {
		return model.Customer{}, err
	}
	if !diff.Changed {
		return model.Customer{}, model.ErrNoChanges
	}

	return updated, nil
}

// Delete removes the customer and its posts.
func (s *CustomerService) Delete(ctx context.Context, id int64) error {
	return s.customers.Delete(ctx, id)
}
