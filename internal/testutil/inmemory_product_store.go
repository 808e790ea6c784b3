package testutil

import (
	"context"

	"github.com/factusapp/factusapp/internal/domain/product"
	ierr "github.com/factusapp/factusapp/internal/errors"
)

// InMemoryProductStore implements product.Repository
type InMemoryProductStore struct {
	*InMemoryStore[*product.Product]
}

func NewInMemoryProductStore() *InMemoryProductStore {
	return &InMemoryProductStore{
		InMemoryStore: NewInMemoryStore(func(p *product.Product) *product.Product {
			out := *p
			return &out
		}),
	}
}

func (s *InMemoryProductStore) Create(ctx context.Context, p *product.Product) error {
	return s.InMemoryStore.Create(ctx, p.ID, p)
}

func (s *InMemoryProductStore) Get(ctx context.Context, id string) (*product.Product, error) {
	return s.InMemoryStore.Get(ctx, id)
}

func (s *InMemoryProductStore) DecrementStock(ctx context.Context, id string, qty int) error {
	return s.InMemoryStore.Mutate(ctx, id, func(p *product.Product) (*product.Product, error) {
		if !p.HasStock(qty) {
			return nil, ierr.NewError("insufficient stock").
				WithHintf("Insufficient stock for %s: %d available, %d requested", p.Name, p.Stock, qty).
				Mark(ierr.ErrInsufficientStock)
		}
		p.Stock -= qty
		return p, nil
	})
}

func (s *InMemoryProductStore) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	return s.InMemoryStore.Count(ctx, ownerID, func(_ context.Context, p *product.Product, filter interface{}) bool {
		return p.OwnerID == filter.(string)
	})
}
