package product

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, product *Product) error
	Get(ctx context.Context, id string) (*Product, error)
	// DecrementStock takes qty units from stock and fails with
	// ErrInsufficientStock when the result would be negative
	DecrementStock(ctx context.Context, id string, qty int) error
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}
