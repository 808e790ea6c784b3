package testutil

import (
	"context"
	"time"

	"github.com/factusapp/factusapp/internal/domain/invoice"
	ierr "github.com/factusapp/factusapp/internal/errors"
	"github.com/factusapp/factusapp/internal/types"
	"github.com/samber/lo"
)

// InMemoryInvoiceStore implements invoice.Repository
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]
}

func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore(func(inv *invoice.Invoice) *invoice.Invoice { return inv.Copy() }),
	}
}

func invoiceFilterFn(ctx context.Context, inv *invoice.Invoice, filter interface{}) bool {
	f, ok := filter.(*types.InvoiceFilter)
	if !ok || f == nil {
		return true
	}
	if f.OwnerID != "" && inv.OwnerID != f.OwnerID {
		return false
	}
	if f.CustomerID != "" && lo.FromPtr(inv.CustomerID) != f.CustomerID {
		return false
	}
	if len(f.Status) > 0 && !lo.Contains(f.Status, inv.Status) {
		return false
	}
	return true
}

func invoiceSortFn(i, j *invoice.Invoice) bool {
	if i.CreatedAt.Equal(j.CreatedAt) {
		return i.ID > j.ID
	}
	return i.CreatedAt.After(j.CreatedAt)
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	if inv.Version == 0 {
		inv.Version = 1
	}
	for _, item := range inv.Items {
		item.InvoiceID = inv.ID
	}
	return s.InMemoryStore.Create(ctx, inv.ID, inv)
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	return s.InMemoryStore.Get(ctx, id)
}

// Update mirrors the version check of the SQL store. Items are kept as stored.
func (s *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	err := s.InMemoryStore.Mutate(ctx, inv.ID, func(current *invoice.Invoice) (*invoice.Invoice, error) {
		if current.Version != inv.Version {
			return nil, ierr.NewError("invoice was modified concurrently").
				WithHint("The invoice was changed by another request, reload it and try again").
				Mark(ierr.ErrVersionConflict)
		}
		next := inv.Copy()
		next.Items = current.Items
		next.Version = current.Version + 1
		next.UpdatedAt = time.Now().UTC()
		return next, nil
	})
	if err != nil {
		return err
	}
	inv.Version++
	return nil
}

func (s *InMemoryInvoiceStore) Delete(ctx context.Context, id string) error {
	return s.InMemoryStore.Delete(ctx, id)
}

func (s *InMemoryInvoiceStore) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	items, err := s.InMemoryStore.List(ctx, filter, invoiceFilterFn, invoiceSortFn)
	if err != nil {
		return nil, err
	}
	return paginate(items, filter.GetLimit(), filter.GetOffset()), nil
}

func (s *InMemoryInvoiceStore) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, invoiceFilterFn)
}
