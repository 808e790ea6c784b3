package invoice

import (
	"context"

	"github.com/factusapp/factusapp/internal/types"
)

// Repository defines the interface for invoice persistence operations
type Repository interface {
	// Create stores a new invoice together with its items
	Create(ctx context.Context, invoice *Invoice) error

	// Get retrieves an invoice by ID with its items
	Get(ctx context.Context, id string) (*Invoice, error)

	// Update persists the invoice header. It fails with ErrVersionConflict
	// when the stored version differs from invoice.Version and bumps the
	// version on success.
	Update(ctx context.Context, invoice *Invoice) error

	// Delete removes an invoice and its items
	Delete(ctx context.Context, id string) error

	// List retrieves invoices based on filter criteria, newest first
	List(ctx context.Context, filter *types.InvoiceFilter) ([]*Invoice, error)

	// Count returns the total count of invoices based on filter criteria
	Count(ctx context.Context, filter *types.InvoiceFilter) (int, error)
}
