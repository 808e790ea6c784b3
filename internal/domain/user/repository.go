package user

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	// Get returns the user. Inside a transaction the row stays locked until commit.
	Get(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, user *User) error
	// IncrementMonthlyInvoiceCount adds one to the user's running monthly counter
	IncrementMonthlyInvoiceCount(ctx context.Context, id string) error
	// ResetMonthlyInvoiceCounts zeroes counters last reset before the given instant
	// and returns how many users were reset
	ResetMonthlyInvoiceCounts(ctx context.Context, before time.Time) (int, error)
}
