package testutil

import (
	"context"
	"time"

	"github.com/factusapp/factusapp/internal/domain/user"
)

// InMemoryUserStore implements user.Repository
type InMemoryUserStore struct {
	*InMemoryStore[*user.User]
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		InMemoryStore: NewInMemoryStore(copyUser),
	}
}

func copyUser(u *user.User) *user.User {
	if u == nil {
		return nil
	}
	c := *u
	if u.LastInvoiceResetDate != nil {
		t := *u.LastInvoiceResetDate
		c.LastInvoiceResetDate = &t
	}
	return &c
}

func (s *InMemoryUserStore) Create(ctx context.Context, u *user.User) error {
	return s.InMemoryStore.Create(ctx, u.ID, u)
}

func (s *InMemoryUserStore) Get(ctx context.Context, id string) (*user.User, error) {
	return s.InMemoryStore.Get(ctx, id)
}

func (s *InMemoryUserStore) Update(ctx context.Context, u *user.User) error {
	return s.InMemoryStore.Update(ctx, u.ID, u)
}

func (s *InMemoryUserStore) IncrementMonthlyInvoiceCount(ctx context.Context, id string) error {
	return s.InMemoryStore.Mutate(ctx, id, func(u *user.User) (*user.User, error) {
		u.MonthlyInvoiceCount++
		return u, nil
	})
}

func (s *InMemoryUserStore) ResetMonthlyInvoiceCounts(ctx context.Context, before time.Time) (int, error) {
	now := time.Now().UTC()
	n := s.InMemoryStore.MutateAll(ctx, func(u *user.User) (*user.User, bool) {
		if u.LastInvoiceResetDate != nil && !u.LastInvoiceResetDate.Before(before) {
			return u, false
		}
		u.MonthlyInvoiceCount = 0
		u.LastInvoiceResetDate = &now
		return u, true
	})
	return n, nil
}
