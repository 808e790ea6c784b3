package testutil

import (
	"context"
	"sort"
	"sync"

	ierr "github.com/factusapp/factusapp/internal/errors"
)

// FilterFunc is a generic filter function type
type FilterFunc[T any] func(ctx context.Context, item T, filter interface{}) bool

// SortFunc is a generic sort function type
type SortFunc[T any] func(i, j T) bool

// Snapshotter is implemented by stores that take part in mock transactions
type Snapshotter interface {
	// Snapshot captures the current contents and returns a function restoring them
	Snapshot() (restore func())
}

// InMemoryStore implements a generic in-memory store. Items are copied on the
// way in and out so callers never share memory with the store.
type InMemoryStore[T any] struct {
	mu     sync.RWMutex
	items  map[string]T
	copyFn func(T) T
}

// NewInMemoryStore creates a new InMemoryStore using copyFn to clone items
func NewInMemoryStore[T any](copyFn func(T) T) *InMemoryStore[T] {
	return &InMemoryStore[T]{
		items:  make(map[string]T),
		copyFn: copyFn,
	}
}

// Create adds a new item to the store
func (s *InMemoryStore[T]) Create(ctx context.Context, id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; exists {
		return ierr.NewError("item already exists").
			WithHintf("An item with id %s already exists", id).
			Mark(ierr.ErrValidation)
	}

	s.items[id] = s.copyFn(item)
	return nil
}

// Get retrieves an item by ID
func (s *InMemoryStore[T]) Get(ctx context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, exists := s.items[id]; exists {
		return s.copyFn(item), nil
	}

	var zero T
	return zero, notFound(id)
}

// List retrieves the items accepted by filterFn, ordered by sortFn
func (s *InMemoryStore[T]) List(ctx context.Context, filter interface{}, filterFn FilterFunc[T], sortFn SortFunc[T]) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]T, 0, len(s.items))
	for _, item := range s.items {
		if filterFn == nil || filterFn(ctx, item, filter) {
			result = append(result, s.copyFn(item))
		}
	}

	if sortFn != nil {
		sort.Slice(result, func(i, j int) bool {
			return sortFn(result[i], result[j])
		})
	}
	return result, nil
}

// Count returns the total number of items matching the filter
func (s *InMemoryStore[T]) Count(ctx context.Context, filter interface{}, filterFn FilterFunc[T]) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, item := range s.items {
		if filterFn == nil || filterFn(ctx, item, filter) {
			count++
		}
	}
	return count, nil
}

// Update replaces an existing item
func (s *InMemoryStore[T]) Update(ctx context.Context, id string, item T) error {
	return s.Mutate(ctx, id, func(T) (T, error) { return item, nil })
}

// Mutate atomically replaces the item with the result of fn. Nothing is
// written when fn fails.
func (s *InMemoryStore[T]) Mutate(ctx context.Context, id string, fn func(current T) (T, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.items[id]
	if !exists {
		return notFound(id)
	}
	next, err := fn(s.copyFn(current))
	if err != nil {
		return err
	}
	s.items[id] = s.copyFn(next)
	return nil
}

// MutateAll applies fn to every item and returns how many fn reported as changed
func (s *InMemoryStore[T]) MutateAll(ctx context.Context, fn func(item T) (T, bool)) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for id, item := range s.items {
		if next, ok := fn(s.copyFn(item)); ok {
			s.items[id] = s.copyFn(next)
			changed++
		}
	}
	return changed
}

// Delete removes an item from the store
func (s *InMemoryStore[T]) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		return notFound(id)
	}
	delete(s.items, id)
	return nil
}

// Clear removes all items from the store
func (s *InMemoryStore[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T)
}

func (s *InMemoryStore[T]) Snapshot() func() {
	s.mu.RLock()
	saved := make(map[string]T, len(s.items))
	for id, item := range s.items {
		saved[id] = s.copyFn(item)
	}
	s.mu.RUnlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.items = saved
	}
}

// paginate applies limit and offset to an already filtered slice
func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func notFound(id string) error {
	return ierr.NewError("item not found").
		WithHintf("No item with id %s", id).
		Mark(ierr.ErrNotFound)
}
