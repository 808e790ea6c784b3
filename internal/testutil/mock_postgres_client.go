package testutil

import (
	"context"
	"sync"

	"github.com/factusapp/factusapp/internal/logger"
	"github.com/factusapp/factusapp/internal/postgres"
)

var _ postgres.IClient = (*MockPostgresClient)(nil)

type mockTxKey struct{}

// MockPostgresClient emulates transactions over in-memory stores: the stores
// are snapshotted when a transaction starts and restored when it fails.
// Top level transactions are serialized like row locks would.
type MockPostgresClient struct {
	mu     sync.Mutex
	stores []Snapshotter
	logger *logger.Logger
}

// NewMockPostgresClient creates a mock client rolling back the given stores
func NewMockPostgresClient(logger *logger.Logger, stores ...Snapshotter) *MockPostgresClient {
	return &MockPostgresClient{
		stores: stores,
		logger: logger,
	}
}

// WithTx executes fn and undoes every store change when it fails
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	if ctx.Value(mockTxKey{}) == nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		ctx = context.WithValue(ctx, mockTxKey{}, true)
	}

	restores := make([]func(), 0, len(c.stores))
	for _, s := range c.stores {
		restores = append(restores, s.Snapshot())
	}

	if err := fn(ctx); err != nil {
		for _, restore := range restores {
			restore()
		}
		c.logger.Debugw("mock transaction rolled back", "error", err)
		return err
	}
	return nil
}
