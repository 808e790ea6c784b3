package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()

	key := GenerateKey(PrefixFiscalSession, "client", "user@example.com")
	assert.Equal(t, "fiscal_session:v1::client:user@example.com", key)

	c.Set(ctx, key, "token", time.Minute)
	v, ok := c.Get(ctx, key)
	assert.True(t, ok)
	assert.Equal(t, "token", v)

	c.Set(ctx, GenerateKey(PrefixFiscalSession, "other"), "x", 0)
	c.Set(ctx, "unrelated", "y", 0)
	c.DeleteByPrefix(ctx, PrefixFiscalSession)

	_, ok = c.Get(ctx, key)
	assert.False(t, ok)
	_, ok = c.Get(ctx, "unrelated")
	assert.True(t, ok)

	c.Flush(ctx)
	_, ok = c.Get(ctx, "unrelated")
	assert.False(t, ok)
}

func TestInMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()
	c.Set(ctx, "short", 1, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	_, ok := c.Get(ctx, "short")
	assert.False(t, ok)
}
