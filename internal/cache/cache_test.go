package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
	store := NewMemory(5*time.Minute, clock)

	require.NoError(t, store.Set(ctx, "sizes", map[string]int{"Wall Clocks": 2}))

	var got map[string]int
	hit, err := store.Get(ctx, "sizes", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 2, got["Wall Clocks"])

	clock.Advance(4*time.Minute + 59*time.Second)
	hit, _ = store.Get(ctx, "sizes", &got)
	assert.True(t, hit)

	clock.Advance(time.Second)
	hit, err = store.Get(ctx, "sizes", &got)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryDeleteInvalidates(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(time.Minute, nil)

	require.NoError(t, store.Set(ctx, "a", "x"))
	require.NoError(t, store.Set(ctx, "b", "y"))
	require.NoError(t, store.Delete(ctx, "a", "missing"))

	var s string
	hit, _ := store.Get(ctx, "a", &s)
	assert.False(t, hit)
	hit, _ = store.Get(ctx, "b", &s)
	assert.True(t, hit)
	assert.Equal(t, "y", s)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(time.Minute, nil)

	original := []string{"Wedding", "Jewellery"}
	require.NoError(t, store.Set(ctx, "categories", original))
	original[0] = "mutated"

	var first []string
	_, err := store.Get(ctx, "categories", &first)
	require.NoError(t, err)
	first[1] = "changed"

	var second []string
	_, err = store.Get(ctx, "categories", &second)
	require.NoError(t, err)
	assert.Equal(t, []string{"Wedding", "Jewellery"}, second)
}

func TestNewMemoryDefaults(t *testing.T) {
	store := NewMemory(0, nil)
	assert.Equal(t, DefaultTTL, store.ttl)
	assert.NotNil(t, store.clock)
}
