package cache_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/hookrelay/pkg/cache"
)

func TestLRUCache_PutGet(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[string, int](2)

	prev, existed := c.Put("a", 1)
	assert.False(t, existed)
	assert.Zero(t, prev)

	prev, existed = c.Put("a", 10)
	assert.True(t, existed)
	assert.Equal(t, 1, prev)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[string, int](2)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")
	c.Put("c", 3)

	assert.Equal(t, 2, c.Len())

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestLRUCache_RemoveAndClear(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[string, int](4)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	v, ok := c.Remove("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Remove("a")
	assert.False(t, ok)

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestLRUCache_GetValid(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[string, int](4)
	c.Put("fresh", 1)
	c.Put("stale", -1)

	positive := func(v int) bool { return v > 0 }

	v, ok := c.GetValid("fresh", positive)
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.GetValid("stale", positive)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len(), "rejected entries are dropped")

	_, ok = c.GetValid("missing", positive)
	assert.False(t, ok)
}

func TestLRUCache_InvalidCapacityPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { cache.NewLRUCache[string, int](0) })
	assert.Panics(t, func() { cache.NewLRUCache[string, int](-1) })
}

func TestLRUCache_Concurrent(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[string, int](50)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				key := fmt.Sprintf("shard-%d", (g*200+i)%100)
				c.Put(key, i)
				c.Get(key)
				if i%10 == 0 {
					c.Remove(key)
				}
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 50)
}
