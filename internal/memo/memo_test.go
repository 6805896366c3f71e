package memo

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_ComputesOncePerKey(t *testing.T) {
	c := New[string, int]()
	ctx := context.Background()
	calls := 0
	compute := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}

	v1, err := c.Get(ctx, "k", compute)
	require.NoError(t, err)
	v2, err := c.Get(ctx, "k", compute)
	require.NoError(t, err)

	assert.Equal(t, 42, v1)
	assert.Equal(t, 42, v2)
	assert.Equal(t, 1, calls)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	c := New[string, int]()
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := c.Get(ctx, "k", func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	v, err := c.Get(ctx, "k", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestCache_Invalidate(t *testing.T) {
	c := New[string, int]()
	ctx := context.Background()
	calls := 0
	compute := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}

	_, _ = c.Get(ctx, "a", compute)
	_, _ = c.Get(ctx, "b", compute)
	require.Equal(t, 2, c.Len())

	c.Invalidate()
	assert.Equal(t, 0, c.Len())

	v, err := c.Get(ctx, "a", compute)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestCache_Peek(t *testing.T) {
	c := New[string, string]()
	_, ok := c.Peek("k")
	assert.False(t, ok)

	_, _ = c.Get(context.Background(), "k", func(context.Context) (string, error) { return "v", nil })

	v, ok := c.Peek("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestCache_WithLimitEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[int, int](WithLimit(2))
	ctx := context.Background()
	id := func(k int) func(context.Context) (int, error) {
		return func(context.Context) (int, error) { return k, nil }
	}

	_, _ = c.Get(ctx, 1, id(1))
	_, _ = c.Get(ctx, 2, id(2))
	_, _ = c.Get(ctx, 1, id(1))
	_, _ = c.Get(ctx, 3, id(3))

	assert.Equal(t, 2, c.Len())
	_, ok := c.Peek(2)
	assert.False(t, ok)
	_, ok = c.Peek(1)
	assert.True(t, ok)
	_, ok = c.Peek(3)
	assert.True(t, ok)
}

func TestCache_InvalidateDropsRunningResult(t *testing.T) {
	c := New[string, int]()
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan struct{})

	done := make(chan int)
	go func() {
		v, _ := c.Get(ctx, "k", func(context.Context) (int, error) {
			close(started)
			<-release
			return 1, nil
		})
		done <- v
	}()
	<-started

	c.Invalidate()
	close(release)
	assert.Equal(t, 1, <-done, "the running caller still gets its value")

	_, ok := c.Peek("k")
	assert.False(t, ok)

	v, err := c.Get(ctx, "k", func(context.Context) (int, error) { return 2, nil })
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestCache_NilInterfaceValue(t *testing.T) {
	c := New[string, error]()

	v, err := c.Get(context.Background(), "k", func(context.Context) (error, error) { return nil, nil })
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestCache_ConcurrentCallersShareComputation(t *testing.T) {
	c := New[string, int]()
	ctx := context.Background()
	var calls atomic.Int32
	release := make(chan struct{})

	compute := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 1, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Get(ctx, "k", compute)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	for calls.Load() == 0 {
		runtime.Gosched()
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, 1, v)
	}
}

func TestCache_WaiterHonoursContext(t *testing.T) {
	c := New[string, int]()
	release := make(chan struct{})
	defer close(release)

	started := make(chan struct{})
	go func() {
		_, _ = c.Get(context.Background(), "k", func(context.Context) (int, error) {
			close(started)
			<-release
			return 1, nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Get(ctx, "k", func(context.Context) (int, error) { return 2, nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, Fingerprint("a", "b"), Fingerprint("a", "b"))
	assert.NotEqual(t, Fingerprint("ab", "c"), Fingerprint("a", "bc"))
	assert.Len(t, Fingerprint("x"), 64)
}
