package guard

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d := rl.Check(ctx, "test-key")
		assert.True(t, d.Allowed, "attempt %d should be allowed", i+1)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	ctx := context.Background()

	rl.Check(ctx, "test-key")
	rl.Check(ctx, "test-key")
	d := rl.Check(ctx, "test-key")

	assert.False(t, d.Allowed)
	assert.GreaterOrEqual(t, d.RetryAfterSec, int64(1))
	assert.LessOrEqual(t, d.RetryAfterSec, int64(60))
}

func TestRateLimiter_SeparateKeys(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	ctx := context.Background()

	d1 := rl.Check(ctx, "key-a")
	d2 := rl.Check(ctx, "key-b")

	assert.True(t, d1.Allowed)
	assert.True(t, d2.Allowed)
}

func TestRateLimiter_WindowResets(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	ctx := context.Background()

	now := time.UnixMilli(1_700_000_000_000)
	rl.nowFn = func() time.Time { return now }

	require.True(t, rl.Check(ctx, "k").Allowed)
	require.False(t, rl.Check(ctx, "k").Allowed)

	// One millisecond before the window ends the key is still blocked.
	now = now.Add(time.Minute - time.Millisecond)
	assert.False(t, rl.Check(ctx, "k").Allowed)

	// At the window boundary a fresh window starts.
	now = now.Add(time.Millisecond)
	assert.True(t, rl.Check(ctx, "k").Allowed)
}

func TestRateLimiter_RetryAfterCeils(t *testing.T) {
	rl := NewRateLimiter(1, 60*time.Second)
	ctx := context.Background()

	now := time.UnixMilli(1_700_000_000_000)
	rl.nowFn = func() time.Time { return now }

	rl.Check(ctx, "k")

	// 100ms into the window: 59.9s remain, reported as 60.
	now = now.Add(100 * time.Millisecond)
	d := rl.Check(ctx, "k")
	require.False(t, d.Allowed)
	assert.Equal(t, int64(60), d.RetryAfterSec)

	// 59.5s in: 0.5s remains, still reported as a full second.
	now = now.Add(59*time.Second + 400*time.Millisecond)
	d = rl.Check(ctx, "k")
	require.False(t, d.Allowed)
	assert.Equal(t, int64(1), d.RetryAfterSec)
}

func TestRateLimiter_OverLimitAttemptsStillCount(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	ctx := context.Background()

	now := time.UnixMilli(1_700_000_000_000)
	rl.nowFn = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		rl.Check(ctx, "k")
	}
	d := rl.Check(ctx, "k")
	assert.False(t, d.Allowed)
}

func TestRateLimiter_SweepEvictsExpired(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	ctx := context.Background()

	now := time.UnixMilli(1_700_000_000_000)
	rl.nowFn = func() time.Time { return now }

	rl.Check(ctx, "a")
	rl.Check(ctx, "b")
	rl.Check(ctx, "c")
	require.Equal(t, 3, rl.trackedKeys())

	// Nothing has expired yet.
	rl.sweep()
	assert.Equal(t, 3, rl.trackedKeys())

	now = now.Add(time.Minute)
	rl.Check(ctx, "d")
	rl.sweep()
	assert.Equal(t, 1, rl.trackedKeys(), "only the fresh key survives")
}

func TestRateLimiter_ConcurrentChecks(t *testing.T) {
	rl := NewRateLimiter(50, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	allowed := make([]bool, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			allowed[i] = rl.Check(ctx, "shared").Allowed
		}(i)
	}
	wg.Wait()

	count := 0
	for _, ok := range allowed {
		if ok {
			count++
		}
	}
	assert.Equal(t, 50, count, "exactly the limit is admitted")
}

func TestRateLimiter_ManyKeysIndependent(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		d := rl.Check(ctx, fmt.Sprintf("ip-%d", i))
		assert.True(t, d.Allowed)
	}
	assert.Equal(t, 20, rl.trackedKeys())
}
