package sources

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	t.Run("first request is allowed immediately", func(t *testing.T) {
		rl := NewRateLimiter(time.Hour)
		assert.True(t, rl.Allow())
	})

	t.Run("second request within the interval is denied", func(t *testing.T) {
		rl := NewRateLimiter(time.Hour)
		require.True(t, rl.Allow())
		assert.False(t, rl.Allow())
	})

	t.Run("zero interval means unlimited", func(t *testing.T) {
		rl := NewRateLimiter(0)
		for i := 0; i < 100; i++ {
			assert.True(t, rl.Allow())
		}
	})

	t.Run("wait honors context cancellation", func(t *testing.T) {
		rl := NewRateLimiter(time.Hour)
		require.True(t, rl.Allow())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		err := rl.Wait(ctx)
		assert.Error(t, err)
	})

	t.Run("wait allows spaced requests", func(t *testing.T) {
		rl := NewRateLimiter(5 * time.Millisecond)

		start := time.Now()
		for i := 0; i < 3; i++ {
			require.NoError(t, rl.Wait(context.Background()))
		}
		// Two intervals must have elapsed for three serialized requests.
		assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	})

	t.Run("set interval loosens the limit", func(t *testing.T) {
		rl := NewRateLimiter(time.Hour)
		require.True(t, rl.Allow())
		require.False(t, rl.Allow())

		rl.SetInterval(0)
		assert.True(t, rl.Allow())
	})
}
