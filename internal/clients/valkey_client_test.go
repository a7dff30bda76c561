package clients

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/redditcanon/internal/models"
)

func TestRegistryKey(t *testing.T) {
	assert.Equal(t, "redditcanon:exported:pushshift-reddit:post", registryKey("pushshift-reddit", models.TypePost))
	assert.NotEqual(t, registryKey("a", models.TypePost), registryKey("a", models.TypeComment))
}

func TestIsConnectionError(t *testing.T) {
	assert.False(t, isConnectionError(nil))
	assert.True(t, isConnectionError(errors.New("dial tcp: connection refused")))
	assert.True(t, isConnectionError(errors.New("unexpected EOF")))
	assert.False(t, isConnectionError(errors.New("WRONGTYPE Operation against a key")))
}

func TestRetryOnConnectionError(t *testing.T) {
	ctx := context.Background()

	t.Run("each attempt runs anew until success", func(t *testing.T) {
		built := 0
		err := retryOnConnectionError(ctx, 3, 0, func() error {
			built++
			if built < 3 {
				return errors.New("dial tcp: connection refused")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, built)
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		calls := 0
		err := retryOnConnectionError(ctx, 3, 0, func() error {
			calls++
			return errors.New("WRONGTYPE Operation against a key")
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		calls := 0
		err := retryOnConnectionError(ctx, 3, 0, func() error {
			calls++
			return errors.New("unexpected EOF")
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops when the context is done", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		calls := 0
		err := retryOnConnectionError(cancelled, 3, time.Hour, func() error {
			calls++
			return errors.New("i/o timeout")
		})
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}
