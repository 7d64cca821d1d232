package quota

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maggiegpt/server/internal/model"
)

func TestMemory_LimitEnforced(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(5)

	for i := 0; i < 5; i++ {
		remaining, err := m.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.Equal(t, 4-i, remaining)
	}

	_, err := m.Allow(ctx, "1.2.3.4")
	assert.ErrorIs(t, err, model.ErrGuestLimitReached)

	// exhausting one key does not touch another
	remaining, err := m.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.Equal(t, 4, remaining)
}

func TestMemory_RejectionDoesNotConsume(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(1)

	_, err := m.Allow(ctx, "k")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = m.Allow(ctx, "k")
		assert.ErrorIs(t, err, model.ErrGuestLimitReached)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Equal(t, 1, m.entries["k"].count)
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(100)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Allow(ctx, "shared")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	_, err := m.Allow(ctx, "shared")
	assert.ErrorIs(t, err, model.ErrGuestLimitReached)
}

func TestRedis_LimitEnforced(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	ctx := context.Background()
	r := NewRedis(client, 5)

	for i := 0; i < 5; i++ {
		remaining, err := r.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.Equal(t, 4-i, remaining)
	}

	_, err := r.Allow(ctx, "1.2.3.4")
	assert.ErrorIs(t, err, model.ErrGuestLimitReached)

	remaining, err := r.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.Equal(t, 4, remaining)
}

func TestRedis_ConnectionFailure(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	r := NewRedis(client, 5)
	_, err := r.Allow(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrGuestLimitReached)
}
