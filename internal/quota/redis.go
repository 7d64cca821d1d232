package quota

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/maggiegpt/server/internal/model"
)

const redisKeyPrefix = "guest:quota:"

// Redis is a shared quota tracker for multi-instance deployments.
// Counters live in Redis with no expiry, mirroring the process-lifetime
// semantics of the in-memory tracker.
type Redis struct {
	client *redis.Client
	limit  int
}

var _ model.QuotaTracker = (*Redis)(nil)

// NewRedis creates a Redis-backed tracker with the given limit.
func NewRedis(client *redis.Client, limit int) *Redis {
	return &Redis{client: client, limit: limit}
}

// Allow consumes one unit for the key, or fails with
// model.ErrGuestLimitReached once the limit is hit.
func (r *Redis) Allow(ctx context.Context, key string) (int, error) {
	n, err := r.client.Incr(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment guest counter: %w", err)
	}

	if n > int64(r.limit) {
		return 0, model.ErrGuestLimitReached
	}

	return r.limit - int(n), nil
}
