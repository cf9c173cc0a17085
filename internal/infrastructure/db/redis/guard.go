package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const guardTTL = 30 * time.Second

// OperationGuard provides short-lived mutual exclusion backed by Redis.
// It closes the race between concurrent loan approvals, schedule
// generations and double-submitted payments: the first caller wins the
// SETNX, everyone else sees the operation as already in progress.
// Key format: op:<operation>:<id>
type OperationGuard struct {
	client *redis.Client
}

// NewOperationGuard creates an OperationGuard wrapping the given Redis client.
func NewOperationGuard(client *redis.Client) *OperationGuard {
	return &OperationGuard{client: client}
}

// Acquire attempts to take the lock for key. It reports false when another
// holder already has it. The TTL bounds the lock lifetime so a crashed
// holder cannot wedge the operation forever.
func (g *OperationGuard) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(key), "1", guardTTL).Result()
	if err != nil {
		return false, fmt.Errorf("guard acquire: %w", err)
	}
	return ok, nil
}

// Release frees the lock before its TTL expires.
func (g *OperationGuard) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, g.key(key)).Err()
}

func (g *OperationGuard) key(key string) string {
	return "op:" + key
}
