package util

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/velora-social/boostd/common"
)

// Locks hands out short lived advisory locks backed by redis SETNX. A held
// lock surfaces as common.ErrLockFailed, callers never block waiting.
type Locks struct {
	rds *redis.Client
}

func NewLocks(rds *redis.Client) *Locks {
	return &Locks{rds: rds}
}

func (l *Locks) Acquire(ctx context.Context, key string, ttl time.Duration) error {
	ok, err := l.rds.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrLockFailed
	}
	return nil
}

func (l *Locks) Release(ctx context.Context, key string) {
	// best effort, the TTL bounds a leak
	l.rds.Del(ctx, key)
}

func BoostRefundLockKey(guid uint64) string {
	return fmt.Sprintf("boost:refund:%d", guid)
}

func SupermindRefundLockKey(guid uint64) string {
	return fmt.Sprintf("supermind:refund:%d", guid)
}
