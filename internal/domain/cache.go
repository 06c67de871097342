package domain

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// StatusCache holds recently fetched condition statuses so the watcher does
// not hammer the venue on every tick. Entries are short-lived; a miss
// returns ErrNotFound.
type StatusCache interface {
	Set(ctx context.Context, ref common.Hash, status ConditionStatus) error
	Get(ctx context.Context, ref common.Hash) (ConditionStatus, error)
	Invalidate(ctx context.Context, ref common.Hash) error
}

// DeadSet records condition references whose bets were classified as never
// tradeable again. Membership is permanent: the condition lifecycle is
// one-way, so a ref that entered the set must not be polled any further.
type DeadSet interface {
	Add(ctx context.Context, ref common.Hash) error
	Contains(ctx context.Context, ref common.Hash) (bool, error)
}

// LockManager provides distributed locking so multiple watcher replicas do
// not evaluate the same tick concurrently.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Wait(ctx context.Context, key string) error
}
