package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/betlinkd/internal/domain"
)

// statusTTL keeps cached condition statuses short-lived: the venue can move
// a condition at any time, and a stale Tradeable is worse than an extra GET.
const statusTTL = 15 * time.Second

// statusEntry is the JSON wire form of a cached ConditionStatus. Remaining
// is a decimal string to preserve 256-bit precision.
type statusEntry struct {
	Remaining string `json:"remaining"`
	Closed    bool   `json:"closed"`
}

// StatusCache implements domain.StatusCache using plain Redis strings.
//
// Key schema:
//
//	cond:{ref} - JSON statusEntry
type StatusCache struct {
	rdb *redis.Client
}

// NewStatusCache creates a StatusCache backed by the given Client.
func NewStatusCache(c *Client) *StatusCache {
	return &StatusCache{rdb: c.Underlying()}
}

func condKey(ref common.Hash) string { return "cond:" + ref.Hex() }

// Set stores a condition status with a short TTL.
func (c *StatusCache) Set(ctx context.Context, ref common.Hash, status domain.ConditionStatus) error {
	remaining := "0"
	if status.Remaining != nil {
		remaining = status.Remaining.String()
	}
	data, err := json.Marshal(statusEntry{
		Remaining: remaining,
		Closed:    status.ResolvedOrCancelled,
	})
	if err != nil {
		return fmt.Errorf("redis: marshal status %s: %w", ref.Hex(), err)
	}

	if err := c.rdb.Set(ctx, condKey(ref), data, statusTTL).Err(); err != nil {
		return fmt.Errorf("redis: set status %s: %w", ref.Hex(), err)
	}
	return nil
}

// Get retrieves a cached condition status. It returns domain.ErrNotFound
// when the key does not exist or the cached value is unreadable.
func (c *StatusCache) Get(ctx context.Context, ref common.Hash) (domain.ConditionStatus, error) {
	data, err := c.rdb.Get(ctx, condKey(ref)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ConditionStatus{}, domain.ErrNotFound
		}
		return domain.ConditionStatus{}, fmt.Errorf("redis: get status %s: %w", ref.Hex(), err)
	}

	var entry statusEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return domain.ConditionStatus{}, fmt.Errorf("redis: unmarshal status %s: %w", ref.Hex(), err)
	}
	remaining, ok := new(big.Int).SetString(entry.Remaining, 10)
	if !ok {
		return domain.ConditionStatus{}, fmt.Errorf("redis: bad remaining %q for %s", entry.Remaining, ref.Hex())
	}

	return domain.ConditionStatus{
		Remaining:           remaining,
		ResolvedOrCancelled: entry.Closed,
	}, nil
}

// Invalidate drops the cached status for ref, forcing the next read through
// to the venue.
func (c *StatusCache) Invalidate(ctx context.Context, ref common.Hash) error {
	if err := c.rdb.Del(ctx, condKey(ref)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate status %s: %w", ref.Hex(), err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.StatusCache = (*StatusCache)(nil)
