package redis

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/betlinkd/internal/domain"
)

// deadSetKey is the single Redis set holding all permanently dead condition
// references. Entries never expire: the condition lifecycle is one-way.
const deadSetKey = "cond:dead"

// DeadSet implements domain.DeadSet using a Redis set.
type DeadSet struct {
	rdb *redis.Client
}

// NewDeadSet creates a DeadSet backed by the given Client.
func NewDeadSet(c *Client) *DeadSet {
	return &DeadSet{rdb: c.Underlying()}
}

// Add marks ref as permanently dead.
func (d *DeadSet) Add(ctx context.Context, ref common.Hash) error {
	if err := d.rdb.SAdd(ctx, deadSetKey, ref.Hex()).Err(); err != nil {
		return fmt.Errorf("redis: add dead ref %s: %w", ref.Hex(), err)
	}
	return nil
}

// Contains reports whether ref was ever marked dead.
func (d *DeadSet) Contains(ctx context.Context, ref common.Hash) (bool, error) {
	ok, err := d.rdb.SIsMember(ctx, deadSetKey, ref.Hex()).Result()
	if err != nil {
		return false, fmt.Errorf("redis: check dead ref %s: %w", ref.Hex(), err)
	}
	return ok, nil
}

// Compile-time interface check.
var _ domain.DeadSet = (*DeadSet)(nil)
