package poll

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/betlinkd/internal/domain"
)

// memCache is a map-backed StatusCache; failGet/failSet force cache errors.
type memCache struct {
	entries map[common.Hash]domain.ConditionStatus
	failGet bool
	failSet bool
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[common.Hash]domain.ConditionStatus)}
}

func (m *memCache) Set(ctx context.Context, ref common.Hash, status domain.ConditionStatus) error {
	if m.failSet {
		return errors.New("cache down")
	}
	m.entries[ref] = status
	return nil
}

func (m *memCache) Get(ctx context.Context, ref common.Hash) (domain.ConditionStatus, error) {
	if m.failGet {
		return domain.ConditionStatus{}, errors.New("cache down")
	}
	status, ok := m.entries[ref]
	if !ok {
		return domain.ConditionStatus{}, domain.ErrNotFound
	}
	return status, nil
}

func (m *memCache) Invalidate(ctx context.Context, ref common.Hash) error {
	delete(m.entries, ref)
	return nil
}

func TestCachingSourceReadThrough(t *testing.T) {
	ref := common.HexToHash("0x01")
	src := &stubSource{status: openStatus(100)}
	cache := newMemCache()
	cs := NewCachingSource(src, cache, testLogger())

	first, err := cs.GetStatus(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "100", first.Remaining.String())
	assert.Equal(t, 1, src.reads)

	// Second read is served from the cache.
	second, err := cs.GetStatus(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, first.Remaining.String(), second.Remaining.String())
	assert.Equal(t, 1, src.reads)
}

func TestCachingSourceInvalidation(t *testing.T) {
	ref := common.HexToHash("0x02")
	src := &stubSource{status: openStatus(50)}
	cache := newMemCache()
	cs := NewCachingSource(src, cache, testLogger())

	_, err := cs.GetStatus(context.Background(), ref)
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(context.Background(), ref))

	src.status = domain.ConditionStatus{Remaining: big.NewInt(0), ResolvedOrCancelled: true}
	status, err := cs.GetStatus(context.Background(), ref)
	require.NoError(t, err)
	assert.True(t, status.ResolvedOrCancelled)
	assert.Equal(t, 2, src.reads)
}

func TestCachingSourceDegradesOnCacheFailure(t *testing.T) {
	ref := common.HexToHash("0x03")
	src := &stubSource{status: openStatus(10)}
	cache := newMemCache()
	cache.failGet = true
	cache.failSet = true
	cs := NewCachingSource(src, cache, testLogger())

	// Broken cache never breaks the read.
	status, err := cs.GetStatus(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "10", status.Remaining.String())
}

func TestCachingSourcePropagatesSourceError(t *testing.T) {
	ref := common.HexToHash("0x04")
	srcErr := errors.New("venue down")
	cs := NewCachingSource(&stubSource{err: srcErr}, newMemCache(), testLogger())

	_, err := cs.GetStatus(context.Background(), ref)
	assert.ErrorIs(t, err, srcErr)
}
