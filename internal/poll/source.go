package poll

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/betlinkd/internal/domain"
)

// CachingSource wraps a ConditionSource with a StatusCache. Cache problems
// are logged and degrade to a direct read; they never fail an evaluation.
type CachingSource struct {
	src    domain.ConditionSource
	cache  domain.StatusCache
	logger *slog.Logger
}

// NewCachingSource composes a cache in front of src.
func NewCachingSource(src domain.ConditionSource, cache domain.StatusCache, logger *slog.Logger) *CachingSource {
	return &CachingSource{
		src:    src,
		cache:  cache,
		logger: logger.With(slog.String("component", "caching_source")),
	}
}

// GetStatus returns the cached status when present, otherwise reads through
// and populates the cache.
func (c *CachingSource) GetStatus(ctx context.Context, ref common.Hash) (domain.ConditionStatus, error) {
	status, err := c.cache.Get(ctx, ref)
	if err == nil {
		return status, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		c.logger.WarnContext(ctx, "status cache read failed",
			slog.String("ref", ref.Hex()),
			slog.String("error", err.Error()),
		)
	}

	status, err = c.src.GetStatus(ctx, ref)
	if err != nil {
		return domain.ConditionStatus{}, err
	}

	if err := c.cache.Set(ctx, ref, status); err != nil {
		c.logger.WarnContext(ctx, "status cache write failed",
			slog.String("ref", ref.Hex()),
			slog.String("error", err.Error()),
		)
	}
	return status, nil
}
