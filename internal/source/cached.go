package source

import (
	"context"
	"time"

	"github.com/wonny/bankrank/backend/internal/contracts"
	"github.com/wonny/bankrank/backend/pkg/logger"
	"github.com/wonny/bankrank/backend/pkg/redis"
)

// CachedSource keeps published ratios in Redis for a short TTL.
// Only the inputs are cached; rankings are always recomputed.
type CachedSource struct {
	source contracts.RatioSource
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

var _ contracts.RatioSource = (*CachedSource)(nil)

// NewCachedSource wraps source with a Redis cache
// log may be nil.
func NewCachedSource(source contracts.RatioSource, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedSource {
	if log == nil {
		log = logger.NewNop()
	}
	return &CachedSource{
		source: source,
		cache:  cache,
		ttl:    ttl,
		logger: log,
	}
}

// ListPeriods returns the cached period list or loads it
func (c *CachedSource) ListPeriods(ctx context.Context) ([]contracts.Period, error) {
	var periods []contracts.Period
	if c.lookup(ctx, redis.PeriodsKey(), &periods) {
		return periods, nil
	}

	periods, err := c.source.ListPeriods(ctx)
	if err != nil {
		return nil, err
	}

	c.store(ctx, redis.PeriodsKey(), periods)
	return periods, nil
}

// LoadPeriod returns the cached ratios of a period or loads them
func (c *CachedSource) LoadPeriod(ctx context.Context, period string) ([]contracts.RawBank, error) {
	var banks []contracts.RawBank
	if c.lookup(ctx, redis.RatiosKey(period), &banks) {
		return banks, nil
	}

	banks, err := c.source.LoadPeriod(ctx, period)
	if err != nil {
		return nil, err
	}

	c.store(ctx, redis.RatiosKey(period), banks)
	return banks, nil
}

// lookup treats cache errors as misses
func (c *CachedSource) lookup(ctx context.Context, key string, dest interface{}) bool {
	found, err := c.cache.Get(ctx, key, dest)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Ratio cache read failed")
		return false
	}
	return found
}

func (c *CachedSource) store(ctx context.Context, key string, value interface{}) {
	if err := c.cache.Set(ctx, key, value, c.ttl); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Ratio cache write failed")
	}
}
