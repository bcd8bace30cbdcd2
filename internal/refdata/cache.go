package refdata

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/trogers1052/oms-service/internal/metrics"
)

// CachedFetcher wraps a Fetcher with a Redis read-through cache. Only
// responses without per-security errors are cached.
type CachedFetcher struct {
	next Fetcher
	rdb  *redis.Client
	ttl  time.Duration
	log  zerolog.Logger
}

// NewCachedFetcher creates a cached wrapper around a fetcher
func NewCachedFetcher(next Fetcher, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *CachedFetcher {
	return &CachedFetcher{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		log:  log.With().Str("component", "refdata_cache").Logger(),
	}
}

// Fetch serves from Redis when possible and populates it on a miss
func (f *CachedFetcher) Fetch(ctx context.Context, securities, fields []string) ([]SecurityData, error) {
	key := cacheKey(securities, fields)

	data, err := f.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []SecurityData
		if json.Unmarshal(data, &cached) == nil {
			metrics.RefDataCacheTotal.WithLabelValues("hit").Inc()
			return cached, nil
		}
	case !errors.Is(err, redis.Nil):
		metrics.RefDataCacheTotal.WithLabelValues("error").Inc()
		f.log.Warn().Err(err).Str("key", key).Msg("Failed to read reference data cache")
	}
	metrics.RefDataCacheTotal.WithLabelValues("miss").Inc()

	result, err := f.next.Fetch(ctx, securities, fields)
	if err != nil {
		return nil, err
	}

	if cacheable(result) {
		if data, err := json.Marshal(result); err == nil {
			if err := f.rdb.Set(ctx, key, data, f.ttl).Err(); err != nil {
				f.log.Warn().Err(err).Str("key", key).Msg("Failed to cache reference data")
			}
		}
	}
	return result, nil
}

func cacheable(result []SecurityData) bool {
	if len(result) == 0 {
		return false
	}
	for _, sd := range result {
		if sd.Error != "" {
			return false
		}
	}
	return true
}

func cacheKey(securities, fields []string) string {
	return "refdata:" + strings.Join(securities, ",") + "|" + strings.Join(fields, ",")
}
