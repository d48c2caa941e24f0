package ranking

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	statsCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "submitd_ranking_stats_cache_hits_total",
		Help: "Hits of the pair-stats LRU cache used by ranking strategies.",
	})
	statsCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "submitd_ranking_stats_cache_misses_total",
		Help: "Misses of the pair-stats LRU cache used by ranking strategies.",
	})
)

type pairKey struct {
	source string
	dest   string
	vo     string
}

// CachedStats fronts a StatsSource with a TTL'd LRU cache, bounding database
// load when many replicas of one submission share source/destination pairs.
type CachedStats struct {
	next  StatsSource
	cache *expirable.LRU[pairKey, PairStats]
}

// NewCachedStats wraps next with a cache of at most maxSize pairs expiring
// after ttl.
func NewCachedStats(next StatsSource, maxSize int, ttl time.Duration) *CachedStats {
	return &CachedStats{
		next:  next,
		cache: expirable.NewLRU[pairKey, PairStats](maxSize, nil, ttl),
	}
}

func (c *CachedStats) PairStats(ctx context.Context, source, dest, vo string) (PairStats, error) {
	key := pairKey{source: source, dest: dest, vo: vo}
	if ps, ok := c.cache.Get(key); ok {
		statsCacheHitsTotal.Inc()
		return ps, nil
	}
	statsCacheMissesTotal.Inc()

	ps, err := c.next.PairStats(ctx, source, dest, vo)
	if err != nil {
		return PairStats{}, err
	}
	c.cache.Add(key, ps)
	return ps, nil
}
