// Package ranking hosts the pluggable source-ranking strategies used to pick
// the active replica of a multi-replica job. A strategy orders candidate
// source storage elements best-to-worst for a given destination; the
// ordering must be total and deterministic over the input set.
package ranking

import (
	"context"
	"sort"
	"time"
)

// DefaultStrategy is used when the submission names no strategy.
const DefaultStrategy = "auto"

// Strategy ranks candidate source storage elements for one destination.
// The result is a permutation of sources, best first. Ties keep input order.
type Strategy interface {
	Rank(ctx context.Context, sources []string, dest, vo, activity string, filesize int64) ([]string, error)
}

// PairStats summarizes recent transfer history between one source and one
// destination storage element.
type PairStats struct {
	Queued            int
	PendingBytes      int64
	SuccessRate       float64
	Throughput        float64
	PerFileThroughput float64
	AvgWait           time.Duration
	AvgWaitWithError  time.Duration
	AvgDuration       time.Duration
}

// StatsSource supplies PairStats; the database-backed implementation lives
// in the stats repository, usually fronted by CachedStats.
type StatsSource interface {
	PairStats(ctx context.Context, source, dest, vo string) (PairStats, error)
}

// Registry resolves strategy names. Unknown names are a caller error.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry builds the registry of supported strategies over the given
// stats source.
func NewRegistry(stats StatsSource) *Registry {
	byScore := func(score func(PairStats) float64, descending bool) Strategy {
		return &scoreStrategy{stats: stats, score: score, descending: descending}
	}

	queue := byScore(func(s PairStats) float64 { return float64(s.Queued) }, false)

	return &Registry{strategies: map[string]Strategy{
		"orderly":    orderlyStrategy{},
		"queue":      queue,
		"auto":       queue,
		"success":    byScore(func(s PairStats) float64 { return s.SuccessRate }, true),
		"throughput": byScore(func(s PairStats) float64 { return s.Throughput }, true),
		"per-file-throughput": byScore(
			func(s PairStats) float64 { return s.PerFileThroughput }, true),
		"pending-data": byScore(func(s PairStats) float64 { return float64(s.PendingBytes) }, false),
		"waiting-time": byScore(func(s PairStats) float64 { return s.AvgWait.Seconds() }, false),
		"waiting-time-with-error": byScore(
			func(s PairStats) float64 { return s.AvgWaitWithError.Seconds() }, false),
		"duration": byScore(func(s PairStats) float64 { return s.AvgDuration.Seconds() }, false),
	}}
}

// Register adds or replaces a named strategy.
func (r *Registry) Register(name string, s Strategy) {
	r.strategies[name] = s
}

// Get returns the named strategy.
func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// orderlyStrategy keeps the caller's order: the submission itself expresses
// the preference.
type orderlyStrategy struct{}

func (orderlyStrategy) Rank(ctx context.Context, sources []string, dest, vo, activity string, filesize int64) ([]string, error) {
	out := make([]string, len(sources))
	copy(out, sources)
	return out, nil
}

// scoreStrategy orders sources by one PairStats metric. The sort is stable,
// so equal scores keep the caller's order.
type scoreStrategy struct {
	stats      StatsSource
	score      func(PairStats) float64
	descending bool
}

func (s *scoreStrategy) Rank(ctx context.Context, sources []string, dest, vo, activity string, filesize int64) ([]string, error) {
	type scored struct {
		se    string
		value float64
	}
	items := make([]scored, len(sources))
	for i, src := range sources {
		ps, err := s.stats.PairStats(ctx, src, dest, vo)
		if err != nil {
			return nil, err
		}
		items[i] = scored{se: src, value: s.score(ps)}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if s.descending {
			return items[i].value > items[j].value
		}
		return items[i].value < items[j].value
	})

	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.se
	}
	return out, nil
}
