// Package stats exposes recent transfer history per storage-element pair
// for the replica ranking strategies.
package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gridfts/submitd/internal/dbx"
	"github.com/gridfts/submitd/internal/server/ranking"
)

// PostgresRepository implements ranking.StatsSource over a dbx.DBTX.
// Missing pairs yield zero stats, not an error: a pair with no history is a
// legitimate ranking input.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) PairStats(ctx context.Context, source, dest, vo string) (ranking.PairStats, error) {
	query := `
		SELECT queued, pending_bytes, success_rate, throughput, per_file_throughput,
			avg_wait_seconds, avg_wait_error_seconds, avg_duration_seconds
		FROM transfer_stats
		WHERE source_se = $1 AND dest_se = $2 AND vo = $3
	`
	var (
		ps                      ranking.PairStats
		wait, waitErr, duration float64
	)
	err := r.db.QueryRowContext(ctx, query, source, dest, vo).Scan(
		&ps.Queued, &ps.PendingBytes, &ps.SuccessRate, &ps.Throughput, &ps.PerFileThroughput,
		&wait, &waitErr, &duration)
	if errors.Is(err, sql.ErrNoRows) {
		return ranking.PairStats{}, nil
	}
	if err != nil {
		return ranking.PairStats{}, fmt.Errorf("failed to select pair stats: %w", err)
	}
	ps.AvgWait = time.Duration(wait * float64(time.Second))
	ps.AvgWaitWithError = time.Duration(waitErr * float64(time.Second))
	ps.AvgDuration = time.Duration(duration * float64(time.Second))
	return ps, nil
}
