package bans

import (
	"context"
	"fmt"

	"github.com/gridfts/submitd/internal/dbx"
	"github.com/gridfts/submitd/internal/server/models"
)

// PostgresRepository reads bans over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Snapshot loads all current bans keyed by storage element.
func (r *PostgresRepository) Snapshot(ctx context.Context) (map[string][]models.Ban, error) {
	query := `SELECT se, vo, mode FROM se_bans`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select bans: %w", err)
	}
	defer rows.Close()

	snapshot := map[string][]models.Ban{}
	for rows.Next() {
		var ban models.Ban
		if err := rows.Scan(&ban.SE, &ban.VO, &ban.Mode); err != nil {
			return nil, err
		}
		snapshot[ban.SE] = append(snapshot[ban.SE], ban)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snapshot, nil
}
