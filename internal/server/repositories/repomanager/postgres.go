package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/gridfts/submitd/internal/server/migrations"
	"github.com/gridfts/submitd/internal/server/ranking"
	"github.com/gridfts/submitd/internal/server/repositories/bans"
	"github.com/gridfts/submitd/internal/server/repositories/jobs"
	"github.com/gridfts/submitd/internal/server/repositories/stats"
)

type PostgresRepositoryManager struct {
	db    *sql.DB
	jobs  jobs.Repository
	bans  bans.Repository
	stats ranking.StatsSource
}

func (m *PostgresRepositoryManager) Conn() *sql.DB {
	return m.db
}

func (m *PostgresRepositoryManager) Jobs() jobs.Repository {
	return m.jobs
}

func (m *PostgresRepositoryManager) Bans() bans.Repository {
	return m.bans
}

func (m *PostgresRepositoryManager) Stats() ranking.StatsSource {
	return m.stats
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}

// RunMigrations applies the embedded goose migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.UpContext(ctx, m.db, "."); err != nil {
		return err
	}

	return nil
}

// NewPostgresRepositoryManager opens the database, builds the repositories
// and brings the schema up to date.
func NewPostgresRepositoryManager(dsn string) (RepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	m := &PostgresRepositoryManager{
		db:    db,
		jobs:  jobs.NewPostgresRepository(db),
		bans:  bans.NewPostgresRepository(db),
		stats: stats.NewPostgresRepository(db),
	}

	if err := m.RunMigrations(context.Background()); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}
