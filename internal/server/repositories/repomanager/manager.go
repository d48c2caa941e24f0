// Package repomanager bundles the repositories over one database connection
// and runs schema migrations on startup.
package repomanager

import (
	"database/sql"

	"github.com/gridfts/submitd/internal/server/ranking"
	"github.com/gridfts/submitd/internal/server/repositories/bans"
	"github.com/gridfts/submitd/internal/server/repositories/jobs"
)

// RepositoryManager hands out repositories sharing one connection pool.
type RepositoryManager interface {
	Conn() *sql.DB
	Jobs() jobs.Repository
	Bans() bans.Repository
	Stats() ranking.StatsSource
	Close() error
}
