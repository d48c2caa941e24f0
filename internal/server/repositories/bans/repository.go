// Package bans reads the storage-ban registry. The submission builder takes
// one snapshot per submission; this package never mutates ban records.
package bans

import (
	"context"

	"github.com/gridfts/submitd/internal/server/models"
)

// Repository provides the read path to the ban registry.
type Repository interface {
	Snapshot(ctx context.Context) (map[string][]models.Ban, error)
}
