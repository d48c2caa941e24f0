// Package jobs persists the record sets produced by the submission builder.
package jobs

import (
	"context"

	"github.com/gridfts/submitd/internal/server/models"
)

// Repository stores and reads back submitted jobs. InsertBatch must be
// atomic: either the whole job/file/token set lands or none of it does.
type Repository interface {
	InsertBatch(ctx context.Context, job *models.Job, files []*models.File, tokens []*models.Token) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	GetFiles(ctx context.Context, jobID string) ([]*models.File, error)
}
