package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gridfts/submitd/internal/dbx"
	"github.com/gridfts/submitd/internal/server/models"
)

// ErrJobNotFound is returned when a job id is unknown.
var ErrJobNotFound = errors.New("job not found")

// PostgresRepository implements job storage over *sql.DB. Batch inserts run
// inside one transaction via dbx.WithTx.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository constructs a repository bound to the given database.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// InsertBatch writes the job, its files and its tokens in one transaction.
// Token rows are shared across jobs by content id, so conflicts are ignored.
func (r *PostgresRepository) InsertBatch(ctx context.Context, job *models.Job, files []*models.File, tokens []*models.Token) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query := `
			INSERT INTO jobs (id, job_type, job_state, user_dn, vo, priority,
				overwrite_flag, checksum_mode, retry_count, retry_delay,
				source_se, dest_se, submit_time, expire_at, metadata)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		`
		_, err := tx.ExecContext(ctx, query,
			job.ID, job.Type, job.State, job.UserDN, job.VO, job.Priority,
			job.Overwrite, job.ChecksumMode, job.RetryCount, job.RetryDelay,
			nullable(job.SourceSE), nullable(job.DestSE), job.SubmitTime, job.ExpireAt, nullable(job.Metadata))
		if err != nil {
			return fmt.Errorf("insert job: %w", err)
		}

		for _, t := range tokens {
			query := `
				INSERT INTO tokens (id, raw, issuer, not_before, expires_at, scope, audience)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (id) DO NOTHING
			`
			_, err := tx.ExecContext(ctx, query,
				t.ID, t.Raw, t.Issuer, t.NotBefore, t.ExpiresAt, t.Scope, nullable(t.Audience))
			if err != nil {
				return fmt.Errorf("insert token %s: %w", t.ID, err)
			}
		}

		for _, f := range files {
			query := `
				INSERT INTO files (job_id, file_index, file_state, source_surl, dest_surl,
					source_se, dest_se, user_filesize, checksum, metadata, activity,
					hashed_id, dedup_key, source_token_id, dest_token_id,
					staging_metadata, archive_metadata)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			`
			_, err := tx.ExecContext(ctx, query,
				f.JobID, f.FileIndex, f.State, f.SourceSURL, f.DestSURL,
				f.SourceSE, f.DestSE, f.UserFilesize, nullable(f.Checksum), nullable(f.Metadata), f.Activity,
				int(f.HashedID), nullable(f.DedupKey), nullable(f.SourceTokenID), nullable(f.DestTokenID),
				nullable(f.StagingMeta), nullable(f.ArchiveMeta))
			if err != nil {
				return fmt.Errorf("insert file %d: %w", f.FileIndex, err)
			}
		}

		return nil
	})
}

// GetJob returns one job by id.
func (r *PostgresRepository) GetJob(ctx context.Context, id string) (*models.Job, error) {
	query := `
		SELECT id, job_type, job_state, user_dn, vo, priority, overwrite_flag,
			checksum_mode, retry_count, retry_delay,
			COALESCE(source_se, ''), COALESCE(dest_se, ''), submit_time, expire_at,
			COALESCE(metadata, '')
		FROM jobs WHERE id = $1
	`
	job := &models.Job{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID, &job.Type, &job.State, &job.UserDN, &job.VO, &job.Priority, &job.Overwrite,
		&job.ChecksumMode, &job.RetryCount, &job.RetryDelay,
		&job.SourceSE, &job.DestSE, &job.SubmitTime, &job.ExpireAt, &job.Metadata)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select job: %w", err)
	}
	return job, nil
}

// GetFiles returns the files of a job ordered by file index.
func (r *PostgresRepository) GetFiles(ctx context.Context, jobID string) ([]*models.File, error) {
	query := `
		SELECT job_id, file_index, file_state, source_surl, dest_surl, source_se, dest_se,
			user_filesize, COALESCE(checksum, ''), COALESCE(metadata, ''), activity, hashed_id,
			COALESCE(dedup_key, ''), COALESCE(source_token_id, ''), COALESCE(dest_token_id, ''),
			COALESCE(staging_metadata, ''), COALESCE(archive_metadata, '')
		FROM files WHERE job_id = $1 ORDER BY file_index, source_surl
	`
	rows, err := r.db.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		var item models.File
		var hashed int
		if err := rows.Scan(&item.JobID, &item.FileIndex, &item.State, &item.SourceSURL, &item.DestSURL,
			&item.SourceSE, &item.DestSE, &item.UserFilesize, &item.Checksum, &item.Metadata,
			&item.Activity, &hashed, &item.DedupKey, &item.SourceTokenID, &item.DestTokenID,
			&item.StagingMeta, &item.ArchiveMeta); err != nil {
			return nil, err
		}
		item.HashedID = uint16(hashed)
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// nullable maps empty strings to NULL so optional columns stay NULL instead
// of holding empty strings.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
