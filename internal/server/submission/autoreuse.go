package submission

import (
	"github.com/gridfts/submitd/internal/server/models"
)

// AutoReuseConfig bounds the heuristic that upgrades an eligible normal job
// to session reuse.
type AutoReuseConfig struct {
	Enabled        bool
	MinFiles       int
	MaxFiles       int
	MaxBigFiles    int
	SmallSizeLimit int64
	BigSizeLimit   int64
}

// EvaluateAutoReuse upgrades a Normal job to Reuse when many small transfers
// between one source and one destination storage element would otherwise pay
// per-file session setup.
//
// Disqualifiers: feature off, already reuse, multi-replica, bring-online,
// unresolved overall source/destination SE, file count outside the window,
// any file with no size or a size above the big limit, or too many big files.
// On upgrade every file's hashed id is reset to one fresh shared value.
func EvaluateAutoReuse(cfg AutoReuseConfig, jobType models.JobType, p *TransferParams, sourceSE, destSE string, files []*models.File, ids HashedIDSource) models.JobType {
	if !cfg.Enabled || jobType != models.JobTypeNormal {
		return jobType
	}
	if p.BringOnlineRequested() {
		return jobType
	}
	if sourceSE == "" || destSE == "" {
		return jobType
	}
	if len(files) < cfg.MinFiles || len(files) > cfg.MaxFiles {
		return jobType
	}

	big := 0
	for _, f := range files {
		switch {
		case f.UserFilesize > 0 && f.UserFilesize <= cfg.SmallSizeLimit:
			// small
		case f.UserFilesize > cfg.SmallSizeLimit && f.UserFilesize <= cfg.BigSizeLimit:
			big++
		default:
			// Unspecified sizes and oversized files disqualify the upgrade.
			return jobType
		}
	}
	if big > cfg.MaxBigFiles {
		return jobType
	}

	shared := ids.Next()
	for _, f := range files {
		f.HashedID = shared
	}
	return models.JobTypeReuse
}
