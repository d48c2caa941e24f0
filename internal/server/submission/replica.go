package submission

import (
	"context"
	"fmt"

	"github.com/gridfts/submitd/internal/server/models"
	"github.com/gridfts/submitd/internal/server/ranking"
)

// SelectReplica ranks the candidate sources of a multi-replica job and
// activates exactly one file. The activated file gets the entry state; all
// others stay NotUsed.
//
// Tie-break is strictly "first match in ranked order, scan files in original
// order": a later-ranked identical source never overrides an earlier match.
func SelectReplica(ctx context.Context, reg *ranking.Registry, strategyName, vo string, entryState models.FileState, files []*models.File) error {
	if strategyName == "" {
		strategyName = ranking.DefaultStrategy
	}
	strategy, ok := reg.Get(strategyName)
	if !ok {
		return fmt.Errorf("%w: unknown replica selection strategy %q", ErrPolicyViolation, strategyName)
	}

	sources := make([]string, len(files))
	for i, f := range files {
		sources[i] = f.SourceSE
	}
	dest := files[0].DestSE
	ranked, err := strategy.Rank(ctx, sources, dest, vo, files[0].Activity, files[0].UserFilesize)
	if err != nil {
		return fmt.Errorf("replica ranking failed: %w", err)
	}

	for _, se := range ranked {
		for _, f := range files {
			if f.SourceSE == se {
				f.State = entryState
				return nil
			}
		}
	}
	return fmt.Errorf("%w: ranking returned no candidate present in the submission", ErrInternalInconsistency)
}
