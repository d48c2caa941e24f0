package submission

import (
	"context"
	"fmt"

	"github.com/gridfts/submitd/internal/logging"
	"github.com/gridfts/submitd/internal/server/models"
)

// BanSource provides one read-only snapshot of the ban registry, keyed by
// storage element. Taken once per submission so the query cost stays O(1)
// regardless of file count.
type BanSource interface {
	Snapshot(ctx context.Context) (map[string][]models.Ban, error)
}

// ApplyBans checks every file's source and destination storage element
// against the snapshot. A plain-mode ban rejects the whole submission; a
// wait-as-submit ban puts the affected file on hold. Delete-state, NotUsed
// and already-held files pass through untouched, so a file with bans on both
// endpoints is held exactly once.
func ApplyBans(ctx context.Context, snapshot map[string][]models.Ban, vo string, files []*models.File, log logging.Logger) error {
	if len(snapshot) == 0 {
		return nil
	}

	for _, f := range files {
		for _, se := range []string{f.SourceSE, f.DestSE} {
			ban, ok := matchBan(snapshot, se, vo)
			if !ok {
				continue
			}
			if ban.Mode == models.BanModePlain {
				return fmt.Errorf("%w: storage %s is banned", ErrAuthorizationDenied, se)
			}
			switch f.State {
			case models.FileStateDelete, models.FileStateNotUsed,
				models.FileStateOnHold, models.FileStateOnHoldStaging:
				// Nothing to hold.
			default:
				held, ok := f.State.Held()
				if !ok {
					log.Error(ctx, "file in unexpected state reached the ban gate",
						"state", string(f.State), "se", se)
					return fmt.Errorf("%w: file in state %s cannot be held", ErrInternalInconsistency, f.State)
				}
				f.State = held
			}
		}
	}
	return nil
}

func matchBan(snapshot map[string][]models.Ban, se, vo string) (models.Ban, bool) {
	for _, ban := range snapshot[se] {
		if ban.Applies(vo) {
			return ban, true
		}
	}
	return models.Ban{}, false
}
