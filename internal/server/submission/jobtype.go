package submission

import (
	"fmt"
	"math/rand/v2"

	"github.com/gridfts/submitd/internal/server/models"
)

// HashedIDSource yields distribution keys for colocating related files on
// one downstream worker. Injected so tests can supply a fixed sequence.
type HashedIDSource interface {
	Next() uint16
}

// RandomHashedIDs draws uniformly from [0, 65536).
type RandomHashedIDs struct{}

func (RandomHashedIDs) Next() uint16 { return uint16(rand.Uint32N(1 << 16)) }

// ResolveJobType decides the job type with precedence multihop, then reuse,
// then multi-replica, then normal. Multi-replica entries are mutually
// exclusive with both multihop and session reuse; those combinations are
// rejected rather than silently resolved.
func ResolveJobType(p *TransferParams, transfers []Transfer) (models.JobType, error) {
	perIndex := map[int]int{}
	for _, t := range transfers {
		perIndex[t.FileIndex]++
	}
	replicas := false
	for _, n := range perIndex {
		if n > 1 {
			replicas = true
			break
		}
	}

	switch {
	case p.Multihop && p.Reuse:
		return "", fmt.Errorf("%w: multihop and session reuse cannot be combined", ErrPolicyViolation)
	case p.Multihop:
		if replicas {
			return "", fmt.Errorf("%w: multihop cannot be combined with multiple replicas", ErrPolicyViolation)
		}
		return models.JobTypeMultihop, nil
	case p.Reuse:
		if replicas {
			return "", fmt.Errorf("%w: session reuse cannot be combined with multiple replicas", ErrPolicyViolation)
		}
		return models.JobTypeReuse, nil
	case replicas:
		if len(perIndex) != 1 {
			return "", fmt.Errorf("%w: a multi-replica submission must carry exactly one logical entry", ErrPolicyViolation)
		}
		return models.JobTypeMultiReplica, nil
	default:
		return models.JobTypeNormal, nil
	}
}

// EntryState derives the initial file state of the submission from three
// independent signals, in priority order: bring-online, then QoS transition,
// then plain submitted.
func EntryState(p *TransferParams) models.FileState {
	switch {
	case p.BringOnlineRequested():
		return models.FileStateStaging
	case p.TargetQoS != "":
		return models.FileStateQosTransition
	default:
		return models.FileStateSubmitted
	}
}

// jobState mirrors the entry state at the job level.
func jobState(entry models.FileState) models.JobState {
	switch entry {
	case models.FileStateStaging:
		return models.JobStateStaging
	case models.FileStateQosTransition:
		return models.JobStateQosTransition
	default:
		return models.JobStateSubmitted
	}
}

// grouped reports whether all files of the submission must share one hashed
// id: any multihop/reuse/replica grouping, or a bring-online job.
func grouped(jobType models.JobType, p *TransferParams) bool {
	return jobType != models.JobTypeNormal || p.BringOnlineRequested()
}
