package submission

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gridfts/submitd/internal/server/models"
)

// DeriveChecksumMode maps the resolved verify_checksum parameter (plus the
// presence of per-file checksums) to the job's checksum-verification mode.
// An explicit mode wins; otherwise a supplied checksum implies verification
// at the target.
func DeriveChecksumMode(p *TransferParams, transfers []Transfer) models.ChecksumMode {
	switch p.VerifyChecksum {
	case "source":
		return models.ChecksumModeSource
	case "target":
		return models.ChecksumModeTarget
	case "both":
		return models.ChecksumModeBoth
	case "none":
		return models.ChecksumModeNone
	}
	for _, t := range transfers {
		if t.Checksum != "" {
			return models.ChecksumModeTarget
		}
	}
	return models.ChecksumModeNone
}

// dedupKey is the deterministic destination hash used for duplicate
// detection by VOs that opted in.
func dedupKey(destination string) string {
	sum := sha256.Sum256([]byte(destination))
	return hex.EncodeToString(sum[:12])
}

// BuildFiles materializes one file record per transfer tuple with its
// derived initial state and hashed id.
//
// Grouped submissions (multihop, reuse, multi-replica, bring-online) share
// one hashed id; ungrouped files draw independent ids. Multi-replica files
// all start NotUsed until the replica selector activates one; multihop files
// start NotUsed except the first hop.
func BuildFiles(jobID string, jobType models.JobType, entryState models.FileState, p *TransferParams, transfers []Transfer, ids HashedIDSource, dedup bool) []*models.File {
	var sharedID uint16
	if grouped(jobType, p) {
		sharedID = ids.Next()
	}

	files := make([]*models.File, 0, len(transfers))
	for i, t := range transfers {
		state := entryState
		switch jobType {
		case models.JobTypeMultiReplica:
			state = models.FileStateNotUsed
		case models.JobTypeMultihop:
			if i == 0 {
				// The first hop starts the chain; QoS transitions do not
				// propagate through hops.
				state = models.FileStateSubmitted
				if p.BringOnlineRequested() {
					state = models.FileStateStaging
				}
			} else {
				state = models.FileStateNotUsed
			}
		}

		hid := sharedID
		if !grouped(jobType, p) {
			hid = ids.Next()
		}

		f := &models.File{
			JobID:         jobID,
			FileIndex:     t.FileIndex,
			State:         state,
			SourceSURL:    t.Source,
			DestSURL:      t.Destination,
			SourceSE:      t.SourceSE,
			DestSE:        t.DestSE,
			UserFilesize:  t.Filesize,
			Checksum:      t.Checksum,
			Metadata:      t.MetadataJSON,
			Activity:      t.Activity,
			HashedID:      hid,
			SourceTokenID: t.SourceToken,
			DestTokenID:   t.DestToken,
			StagingMeta:   t.StagingJSON,
			ArchiveMeta:   t.ArchiveJSON,
		}
		if dedup {
			f.DedupKey = dedupKey(t.Destination)
		}
		files = append(files, f)
	}
	return files
}

// summarySE returns the storage element shared by every file for the given
// accessor, or empty when the files disagree.
func summarySE(files []*models.File, se func(*models.File) string) string {
	if len(files) == 0 {
		return ""
	}
	first := se(files[0])
	for _, f := range files[1:] {
		if se(f) != first {
			return ""
		}
	}
	return first
}
