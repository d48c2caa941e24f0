package models

// FileState is the per-file state derived at submission time.
type FileState string

const (
	FileStateSubmitted     FileState = "SUBMITTED"
	FileStateStaging       FileState = "STAGING"
	FileStateQosTransition FileState = "QOS_TRANSITION"
	// FileStateNotUsed marks the non-active members of a replica or
	// multihop group.
	FileStateNotUsed FileState = "NOT_USED"
	FileStateOnHold  FileState = "ON_HOLD"
	// FileStateOnHoldStaging is the held form of STAGING.
	FileStateOnHoldStaging FileState = "ON_HOLD_STAGING"
	FileStateDelete        FileState = "DELETE"
)

// Held returns the on-hold counterpart of a state for files caught by a
// wait-as-submit ban. The second result is false when the state has no held
// form and must not reach the ban gate.
func (s FileState) Held() (FileState, bool) {
	switch s {
	case FileStateSubmitted:
		return FileStateOnHold, true
	case FileStateStaging:
		return FileStateOnHoldStaging, true
	default:
		return "", false
	}
}

// File is one concrete source→destination transfer belonging to a job.
// FileIndex is shared by all replicas of the same logical entry. HashedID is
// a distribution key in [0, 65536) used to colocate related transfers on one
// downstream worker; it is not a content hash.
type File struct {
	JobID        string
	FileIndex    int
	State        FileState
	SourceSURL   string
	DestSURL     string
	SourceSE     string
	DestSE       string
	UserFilesize int64
	Checksum     string
	Metadata     string
	Activity     string
	HashedID     uint16
	// DedupKey is a deterministic hash of the destination URI, set only when
	// the VO opted into duplicate detection.
	DedupKey string
	// SourceTokenID/DestTokenID reference Token records by content id.
	SourceTokenID string
	DestTokenID   string
	StagingMeta   string
	ArchiveMeta   string
}
