// Package models defines the server-side records produced by the submission
// builder and persisted in the database: jobs, their files, and the access
// tokens referenced by those files.
package models

import "time"

// JobType classifies how the files of a job relate to each other.
type JobType string

const (
	// JobTypeNormal is a flat list of independent transfers.
	JobTypeNormal JobType = "N"
	// JobTypeMultihop is an ordered chain where each hop's destination is
	// the next hop's source.
	JobTypeMultihop JobType = "H"
	// JobTypeReuse runs all transfers over one shared session.
	JobTypeReuse JobType = "Y"
	// JobTypeMultiReplica carries several candidate sources for one logical
	// destination file; exactly one is activated.
	JobTypeMultiReplica JobType = "R"
)

// JobState is the lifecycle state of a job at submission time.
type JobState string

const (
	JobStateSubmitted     JobState = "SUBMITTED"
	JobStateStaging       JobState = "STAGING"
	JobStateQosTransition JobState = "QOS_TRANSITION"
)

// OverwriteFlag is the canonical encoding of the four overwrite modifiers.
type OverwriteFlag string

const (
	OverwriteNone     OverwriteFlag = ""
	OverwriteAlways   OverwriteFlag = "Y"
	OverwriteOnRetry  OverwriteFlag = "R"
	OverwriteHop      OverwriteFlag = "M"
	OverwriteDiskOnly OverwriteFlag = "D"
	// OverwriteHopAndDiskOnly is the only permitted two-flag pairing
	// (overwrite_hop together with overwrite_when_only_on_disk).
	OverwriteHopAndDiskOnly OverwriteFlag = "Q"
)

// ChecksumMode says on which side of a transfer the checksum is verified.
type ChecksumMode string

const (
	ChecksumModeNone   ChecksumMode = "n"
	ChecksumModeSource ChecksumMode = "s"
	ChecksumModeTarget ChecksumMode = "t"
	ChecksumModeBoth   ChecksumMode = "b"
)

// Job is one submitted transfer job. SourceSE/DestSE are set only when every
// file of the job shares that value, and are empty otherwise.
type Job struct {
	ID           string
	Type         JobType
	State        JobState
	UserDN       string
	VO           string
	Priority     int
	Overwrite    OverwriteFlag
	ChecksumMode ChecksumMode
	RetryCount   int
	RetryDelay   int
	SourceSE     string
	DestSE       string
	SubmitTime   time.Time
	ExpireAt     *time.Time
	Metadata     string
}
