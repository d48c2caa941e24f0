// Package submission implements the submission builder: it converts a
// caller-supplied transfer payload into a consistent set of job, file and
// token records with derived initial states, enforcing the submission
// policy rules on the way. The builder is synchronous and side-effect free;
// persisting the produced record set belongs to the caller.
package submission

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/gridfts/submitd/internal/logging"
	"github.com/gridfts/submitd/internal/server/models"
	"github.com/gridfts/submitd/internal/server/ranking"
)

// jobIDNamespace salts deterministic job ids derived from a caller-supplied
// submission id. Changing it would change every derived id.
var jobIDNamespace = uuid.MustParse("b4f0619e-0e1d-4b66-9b96-5a0be4f12fb7")

// Config carries the policy knobs of the builder.
type Config struct {
	MetadataSizeLimit  int
	StrictOverwriteHop bool
	AutoReuse          AutoReuseConfig
	// DedupVOs lists the VOs that opted into destination duplicate
	// detection.
	DedupVOs []string
}

// Request is one submission to build: the authenticated identity plus the
// parsed payload. TokenAuth is true when the submitter authenticated with a
// bearer token rather than a certificate.
type Request struct {
	UserDN    string
	VO        string
	TokenAuth bool
	Bearer    string
	Payload   *Payload
}

// Result is the complete record set of a successful build. It is produced
// atomically: a failed build yields no records at all.
type Result struct {
	Job    *models.Job
	Files  []*models.File
	Tokens []*models.Token
}

// Builder runs the submission pipeline. It holds no per-submission state;
// one instance serves concurrent submissions.
type Builder struct {
	cfg   Config
	log   logging.Logger
	bans  BanSource
	rank  *ranking.Registry
	ids   HashedIDSource
	now   func() time.Time
	reg   *Registrar
	param *Resolver
}

// NewBuilder wires a builder from its collaborators. ids is injected so
// tests can supply a deterministic hashed-id source.
func NewBuilder(cfg Config, log logging.Logger, bans BanSource, rank *ranking.Registry, ids HashedIDSource) *Builder {
	l := log.With("module", "submission_builder")
	return &Builder{
		cfg:   cfg,
		log:   l,
		bans:  bans,
		rank:  rank,
		ids:   ids,
		now:   time.Now,
		reg:   NewRegistrar(l),
		param: &Resolver{MetadataSizeLimit: cfg.MetadataSizeLimit},
	}
}

// Build runs the full pipeline: parameter resolution, expansion, token
// registration, job typing, file building, replica selection, auto session
// reuse and the ban gate.
func (b *Builder) Build(ctx context.Context, req *Request) (*Result, error) {
	params, err := b.param.Resolve(req.Payload.Params)
	if err != nil {
		return nil, err
	}

	entries := make([]ResolvedEntry, 0, len(req.Payload.Files))
	for i, e := range req.Payload.Files {
		re, err := b.param.ResolveEntry(i, e)
		if err != nil {
			return nil, err
		}
		entries = append(entries, re)
	}

	if req.TokenAuth {
		if err := b.reg.ValidateLists(entries); err != nil {
			return nil, err
		}
	}

	transfers, err := Expand(entries)
	if err != nil {
		return nil, err
	}

	var tokens []*models.Token
	if req.TokenAuth {
		tokens, err = b.reg.Register(ctx, req.Bearer, transfers)
		if err != nil {
			return nil, err
		}
	} else {
		// Certificate submissions carry no per-endpoint tokens.
		for i := range transfers {
			transfers[i].SourceToken = ""
			transfers[i].DestToken = ""
		}
	}

	jobType, err := ResolveJobType(params, transfers)
	if err != nil {
		return nil, err
	}
	entryState := EntryState(params)

	overwrite, err := ResolveOverwrite(ctx, params, jobType, transfers, b.cfg.StrictOverwriteHop, b.log)
	if err != nil {
		return nil, err
	}

	jobID := b.jobID(params, req.VO)
	dedup := slices.Contains(b.cfg.DedupVOs, req.VO)
	files := BuildFiles(jobID, jobType, entryState, params, transfers, b.ids, dedup)

	if jobType == models.JobTypeMultiReplica {
		err := SelectReplica(ctx, b.rank, transfers[0].SelectionStrategy, req.VO, entryState, files)
		if err != nil {
			return nil, err
		}
	}

	sourceSE := summarySE(files, func(f *models.File) string { return f.SourceSE })
	destSE := summarySE(files, func(f *models.File) string { return f.DestSE })

	jobType = EvaluateAutoReuse(b.cfg.AutoReuse, jobType, params, sourceSE, destSE, files, b.ids)

	snapshot, err := b.bans.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("ban registry snapshot: %w", err)
	}
	if err := ApplyBans(ctx, snapshot, req.VO, files, b.log); err != nil {
		return nil, err
	}

	job := &models.Job{
		ID:           jobID,
		Type:         jobType,
		State:        jobState(entryState),
		UserDN:       req.UserDN,
		VO:           req.VO,
		Priority:     params.Priority,
		Overwrite:    overwrite,
		ChecksumMode: DeriveChecksumMode(params, transfers),
		RetryCount:   params.Retry,
		RetryDelay:   params.RetryDelay,
		SourceSE:     sourceSE,
		DestSE:       destSE,
		SubmitTime:   b.now().UTC(),
		Metadata:     params.JobMetadata,
	}
	if params.MaxTimeInQueue > 0 {
		expire := job.SubmitTime.Add(time.Duration(params.MaxTimeInQueue) * time.Hour)
		job.ExpireAt = &expire
	}

	return &Result{Job: job, Files: files, Tokens: tokens}, nil
}

// jobID generates the job identifier: deterministic when the caller supplied
// a submission id (so retried submissions collapse), random otherwise.
func (b *Builder) jobID(p *TransferParams, vo string) string {
	if p.SID != "" {
		return uuid.NewSHA1(jobIDNamespace, []byte(vo+"/"+p.SID)).String()
	}
	return uuid.NewString()
}
