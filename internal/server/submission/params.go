package submission

import (
	"encoding/json"
	"fmt"
	"math"
)

// TransferParams is the fully resolved, typed form of the caller's params
// bag. Every field holds either the caller's validated value or the default
// from the option table; downstream stages never see a partially-defaulted
// state.
type TransferParams struct {
	VerifyChecksum string

	Overwrite               bool
	OverwriteOnRetry        bool
	OverwriteWhenOnlyOnDisk bool
	OverwriteHop            bool

	Multihop bool
	Reuse    bool

	Priority   int
	Retry      int
	RetryDelay int

	BringOnline     int64
	CopyPinLifetime int64
	ArchiveTimeout  int64
	TargetQoS       string

	SID            string
	MaxTimeInQueue int
	Timeout        int64
	BufferSize     int64
	NoStreams      int
	IPv4           bool
	IPv6           bool

	SourceSpacetoken string
	DestSpacetoken   string
	Credential       string
	DestFileReport   bool

	JobMetadata string

	// Extra collects unrecognized keys so vendor extensions survive without
	// silently leaking into the typed fields.
	Extra map[string]any
}

// BringOnlineRequested reports whether the submission asked for a staging
// step (positive pin lifetime or positive bring-online timeout).
func (p *TransferParams) BringOnlineRequested() bool {
	return p.BringOnline > 0 || p.CopyPinLifetime > 0
}

// paramSpec is one row of the recognized-option table: how to coerce and
// validate a raw value and where to store it.
type paramSpec struct {
	apply func(v any, p *TransferParams) error
}

var checksumModes = map[string]bool{
	"none": true, "source": true, "target": true, "both": true,
}

var paramTable = map[string]paramSpec{
	"verify_checksum": {apply: func(v any, p *TransferParams) error {
		switch t := v.(type) {
		case bool:
			if t {
				p.VerifyChecksum = "both"
			} else {
				p.VerifyChecksum = "none"
			}
			return nil
		case string:
			if !checksumModes[t] {
				return fmt.Errorf("unknown checksum mode %q", t)
			}
			p.VerifyChecksum = t
			return nil
		default:
			return fmt.Errorf("expected bool or string, got %T", v)
		}
	}},
	"overwrite":                   {apply: boolInto(func(p *TransferParams, b bool) { p.Overwrite = b })},
	"overwrite_on_retry":          {apply: boolInto(func(p *TransferParams, b bool) { p.OverwriteOnRetry = b })},
	"overwrite_when_only_on_disk": {apply: boolInto(func(p *TransferParams, b bool) { p.OverwriteWhenOnlyOnDisk = b })},
	"overwrite_hop":               {apply: boolInto(func(p *TransferParams, b bool) { p.OverwriteHop = b })},
	"multihop":                    {apply: boolInto(func(p *TransferParams, b bool) { p.Multihop = b })},
	"reuse":                       {apply: boolInto(func(p *TransferParams, b bool) { p.Reuse = b })},
	"ipv4":                        {apply: boolInto(func(p *TransferParams, b bool) { p.IPv4 = b })},
	"ipv6":                        {apply: boolInto(func(p *TransferParams, b bool) { p.IPv6 = b })},
	"dst_file_report":             {apply: boolInto(func(p *TransferParams, b bool) { p.DestFileReport = b })},

	"priority": {apply: intInto(func(p *TransferParams, n int64) {
		// Caller values outside 1..5 are clamped, not rejected.
		p.Priority = int(min(5, max(1, n)))
	})},
	"retry":             {apply: intInto(func(p *TransferParams, n int64) { p.Retry = int(n) })},
	"retry_delay":       {apply: intInto(func(p *TransferParams, n int64) { p.RetryDelay = int(n) })},
	"bring_online":      {apply: intInto(func(p *TransferParams, n int64) { p.BringOnline = n })},
	"copy_pin_lifetime": {apply: intInto(func(p *TransferParams, n int64) { p.CopyPinLifetime = n })},
	"archive_timeout":   {apply: intInto(func(p *TransferParams, n int64) { p.ArchiveTimeout = n })},
	"max_time_in_queue": {apply: intInto(func(p *TransferParams, n int64) { p.MaxTimeInQueue = int(n) })},
	"timeout":           {apply: intInto(func(p *TransferParams, n int64) { p.Timeout = n })},
	"buffer_size":       {apply: intInto(func(p *TransferParams, n int64) { p.BufferSize = n })},
	"nostreams":         {apply: intInto(func(p *TransferParams, n int64) { p.NoStreams = int(n) })},

	"target_qos":        {apply: stringInto(func(p *TransferParams, s string) { p.TargetQoS = s })},
	"sid":               {apply: stringInto(func(p *TransferParams, s string) { p.SID = s })},
	"source_spacetoken": {apply: stringInto(func(p *TransferParams, s string) { p.SourceSpacetoken = s })},
	"spacetoken":        {apply: stringInto(func(p *TransferParams, s string) { p.DestSpacetoken = s })},
	"credential":        {apply: stringInto(func(p *TransferParams, s string) { p.Credential = s })},
}

func boolInto(set func(*TransferParams, bool)) func(any, *TransferParams) error {
	return func(v any, p *TransferParams) error {
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", v)
		}
		set(p, b)
		return nil
	}
}

func intInto(set func(*TransferParams, int64)) func(any, *TransferParams) error {
	return func(v any, p *TransferParams) error {
		switch t := v.(type) {
		case float64:
			if t != math.Trunc(t) {
				return fmt.Errorf("expected integer, got %v", t)
			}
			set(p, int64(t))
			return nil
		case json.Number:
			n, err := t.Int64()
			if err != nil {
				return fmt.Errorf("expected integer, got %q", t.String())
			}
			set(p, n)
			return nil
		default:
			return fmt.Errorf("expected integer, got %T", v)
		}
	}
}

func stringInto(set func(*TransferParams, string)) func(any, *TransferParams) error {
	return func(v any, p *TransferParams) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		set(p, s)
		return nil
	}
}

// Resolver merges caller-supplied parameters over the defaults table and
// parses metadata fields into their stored form. It is a pure transform.
type Resolver struct {
	// MetadataSizeLimit caps each serialized metadata field independently,
	// in bytes.
	MetadataSizeLimit int
}

// defaultParams is the fixed default table. Resolve starts from a copy, so
// a parameter supplied as null (or omitted) always ends up at its default
// rather than staying null.
func defaultParams() *TransferParams {
	return &TransferParams{
		VerifyChecksum:  "",
		Priority:        3,
		Retry:           0,
		RetryDelay:      0,
		BringOnline:     -1,
		CopyPinLifetime: -1,
		ArchiveTimeout:  -1,
		NoStreams:       0,
	}
}

// Resolve applies the raw params bag over the defaults. Unknown keys are
// routed to Extra. Resolving an already-resolved bag is a no-op: defaults
// are only substituted for null or absent values.
func (r *Resolver) Resolve(raw map[string]any) (*TransferParams, error) {
	p := defaultParams()
	p.Extra = map[string]any{}

	for key, value := range raw {
		if value == nil {
			// Explicit null means "use the default", same as omitting the key.
			continue
		}
		if key == "job_metadata" {
			meta, err := r.parseMetadata(value, false)
			if err != nil {
				return nil, fmt.Errorf("%w: job_metadata: %v", ErrMalformedInput, err)
			}
			p.JobMetadata = meta
			continue
		}
		spec, ok := paramTable[key]
		if !ok {
			p.Extra[key] = value
			continue
		}
		if err := spec.apply(value, p); err != nil {
			return nil, fmt.Errorf("%w: parameter %q: %v", ErrMalformedInput, key, err)
		}
	}

	return p, nil
}

// parseMetadata serializes a metadata value, enforcing the per-field size
// cap. With strict set, the value must be a JSON object; otherwise a
// non-object value is kept as a best-effort string wrapper.
func (r *Resolver) parseMetadata(v any, strict bool) (string, error) {
	if _, ok := v.(map[string]any); !ok {
		if strict {
			return "", fmt.Errorf("expected a JSON object, got %T", v)
		}
		v = map[string]any{"label": fmt.Sprintf("%v", v)}
	}
	out, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if r.MetadataSizeLimit > 0 && len(out) > r.MetadataSizeLimit {
		return "", fmt.Errorf("metadata exceeds size limit of %d bytes", r.MetadataSizeLimit)
	}
	return string(out), nil
}

// rawMetadata decodes a raw JSON metadata field for parseMetadata.
func decodeRawMetadata(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// ResolvedEntry is a logical file entry after metadata parsing and activity
// defaulting.
type ResolvedEntry struct {
	FileEntry
	MetadataJSON string
	StagingJSON  string
	ArchiveJSON  string
}

// ResolveEntry parses the per-entry metadata fields. File metadata is
// best-effort; staging and archive metadata must be structured objects.
func (r *Resolver) ResolveEntry(idx int, e FileEntry) (ResolvedEntry, error) {
	out := ResolvedEntry{FileEntry: e}
	if out.Activity == "" {
		out.Activity = "default"
	}

	fields := []struct {
		name   string
		raw    json.RawMessage
		strict bool
		dst    *string
	}{
		{"metadata", e.Metadata, false, &out.MetadataJSON},
		{"staging_metadata", e.StagingMetadata, true, &out.StagingJSON},
		{"archive_metadata", e.ArchiveMetadata, true, &out.ArchiveJSON},
	}
	for _, f := range fields {
		v, err := decodeRawMetadata(f.raw)
		if err != nil {
			if f.strict {
				return out, fmt.Errorf("%w: entry %d: %s: %v", ErrMalformedInput, idx, f.name, err)
			}
			// Undecodable free-form metadata is preserved as a string.
			v = string(f.raw)
		}
		if v == nil {
			continue
		}
		s, err := r.parseMetadata(v, f.strict)
		if err != nil {
			return out, fmt.Errorf("%w: entry %d: %s: %v", ErrMalformedInput, idx, f.name, err)
		}
		*f.dst = s
	}

	return out, nil
}
