package submission

import (
	"encoding/json"
	"fmt"
)

// Payload is the caller-facing submission document: either a single transfer
// (Source/Destination set) or a bulk submission with a Files list. Params is
// the shared parameter bag resolved by the parameter resolver.
type Payload struct {
	Source      string `json:"source,omitempty"`
	Destination string `json:"destination,omitempty"`
	Checksum    string `json:"checksum,omitempty"`

	Files  []FileEntry    `json:"files,omitempty"`
	Params map[string]any `json:"params,omitempty"`
}

// FileEntry is one logical entry of a bulk submission. Sources and
// Destinations are expanded into their cross product; token lists, when
// present, pair positionally with the corresponding URI list.
type FileEntry struct {
	Sources           []string        `json:"sources"`
	Destinations      []string        `json:"destinations"`
	SourceTokens      []string        `json:"source_tokens,omitempty"`
	DestinationTokens []string        `json:"destination_tokens,omitempty"`
	Checksum          string          `json:"checksum,omitempty"`
	Filesize          int64           `json:"filesize,omitempty"`
	Metadata          json.RawMessage `json:"metadata,omitempty"`
	StagingMetadata   json.RawMessage `json:"staging_metadata,omitempty"`
	ArchiveMetadata   json.RawMessage `json:"archive_metadata,omitempty"`
	Activity          string          `json:"activity,omitempty"`
	SelectionStrategy string          `json:"selection_strategy,omitempty"`
}

// ParsePayload decodes a submission document and normalizes the
// single-transfer form into a one-entry bulk submission.
func ParsePayload(data []byte) (*Payload, error) {
	p := &Payload{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("%w: invalid submission document: %v", ErrMalformedInput, err)
	}

	if len(p.Files) == 0 {
		if p.Source == "" || p.Destination == "" {
			return nil, fmt.Errorf("%w: submission carries neither a files list nor a source/destination pair", ErrMalformedInput)
		}
		p.Files = []FileEntry{{
			Sources:      []string{p.Source},
			Destinations: []string{p.Destination},
			Checksum:     p.Checksum,
		}}
	}

	for i, f := range p.Files {
		if len(f.Sources) == 0 {
			return nil, fmt.Errorf("%w: entry %d has no sources", ErrMalformedInput, i)
		}
		if len(f.Destinations) == 0 {
			return nil, fmt.Errorf("%w: entry %d has no destinations", ErrMalformedInput, i)
		}
	}

	return p, nil
}
