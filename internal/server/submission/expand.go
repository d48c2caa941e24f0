package submission

import (
	"fmt"
	"net/url"
)

// Transfer is one concrete source→destination tuple produced by expanding a
// logical entry. All tuples of the same entry share FileIndex.
type Transfer struct {
	FileIndex   int
	Source      string
	Destination string
	SourceSE    string
	DestSE      string
	DestScheme  string

	// Raw per-endpoint tokens; empty when absent. Replaced by token record
	// ids during registration.
	SourceToken string
	DestToken   string

	Checksum          string
	Filesize          int64
	Activity          string
	MetadataJSON      string
	StagingJSON       string
	ArchiveJSON       string
	SelectionStrategy string
}

// validateURI checks a transfer endpoint: a scheme other than file, a host,
// and a non-empty path unless a query string is present.
func validateURI(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URI %q: %v", ErrMalformedInput, raw, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("%w: missing scheme in %q", ErrMalformedInput, raw)
	}
	if u.Scheme == "file" {
		return nil, fmt.Errorf("%w: local file URI not accepted: %q", ErrMalformedInput, raw)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrMalformedInput, raw)
	}
	if u.Path == "" && u.RawQuery == "" {
		return nil, fmt.Errorf("%w: missing path in %q", ErrMalformedInput, raw)
	}
	return u, nil
}

// storageElement derives the storage element of an endpoint: scheme plus
// host, with any port stripped.
func storageElement(u *url.URL) string {
	return u.Scheme + "://" + u.Hostname()
}

// tokenAt pairs a token list positionally with a URI list; positions past
// the end of the token list get the absent token.
func tokenAt(tokens []string, i int) string {
	if i < len(tokens) {
		return tokens[i]
	}
	return ""
}

// Expand forms the cross product of every entry's sources and destinations.
// Per-endpoint tokens pair with the URI at the same position in their list.
func Expand(entries []ResolvedEntry) ([]Transfer, error) {
	var transfers []Transfer
	for idx, e := range entries {
		srcURLs := make([]*url.URL, len(e.Sources))
		for i, s := range e.Sources {
			u, err := validateURI(s)
			if err != nil {
				return nil, err
			}
			srcURLs[i] = u
		}
		dstURLs := make([]*url.URL, len(e.Destinations))
		for i, d := range e.Destinations {
			u, err := validateURI(d)
			if err != nil {
				return nil, err
			}
			dstURLs[i] = u
		}

		for si, src := range srcURLs {
			for di, dst := range dstURLs {
				transfers = append(transfers, Transfer{
					FileIndex:         idx,
					Source:            e.Sources[si],
					Destination:       e.Destinations[di],
					SourceSE:          storageElement(src),
					DestSE:            storageElement(dst),
					DestScheme:        dst.Scheme,
					SourceToken:       tokenAt(e.SourceTokens, si),
					DestToken:         tokenAt(e.DestinationTokens, di),
					Checksum:          e.Checksum,
					Filesize:          e.Filesize,
					Activity:          e.Activity,
					MetadataJSON:      e.MetadataJSON,
					StagingJSON:       e.StagingJSON,
					ArchiveJSON:       e.ArchiveJSON,
					SelectionStrategy: e.SelectionStrategy,
				})
			}
		}
	}

	if len(transfers) == 0 {
		return nil, fmt.Errorf("%w: no valid transfer pairs", ErrMalformedInput)
	}
	return transfers, nil
}
