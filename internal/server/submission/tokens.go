package submission

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gridfts/submitd/internal/logging"
	"github.com/gridfts/submitd/internal/server/models"
)

// Registrar validates and deduplicates the access tokens of a token-
// authenticated submission. It runs only when the submitter presented a
// bearer token rather than a long-lived certificate.
type Registrar struct {
	log logging.Logger
}

// NewRegistrar returns a token registrar logging through l.
func NewRegistrar(l logging.Logger) *Registrar {
	return &Registrar{log: l.With("module", "token_registrar")}
}

// TokenID derives the stable content id of a raw token, so identical tokens
// submitted in different fields collapse to one record.
func TokenID(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:8])
}

// ValidateLists enforces the multi-token list rules on every entry: when
// either per-endpoint token list is present both must be, their lengths must
// equal the corresponding URI list, and no token may be empty.
func (r *Registrar) ValidateLists(entries []ResolvedEntry) error {
	for idx, e := range entries {
		hasSrc := len(e.SourceTokens) > 0
		hasDst := len(e.DestinationTokens) > 0
		if !hasSrc && !hasDst {
			continue
		}
		if hasSrc != hasDst {
			return fmt.Errorf("%w: entry %d: source and destination token lists must both be present", ErrMalformedInput, idx)
		}
		if len(e.SourceTokens) != len(e.Sources) {
			return fmt.Errorf("%w: entry %d: %d source tokens for %d sources", ErrMalformedInput, idx, len(e.SourceTokens), len(e.Sources))
		}
		if len(e.DestinationTokens) != len(e.Destinations) {
			return fmt.Errorf("%w: entry %d: %d destination tokens for %d destinations", ErrMalformedInput, idx, len(e.DestinationTokens), len(e.Destinations))
		}
		for _, t := range append(append([]string{}, e.SourceTokens...), e.DestinationTokens...) {
			if t == "" {
				return fmt.Errorf("%w: entry %d: empty token string", ErrMalformedInput, idx)
			}
		}
	}
	return nil
}

// Register collects every distinct token across the transfers, back-filling
// the caller's bearer token for endpoints without an explicit one, validates
// claims, and rewrites each transfer's token fields to record ids.
func (r *Registrar) Register(ctx context.Context, bearer string, transfers []Transfer) ([]*models.Token, error) {
	seen := map[string]*models.Token{}
	var order []string

	register := func(raw string) (string, error) {
		id := TokenID(raw)
		if _, ok := seen[id]; ok {
			return id, nil
		}
		tok, err := r.decode(ctx, id, raw)
		if err != nil {
			return "", err
		}
		seen[id] = tok
		order = append(order, id)
		return id, nil
	}

	for i := range transfers {
		t := &transfers[i]
		if t.SourceToken == "" {
			// Backward-compatibility path for single-token callers.
			t.SourceToken = bearer
		}
		if t.DestToken == "" {
			t.DestToken = bearer
		}
		srcID, err := register(t.SourceToken)
		if err != nil {
			return nil, err
		}
		dstID, err := register(t.DestToken)
		if err != nil {
			return nil, err
		}
		t.SourceToken = srcID
		t.DestToken = dstID
	}

	tokens := make([]*models.Token, 0, len(order))
	for _, id := range order {
		tokens = append(tokens, seen[id])
	}
	return tokens, nil
}

// decode parses the token's claim segment without signature verification
// (verification belongs to the storage endpoints). A decode failure leaves
// the claims empty, which then fails the required-claim check.
func (r *Registrar) decode(ctx context.Context, id, raw string) (*models.Token, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithPaddingAllowed())
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		r.log.Warn(ctx, "token claims could not be decoded", "token_id", id, "error", err.Error())
		claims = jwt.MapClaims{}
	}

	for _, required := range []string{"iss", "nbf", "exp", "scope"} {
		if _, ok := claims[required]; !ok {
			return nil, fmt.Errorf("%w: token %s misses required claim %q", ErrMalformedInput, id, required)
		}
	}

	aud, err := audienceString(claims)
	if err != nil {
		return nil, fmt.Errorf("%w: token %s: %v", ErrMalformedInput, id, err)
	}

	tok := &models.Token{
		ID:       id,
		Raw:      raw,
		Scope:    fmt.Sprintf("%v", claims["scope"]),
		Audience: aud,
	}
	if iss, ok := claims["iss"].(string); ok {
		tok.Issuer = iss
	}
	if nbf, err := claims.GetNotBefore(); err == nil && nbf != nil {
		tok.NotBefore = nbf.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		tok.ExpiresAt = exp.Time
	}
	return tok, nil
}

// audienceString normalizes the aud claim: absent or a string or a list of
// strings (joined with spaces). Any other shape is a validation failure.
func audienceString(claims jwt.MapClaims) (string, error) {
	v, ok := claims["aud"]
	if !ok {
		return "", nil
	}
	switch aud := v.(type) {
	case string:
		return aud, nil
	case []any:
		out := ""
		for i, item := range aud {
			s, ok := item.(string)
			if !ok {
				return "", fmt.Errorf("aud list holds a non-string element")
			}
			if i > 0 {
				out += " "
			}
			out += s
		}
		return out, nil
	default:
		return "", fmt.Errorf("aud claim has unsupported shape %T", v)
	}
}
