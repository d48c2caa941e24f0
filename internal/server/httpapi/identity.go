package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated submitter: the distinguished name and VO,
// plus how they authenticated. TokenAuth decides whether the builder runs
// token registration.
type Identity struct {
	DN        string
	VO        string
	TokenAuth bool
	Bearer    string
}

type ctxKey int

const identityKey ctxKey = 0

// IdentityFrom extracts the authenticated identity stored by the auth
// middleware.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// bearerClaims are the claims expected in a caller's bearer token.
type bearerClaims struct {
	jwt.RegisteredClaims
	VO string `json:"vo"`
}

var errNoCredentials = errors.New("no credentials presented")

// resolveIdentity authenticates one request: a bearer token verified with
// the configured secret, or the subject headers set by a TLS-terminating
// gateway for certificate clients.
func resolveIdentity(r *http.Request, secret []byte) (Identity, error) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		raw, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok {
			return Identity{}, fmt.Errorf("unsupported authorization scheme")
		}
		claims := &bearerClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			return secret, nil
		})
		if err != nil {
			return Identity{}, fmt.Errorf("invalid bearer token: %w", err)
		}
		if !token.Valid || claims.Subject == "" || claims.VO == "" {
			return Identity{}, fmt.Errorf("bearer token misses sub or vo")
		}
		return Identity{DN: claims.Subject, VO: claims.VO, TokenAuth: true, Bearer: raw}, nil
	}

	if dn := r.Header.Get("X-Subject-DN"); dn != "" {
		vo := r.Header.Get("X-VO")
		if vo == "" {
			return Identity{}, fmt.Errorf("certificate client without VO header")
		}
		return Identity{DN: dn, VO: vo}, nil
	}

	return Identity{}, errNoCredentials
}
