package models

import "time"

// Token is a bearer credential referenced by file records. ID is derived
// from the raw token content, so identical tokens submitted in different
// fields collapse to one record.
type Token struct {
	ID        string
	Raw       string
	Issuer    string
	NotBefore time.Time
	ExpiresAt time.Time
	Scope     string
	// Audience holds the aud claim; list values are joined with spaces.
	Audience string
}
