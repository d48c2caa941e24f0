package submission

import "errors"

// Error categories for a failed submission. Every error returned by the
// builder wraps exactly one of these, so callers can distinguish "fix your
// request" from "this resource is unavailable" without string matching.
var (
	// ErrMalformedInput covers bad URIs, bad payload shapes and bad
	// metadata.
	ErrMalformedInput = errors.New("malformed input")

	// ErrPolicyViolation covers valid payloads that break a submission
	// rule: incompatible overwrite flags, wrong job-type combination,
	// unsupported ranking strategy, and similar.
	ErrPolicyViolation = errors.New("policy violation")

	// ErrAuthorizationDenied is returned when a banned storage or user
	// blocks the submission outright.
	ErrAuthorizationDenied = errors.New("authorization denied")

	// ErrInternalInconsistency marks states that must never occur; it is
	// logged but not exposed verbatim to callers.
	ErrInternalInconsistency = errors.New("internal inconsistency")
)
