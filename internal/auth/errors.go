package auth

import "errors"

var (
	// Verification-time failures. Always fail closed.
	ErrInvalidToken   = errors.New("auth: invalid token")
	ErrExpiredToken   = errors.New("auth: token expired")
	ErrMalformedToken = errors.New("auth: malformed token")

	// ErrResolutionFailed is a storage-layer failure during membership
	// resolution. Retryable; never conflated with an unresolved subject.
	ErrResolutionFailed = errors.New("auth: membership resolution failed")

	// ErrNoOrganization means the subject is authenticated but belongs to no
	// organization. Not a failure: the caller routes to provisioning.
	ErrNoOrganization = errors.New("auth: subject has no organization")

	// ErrClaimsWriteFailed means the identity provider rejected the claims
	// write. Fatal for the request; no session is issued.
	ErrClaimsWriteFailed = errors.New("auth: claims write failed")

	// ErrInvalidInviteCode is a user-facing validation failure; no state is
	// mutated.
	ErrInvalidInviteCode = errors.New("auth: invalid invite code")

	// ErrAlreadyMember marks an idempotent duplicate join. Callers treat it
	// as success.
	ErrAlreadyMember = errors.New("auth: already a member")

	ErrNotFound = errors.New("auth: not found")
)
