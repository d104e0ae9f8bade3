package auth

import (
	"context"
	"fmt"
	"time"
)

// DefaultSessionTTL matches the original product decision of five days.
const DefaultSessionTTL = 5 * 24 * time.Hour

// Session is a freshly minted session artifact plus the claims it carries.
type Session struct {
	Artifact  string
	ExpiresAt time.Time
	Claims    Claims
}

// Synchronizer writes resolved membership onto the subject's identity record
// and mints session artifacts. The ordering is fixed: resolution completes
// before the claims write, and the claims write completes before a session is
// minted. A session carrying stale or absent claims must never be issued.
type Synchronizer struct {
	provider IdentityProvider
	resolver *Resolver
	ttl      time.Duration
}

// SynchronizerOption configures a Synchronizer.
type SynchronizerOption func(*Synchronizer)

// WithSessionTTL overrides the session artifact lifetime.
func WithSessionTTL(ttl time.Duration) SynchronizerOption {
	return func(s *Synchronizer) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewSynchronizer constructs a Synchronizer.
func NewSynchronizer(provider IdentityProvider, resolver *Resolver, opts ...SynchronizerOption) *Synchronizer {
	s := &Synchronizer{
		provider: provider,
		resolver: resolver,
		ttl:      DefaultSessionTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SessionTTL returns the configured artifact lifetime.
func (s *Synchronizer) SessionTTL() time.Duration {
	return s.ttl
}

// Synchronize resolves the subject's membership, writes it as custom claims,
// and mints a session artifact carrying those claims.
//
// Returns ErrNoOrganization when the subject is unresolved: issuance is
// refused and the caller routes the subject to provisioning. Returns
// ErrResolutionFailed (retryable) or ErrClaimsWriteFailed (fatal, no session)
// on the respective stage failures. The claims write is idempotent, so
// retrying a failed synchronization is always safe.
func (s *Synchronizer) Synchronize(ctx context.Context, subjectID string) (Session, error) {
	res, err := s.resolver.Resolve(ctx, subjectID)
	if err != nil {
		return Session{}, err
	}
	if !res.Resolved {
		return Session{}, ErrNoOrganization
	}

	claims := Claims{OrganizationID: res.OrganizationID, Role: res.Role}
	if err := s.provider.SetClaims(ctx, subjectID, claims); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrClaimsWriteFailed, err)
	}

	artifact, expiresAt, err := s.provider.MintSession(ctx, subjectID, claims, s.ttl)
	if err != nil {
		return Session{}, fmt.Errorf("mint session: %w", err)
	}
	return Session{Artifact: artifact, ExpiresAt: expiresAt, Claims: claims}, nil
}

// IssueUnclaimed mints a session artifact with no organization claims for a
// subject that authenticated but has not joined an organization yet. The
// route guard sends such sessions to the join flow.
func (s *Synchronizer) IssueUnclaimed(ctx context.Context, subjectID string) (Session, error) {
	artifact, expiresAt, err := s.provider.MintSession(ctx, subjectID, Claims{}, s.ttl)
	if err != nil {
		return Session{}, fmt.Errorf("mint session: %w", err)
	}
	return Session{Artifact: artifact, ExpiresAt: expiresAt}, nil
}
