package auth

import (
	"context"
	"time"
)

// Role is a membership role inside an organization. The set below is closed
// for authorization decisions, but the resolver carries unknown values
// opaquely so finer roles (ICT Manager, Finance Officer, Read Only) can be
// introduced without touching the precedence rules.
type Role string

const (
	RoleAdministrator Role = "Administrator"
	RoleMember        Role = "Member"
)

// Known reports whether the role belongs to the closed decision set.
func (r Role) Known() bool {
	return r == RoleAdministrator || r == RoleMember
}

// Claims is the signed {organizationId, role} snapshot embedded in session
// artifacts after synchronization. It is eventually consistent with the
// membership records: correct as of the last synchronization, stale until the
// next forced token refresh.
type Claims struct {
	OrganizationID string `json:"organizationId,omitempty"`
	Role           Role   `json:"role,omitempty"`
}

// HasOrganization reports whether the claims bind the subject to a tenant.
func (c Claims) HasOrganization() bool {
	return c.OrganizationID != ""
}

// Identity is the verified outcome of a token check: the subject the token
// was issued to plus whatever claims were cryptographically bound to it. A
// freshly issued ID token carries empty Claims until synchronized.
type Identity struct {
	SubjectID   string
	Email       string
	DisplayName string
	AvatarURL   string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	Claims      Claims
}

// User is the global user-directory record. Its organization id is the
// candidate used by the resolver; its role field is a fallback only and must
// never override the per-organization staff record.
type User struct {
	SubjectID      string
	Email          string
	DisplayName    string
	AvatarURL      string
	OrganizationID string
	Role           Role
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Organization is a tenant. Its id doubles as the invite code for the join
// flow and is immutable once created.
type Organization struct {
	ID        string
	Name      string
	CreatedBy string
	CreatedAt time.Time
}

// StaffRecord is the per-organization membership record. Authoritative for
// the subject's role within that organization.
type StaffRecord struct {
	OrganizationID string
	SubjectID      string
	Name           string
	Email          string
	Position       string
	Role           Role
	Joined         time.Time
	AvatarURL      string
	Bio            string
	CreatedAt      time.Time
}

// Membership binds a subject to an organization with a role. At most one
// membership per subject is authoritative at any time.
type Membership struct {
	SubjectID      string
	OrganizationID string
	Role           Role
}

// IdentityProvider is the external provider trusted for subject identity.
// Implementations must be safe for concurrent use; verification has no side
// effects.
type IdentityProvider interface {
	// VerifyIDToken checks a bearer ID token freshly issued by the provider.
	VerifyIDToken(ctx context.Context, token string) (*Identity, error)
	// VerifySession checks a longer-lived session artifact, returning the
	// claims embedded at issuance.
	VerifySession(ctx context.Context, artifact string) (*Identity, error)
	// MintSession issues a new session artifact carrying the given claims.
	MintSession(ctx context.Context, subjectID string, claims Claims, ttl time.Duration) (string, time.Time, error)
	// SetClaims writes the claims onto the subject's identity record.
	// Writing the same value twice is a no-op.
	SetClaims(ctx context.Context, subjectID string, claims Claims) error
}
