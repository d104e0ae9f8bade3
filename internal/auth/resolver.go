package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Resolution is the resolver outcome. Resolved=false means the subject exists
// but belongs to no organization; it is a legitimate state, not a failure.
type Resolution struct {
	Resolved       bool
	OrganizationID string
	Role           Role
}

// Membership returns the resolved binding.
func (r Resolution) Membership(subjectID string) Membership {
	return Membership{SubjectID: subjectID, OrganizationID: r.OrganizationID, Role: r.Role}
}

// Resolver determines a verified subject's organization and role. Read-only.
//
// Precedence, first hit wins:
//  1. per-organization staff record under the candidate organization id taken
//     from the global user record; its role is authoritative;
//  2. role field on the global user record, under the same candidate
//     organization;
//  3. no candidate organization at all → unresolved.
//
// Role changes are made by tenant administrators on the staff record, so
// stale global data must never override it.
type Resolver struct {
	store Store
}

// NewResolver constructs a Resolver over the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve looks up the subject's membership. Storage failures surface as
// ErrResolutionFailed; callers may retry those but must not retry an
// unresolved result without new membership data.
func (r *Resolver) Resolve(ctx context.Context, subjectID string) (Resolution, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return Resolution{}, fmt.Errorf("%w: empty subject id", ErrResolutionFailed)
	}

	user, err := r.store.Users(ctx).Find(ctx, subjectID)
	if errors.Is(err, ErrNotFound) {
		return Resolution{}, nil
	}
	if err != nil {
		return Resolution{}, fmt.Errorf("%w: load user record: %v", ErrResolutionFailed, err)
	}
	if user.OrganizationID == "" {
		return Resolution{}, nil
	}

	staff, err := r.store.Staff(ctx).Find(ctx, user.OrganizationID, subjectID)
	switch {
	case err == nil:
		return Resolution{
			Resolved:       true,
			OrganizationID: user.OrganizationID,
			Role:           fallbackRole(staff.Role),
		}, nil
	case errors.Is(err, ErrNotFound):
		// Staff record missing: tolerate the inconsistency the provisioning
		// batch minimizes and fall back to the global record's role.
		return Resolution{
			Resolved:       true,
			OrganizationID: user.OrganizationID,
			Role:           fallbackRole(user.Role),
		}, nil
	default:
		return Resolution{}, fmt.Errorf("%w: load staff record: %v", ErrResolutionFailed, err)
	}
}

func fallbackRole(r Role) Role {
	if strings.TrimSpace(string(r)) == "" {
		return RoleMember
	}
	return r
}
