package auth

import "context"

// Store describes persistence operations required by the auth subsystem.
type Store interface {
	Users(ctx context.Context) UserStore
	Organizations(ctx context.Context) OrganizationStore
	Staff(ctx context.Context) StaffStore

	// Join applies the provisioning batch atomically: create the staff record
	// (Administrator for the organization's first member, the requested role
	// otherwise) and point the global user record at the organization.
	// A duplicate join by the same subject returns the existing membership
	// with created=false.
	Join(ctx context.Context, req JoinRequest) (Membership, bool, error)
}

// JoinRequest carries everything the provisioning batch writes.
type JoinRequest struct {
	SubjectID      string
	OrganizationID string
	Email          string
	DisplayName    string
	AvatarURL      string
}

// UserStore manages global user-directory records.
type UserStore interface {
	Find(ctx context.Context, subjectID string) (*User, error)
}

// OrganizationStore manages tenants. Ids are immutable; only the display name
// may change after creation.
type OrganizationStore interface {
	Create(ctx context.Context, org *Organization) error
	Find(ctx context.Context, id string) (*Organization, error)
	Rename(ctx context.Context, id, name string) error
}

// StaffStore manages per-organization membership records.
type StaffStore interface {
	Find(ctx context.Context, orgID, subjectID string) (*StaffRecord, error)
	ListByOrg(ctx context.Context, orgID string) ([]*StaffRecord, error)
	Create(ctx context.Context, rec *StaffRecord) error
}
