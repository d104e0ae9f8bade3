package auth

import (
	"context"
	"sync"
)

// memStore is an in-memory Store used across the package tests. It mirrors
// the batch semantics of the PostgreSQL implementation.
type memStore struct {
	mu    sync.Mutex
	users map[string]*User
	orgs  map[string]*Organization
	staff map[string]*StaffRecord

	userErr  error
	staffErr error
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[string]*User),
		orgs:  make(map[string]*Organization),
		staff: make(map[string]*StaffRecord),
	}
}

func staffKey(orgID, subjectID string) string { return orgID + "|" + subjectID }

func (m *memStore) Users(context.Context) UserStore                 { return (*memUsers)(m) }
func (m *memStore) Organizations(context.Context) OrganizationStore { return (*memOrgs)(m) }
func (m *memStore) Staff(context.Context) StaffStore                { return (*memStaff)(m) }

func (m *memStore) Join(_ context.Context, req JoinRequest) (Membership, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orgs[req.OrganizationID]; !ok {
		return Membership{}, false, ErrNotFound
	}

	key := staffKey(req.OrganizationID, req.SubjectID)
	created := false
	if _, ok := m.staff[key]; !ok {
		role := RoleAdministrator
		for _, rec := range m.staff {
			if rec.OrganizationID == req.OrganizationID {
				role = RoleMember
				break
			}
		}
		m.staff[key] = &StaffRecord{
			OrganizationID: req.OrganizationID,
			SubjectID:      req.SubjectID,
			Name:           req.DisplayName,
			Email:          req.Email,
			Role:           role,
			AvatarURL:      req.AvatarURL,
		}
		created = true
	}
	role := m.staff[key].Role

	m.users[req.SubjectID] = &User{
		SubjectID:      req.SubjectID,
		Email:          req.Email,
		DisplayName:    req.DisplayName,
		AvatarURL:      req.AvatarURL,
		OrganizationID: req.OrganizationID,
		Role:           role,
	}
	return Membership{SubjectID: req.SubjectID, OrganizationID: req.OrganizationID, Role: role}, created, nil
}

type memUsers memStore

func (m *memUsers) Find(_ context.Context, subjectID string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.userErr != nil {
		return nil, m.userErr
	}
	u, ok := m.users[subjectID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

type memOrgs memStore

func (m *memOrgs) Create(_ context.Context, org *Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *org
	m.orgs[org.ID] = &copied
	return nil
}

func (m *memOrgs) Rename(_ context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	org, ok := m.orgs[id]
	if !ok {
		return ErrNotFound
	}
	org.Name = name
	return nil
}

func (m *memOrgs) Find(_ context.Context, id string) (*Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	org, ok := m.orgs[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *org
	return &copied, nil
}

type memStaff memStore

func (m *memStaff) Find(_ context.Context, orgID, subjectID string) (*StaffRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.staffErr != nil {
		return nil, m.staffErr
	}
	rec, ok := m.staff[staffKey(orgID, subjectID)]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (m *memStaff) ListByOrg(_ context.Context, orgID string) ([]*StaffRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var recs []*StaffRecord
	for _, rec := range m.staff {
		if rec.OrganizationID == orgID {
			copied := *rec
			recs = append(recs, &copied)
		}
	}
	return recs, nil
}

func (m *memStaff) Create(_ context.Context, rec *StaffRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := staffKey(rec.OrganizationID, rec.SubjectID)
	if _, ok := m.staff[key]; ok {
		return nil
	}
	copied := *rec
	m.staff[key] = &copied
	return nil
}
