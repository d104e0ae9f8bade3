package idp

import (
	"context"
	"database/sql"
	"sync"

	"cdash.org/internal/auth"
)

// ClaimsStore persists custom-claims records keyed by subject id. It stands
// in for the provider's identity records.
type ClaimsStore interface {
	Get(ctx context.Context, subjectID string) (auth.Claims, bool, error)
	Set(ctx context.Context, subjectID string, claims auth.Claims) error
}

// PGClaimsStore stores claims records in PostgreSQL.
type PGClaimsStore struct {
	db *sql.DB
}

var _ ClaimsStore = (*PGClaimsStore)(nil)

// NewPGClaimsStore wraps an open database handle.
func NewPGClaimsStore(db *sql.DB) *PGClaimsStore {
	return &PGClaimsStore{db: db}
}

func (s *PGClaimsStore) Get(ctx context.Context, subjectID string) (auth.Claims, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`select organization_id, role from identity_claims where subject_id=$1`, subjectID)
	var claims auth.Claims
	if err := row.Scan(&claims.OrganizationID, &claims.Role); err != nil {
		if err == sql.ErrNoRows {
			return auth.Claims{}, false, nil
		}
		return auth.Claims{}, false, err
	}
	return claims, true, nil
}

func (s *PGClaimsStore) Set(ctx context.Context, subjectID string, claims auth.Claims) error {
	_, err := s.db.ExecContext(ctx,
		`insert into identity_claims(subject_id, organization_id, role)
		 values($1,$2,$3)
		 on conflict (subject_id) do update
		    set organization_id=excluded.organization_id,
		        role=excluded.role,
		        updated_at=now()`,
		subjectID, claims.OrganizationID, claims.Role,
	)
	return err
}

// MemoryClaimsStore is an in-process ClaimsStore for degraded mode and tests.
type MemoryClaimsStore struct {
	mu      sync.Mutex
	records map[string]auth.Claims
	writes  int
}

var _ ClaimsStore = (*MemoryClaimsStore)(nil)

// NewMemoryClaimsStore returns an empty in-memory store.
func NewMemoryClaimsStore() *MemoryClaimsStore {
	return &MemoryClaimsStore{records: make(map[string]auth.Claims)}
}

func (s *MemoryClaimsStore) Get(_ context.Context, subjectID string) (auth.Claims, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	claims, ok := s.records[subjectID]
	return claims, ok, nil
}

func (s *MemoryClaimsStore) Set(_ context.Context, subjectID string, claims auth.Claims) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[subjectID] = claims
	s.writes++
	return nil
}

// Writes reports how many physical writes were applied. Tests use it to check
// idempotence.
func (s *MemoryClaimsStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
