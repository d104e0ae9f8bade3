package auth

import (
	"context"
	"database/sql"
	"fmt"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

// NewPGStore wraps an open database handle.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Users(context.Context) UserStore                 { return &userStore{db: s.db} }
func (s *PGStore) Organizations(context.Context) OrganizationStore { return &orgStore{db: s.db} }
func (s *PGStore) Staff(context.Context) StaffStore                { return &staffStore{db: s.db} }

// Join applies the provisioning batch in a single transaction. The staff
// insert is conditional: the organization's first member becomes
// Administrator, later joiners become Member, and a duplicate join by the
// same subject is a no-op against the existing record.
//
// The organization row is locked first. Under read committed, two different
// subjects racing into an empty org would otherwise each see an empty staff
// table in their own snapshot and both land as Administrator; the row lock
// forces the second transaction to wait and observe the first member. The org
// row always exists here because the invite code was validated against it.
func (s *PGStore) Join(ctx context.Context, req JoinRequest) (Membership, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Membership{}, false, err
	}
	defer func() { _ = tx.Rollback() }()

	var lockedID string
	if err := tx.QueryRowContext(ctx,
		`select id from organizations where id=$1 for update`,
		req.OrganizationID,
	).Scan(&lockedID); err != nil {
		if err == sql.ErrNoRows {
			return Membership{}, false, ErrNotFound
		}
		return Membership{}, false, fmt.Errorf("lock organization: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`insert into staff(organization_id, subject_id, name, email, position, role, avatar_url, joined)
		 select $1, $2, $3, $4, '',
		        case when exists(select 1 from staff where organization_id=$1) then 'Member' else 'Administrator' end,
		        $5, now()
		 on conflict (organization_id, subject_id) do nothing`,
		req.OrganizationID, req.SubjectID, req.DisplayName, req.Email, req.AvatarURL,
	)
	if err != nil {
		return Membership{}, false, fmt.Errorf("insert staff record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Membership{}, false, err
	}
	created := affected == 1

	var role Role
	row := tx.QueryRowContext(ctx,
		`select role from staff where organization_id=$1 and subject_id=$2`,
		req.OrganizationID, req.SubjectID,
	)
	if err := row.Scan(&role); err != nil {
		return Membership{}, false, fmt.Errorf("read settled role: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`insert into users(subject_id, email, display_name, avatar_url, organization_id, role)
		 values($1,$2,$3,$4,$5,$6)
		 on conflict (subject_id) do update
		    set email=excluded.email,
		        display_name=excluded.display_name,
		        avatar_url=excluded.avatar_url,
		        organization_id=excluded.organization_id,
		        role=excluded.role,
		        updated_at=now()`,
		req.SubjectID, req.Email, req.DisplayName, req.AvatarURL, req.OrganizationID, role,
	); err != nil {
		return Membership{}, false, fmt.Errorf("upsert user record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Membership{}, false, err
	}
	return Membership{SubjectID: req.SubjectID, OrganizationID: req.OrganizationID, Role: role}, created, nil
}

// User store ---------------------------------------------------------------

type userStore struct{ db *sql.DB }

func (s *userStore) Find(ctx context.Context, subjectID string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select subject_id, email, display_name, avatar_url, coalesce(organization_id,''), coalesce(role,''), created_at, updated_at
		   from users where subject_id=$1`, subjectID)
	var u User
	if err := row.Scan(&u.SubjectID, &u.Email, &u.DisplayName, &u.AvatarURL, &u.OrganizationID, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Organization store -------------------------------------------------------

type orgStore struct{ db *sql.DB }

func (s *orgStore) Create(ctx context.Context, org *Organization) error {
	_, err := s.db.ExecContext(ctx,
		`insert into organizations(id, name, created_by) values($1,$2,$3)`,
		org.ID, org.Name, org.CreatedBy,
	)
	return err
}

func (s *orgStore) Rename(ctx context.Context, id, name string) error {
	res, err := s.db.ExecContext(ctx,
		`update organizations set name=$2 where id=$1`, id, name)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *orgStore) Find(ctx context.Context, id string) (*Organization, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, created_by, created_at from organizations where id=$1`, id)
	var org Organization
	if err := row.Scan(&org.ID, &org.Name, &org.CreatedBy, &org.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

// Staff store --------------------------------------------------------------

type staffStore struct{ db *sql.DB }

func (s *staffStore) Find(ctx context.Context, orgID, subjectID string) (*StaffRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`select organization_id, subject_id, name, email, position, role, joined, avatar_url, coalesce(bio,''), created_at
		   from staff where organization_id=$1 and subject_id=$2`, orgID, subjectID)
	rec, err := scanStaff(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (s *staffStore) ListByOrg(ctx context.Context, orgID string) ([]*StaffRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`select organization_id, subject_id, name, email, position, role, joined, avatar_url, coalesce(bio,''), created_at
		   from staff where organization_id=$1 order by created_at`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*StaffRecord
	for rows.Next() {
		rec, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *staffStore) Create(ctx context.Context, rec *StaffRecord) error {
	_, err := s.db.ExecContext(ctx,
		`insert into staff(organization_id, subject_id, name, email, position, role, joined, avatar_url, bio)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 on conflict (organization_id, subject_id) do nothing`,
		rec.OrganizationID, rec.SubjectID, rec.Name, rec.Email, rec.Position, rec.Role, rec.Joined, rec.AvatarURL, rec.Bio,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStaff(row rowScanner) (*StaffRecord, error) {
	var rec StaffRecord
	if err := row.Scan(&rec.OrganizationID, &rec.SubjectID, &rec.Name, &rec.Email, &rec.Position,
		&rec.Role, &rec.Joined, &rec.AvatarURL, &rec.Bio, &rec.CreatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}
