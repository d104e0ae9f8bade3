package directory

import (
	"context"
	"database/sql"

	"cdash.org/internal/ids"
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

func (s *PGStore) ListAssets(ctx context.Context, orgID string) ([]*Asset, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, organization_id, name, type, summary, acquired, cost, currency, status,
		        purpose, technical_details, sub_category, recurrent_expenditure, recurrent_currency, created_at
		   from assets where organization_id=$1 order by created_at`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []*Asset
	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.ID, &a.OrganizationID, &a.Name, &a.Type, &a.Summary, &a.Acquired,
			&a.Cost, &a.Currency, &a.Status, &a.Purpose, &a.TechnicalDetails, &a.SubCategory,
			&a.RecurrentExpenditure, &a.RecurrentCurrency, &a.CreatedAt); err != nil {
			return nil, err
		}
		assets = append(assets, &a)
	}
	return assets, rows.Err()
}

func (s *PGStore) CreateAsset(ctx context.Context, asset *Asset) error {
	if asset.ID == "" {
		asset.ID = ids.New()
	}
	if asset.Currency == "" {
		asset.Currency = "NGN"
	}
	if asset.RecurrentCurrency == "" {
		asset.RecurrentCurrency = "NGN"
	}
	_, err := s.db.ExecContext(ctx,
		`insert into assets(id, organization_id, name, type, summary, acquired, cost, currency, status,
		                    purpose, technical_details, sub_category, recurrent_expenditure, recurrent_currency)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		asset.ID, asset.OrganizationID, asset.Name, asset.Type, asset.Summary, asset.Acquired,
		asset.Cost, asset.Currency, asset.Status, asset.Purpose, asset.TechnicalDetails,
		asset.SubCategory, asset.RecurrentExpenditure, asset.RecurrentCurrency,
	)
	return err
}
