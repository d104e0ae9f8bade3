// Package directory holds the org-scoped CRUD records the application tracks.
// It consumes the auth core's output (a verified identity plus resolved
// tenant) and contains no authorization logic of its own.
package directory

import (
	"context"
	"time"
)

// Asset is a tracked ICT asset.
type Asset struct {
	ID                   string    `json:"id"`
	OrganizationID       string    `json:"-"`
	Name                 string    `json:"name"`
	Type                 string    `json:"type"`
	Summary              string    `json:"summary"`
	Acquired             time.Time `json:"acquired"`
	Cost                 float64   `json:"cost"`
	Currency             string    `json:"currency"`
	Status               string    `json:"status"`
	Purpose              string    `json:"purpose"`
	TechnicalDetails     string    `json:"technicalDetails"`
	SubCategory          string    `json:"subCategory"`
	RecurrentExpenditure float64   `json:"recurrentExpenditure,omitempty"`
	RecurrentCurrency    string    `json:"recurrentCurrency,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
}

// Store manages asset records. All reads and writes are scoped to one
// organization.
type Store interface {
	ListAssets(ctx context.Context, orgID string) ([]*Asset, error)
	CreateAsset(ctx context.Context, asset *Asset) error
}
