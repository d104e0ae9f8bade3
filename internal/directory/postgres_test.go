package directory

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestListAssets(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("select id, organization_id, name").
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "organization_id", "name", "type", "summary", "acquired", "cost", "currency", "status",
			"purpose", "technical_details", "sub_category", "recurrent_expenditure", "recurrent_currency", "created_at",
		}).AddRow("a-1", "org-1", "Laptop", "Hardware", "", now, 850000.0, "NGN", "In Use", "", "", "Laptop", 0.0, "NGN", now))

	assets, err := NewPGStore(db).ListAssets(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(assets) != 1 || assets[0].Name != "Laptop" {
		t.Fatalf("assets = %+v", assets)
	}
}

func TestCreateAssetDefaults(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("insert into assets").
		WithArgs(sqlmock.AnyArg(), "org-1", "Laptop", "", "", sqlmock.AnyArg(), 0.0, "NGN", "",
			"", "", "", 0.0, "NGN").
		WillReturnResult(sqlmock.NewResult(0, 1))

	asset := &Asset{OrganizationID: "org-1", Name: "Laptop"}
	if err := NewPGStore(db).CreateAsset(context.Background(), asset); err != nil {
		t.Fatalf("create: %v", err)
	}
	if asset.ID == "" {
		t.Fatal("no id generated")
	}
	if asset.Currency != "NGN" || asset.RecurrentCurrency != "NGN" {
		t.Fatalf("currency defaults = %q/%q", asset.Currency, asset.RecurrentCurrency)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
