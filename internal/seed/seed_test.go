package seed

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func TestDefault(t *testing.T) {
	d, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if len(d.Categories) != 9 || len(d.Cities) != 12 {
		t.Fatalf("got %d categories, %d cities", len(d.Categories), len(d.Cities))
	}
	if d.Categories[0] != "Dentiști" {
		t.Fatalf("first category = %q", d.Categories[0])
	}
	m := d.Cities[2]
	if m.Name != "München" || m.State != "Bayern" || m.Lat != 48.1351 || m.Lng != 11.5820 {
		t.Fatalf("München = %+v", m)
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":   "categories: [A]\nregions: []\n",
		"slug clash":    "categories: [Medici, medici]\n",
		"empty name":    "categories: ['  ']\n",
		"bad latitude":  "categories: [A]\ncities: [{name: X, lat: 91, lng: 0}]\n",
		"no categories": "cities: [{name: X, lat: 1, lng: 1}]\n",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Errorf("%s: accepted", name)
		}
	}
}

func TestApply_UpsertsBySlug(t *testing.T) {
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	db := sqlx.NewDb(raw, "mysql")
	defer db.Close()

	d := Data{
		Categories: []string{"Mecanici Auto"},
		Cities:     []City{{Name: "Köln", State: "NRW", Lat: 50.9375, Lng: 6.9603}},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(upsertCategory)).
		WithArgs("Mecanici Auto", "mecanici-auto").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(upsertCity)).
		WithArgs("Köln", "koln", "NRW", 50.9375, 6.9603).
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	rep, err := Apply(context.Background(), db, d)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if rep.Categories != 1 || rep.Cities != 1 {
		t.Fatalf("report = %+v", rep)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestApply_RollsBack(t *testing.T) {
	raw, mock, _ := sqlmock.New()
	db := sqlx.NewDb(raw, "mysql")
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(upsertCategory)).WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	if _, err := Apply(context.Background(), db, Data{Categories: []string{"A"}}); err == nil {
		t.Fatalf("error swallowed")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
