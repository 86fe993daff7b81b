// Package directory implements the listing catalogue: categories, cities,
// listings, and the public recommendation (submission) workflow.
//
// Storage is reached through Repository so the workflow and query logic can
// run against MySQL (SQLRepository) or an in-memory double in tests.
package directory

import (
	"database/sql"
	"errors"
	"time"

	"github.com/servicii-ro/directory/internal/geo"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation failed")
	ErrInvalidCity    = errors.New("city name is empty")
	ErrNoCategories   = errors.New("no categories configured")
	ErrAlreadyDecided = errors.New("submission already decided")
)

// Category is immutable reference data created by the seeder.
type Category struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
	Slug string `db:"slug"`
}

// City carries an optional centroid used as the position of every listing
// in that city.
type City struct {
	ID    int64           `db:"id"`
	Name  string          `db:"name"`
	Slug  string          `db:"slug"`
	State sql.NullString  `db:"state"`
	Lat   sql.NullFloat64 `db:"lat"`
	Lng   sql.NullFloat64 `db:"lng"`
}

// Centroid returns the city centre when both coordinates are set.
func (c City) Centroid() (geo.Point, bool) {
	if !c.Lat.Valid || !c.Lng.Valid {
		return geo.Point{}, false
	}
	return geo.Point{Lat: c.Lat.Float64, Lng: c.Lng.Float64}, true
}

// Listing is a published provider record.
type Listing struct {
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	Slug        string         `db:"slug"`
	Description sql.NullString `db:"description"`
	CategoryID  int64          `db:"category_id"`
	CityID      int64          `db:"city_id"`
	Address     sql.NullString `db:"address"`
	Phone       sql.NullString `db:"phone"`
	WhatsApp    sql.NullString `db:"whatsapp"`
	Website     sql.NullString `db:"website"`
	Languages   string         `db:"languages"`
	Verified    bool           `db:"verified"`
	Featured    bool           `db:"featured"`
	ImageURL    sql.NullString `db:"image_url"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// LanguageList decodes Languages.
func (l Listing) LanguageList() []string { return DecodeLanguages(l.Languages) }

// ListingView is a Listing joined with its category and city, as rendered
// on every public page.
type ListingView struct {
	Listing
	CategoryName string          `db:"category_name"`
	CategorySlug string          `db:"category_slug"`
	CityName     string          `db:"city_name"`
	CitySlug     string          `db:"city_slug"`
	CityLat      sql.NullFloat64 `db:"city_lat"`
	CityLng      sql.NullFloat64 `db:"city_lng"`

	// DistanceKm is set only by radius searches.
	DistanceKm *float64 `db:"-"`
}

// Status is the moderation state of a Submission.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Submission is an unmoderated public recommendation.  CategoryName and
// CityName are free text and are reconciled only at approval time.
type Submission struct {
	ID             int64          `db:"id"`
	BusinessName   string         `db:"business_name"`
	CategoryName   string         `db:"category_name"`
	CityName       string         `db:"city_name"`
	Contact        sql.NullString `db:"contact"`
	Website        sql.NullString `db:"website"`
	Message        sql.NullString `db:"message"`
	SubmitterName  sql.NullString `db:"submitter_name"`
	SubmitterEmail sql.NullString `db:"submitter_email"`
	Status         Status         `db:"status"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

// nullable maps "" to NULL.
func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
