package directory

import (
	"context"

	"github.com/servicii-ro/directory/internal/geo"
)

// ListingFilter is the storage-level form of a listing query.  Zero values
// disable a criterion.
type ListingFilter struct {
	CategoryID   int64
	CityID       int64
	Text         string
	Box          *geo.Box // pre-filter on the city centroid
	VerifiedOnly bool
	FeaturedOnly bool
	Limit        uint
}

// Stats feeds the admin dashboard.
type Stats struct {
	PendingSubmissions int `db:"pending"`
	Listings           int `db:"listings"`
	Featured           int `db:"featured"`
}

// Repository is every query the directory issues.  Lookups of a single row
// return ErrNotFound when nothing matches.
type Repository interface {
	Categories(ctx context.Context) ([]Category, error)
	CategoryBySlug(ctx context.Context, slug string) (Category, error)
	// CategoryByName matches case-insensitively on the whole name.
	CategoryByName(ctx context.Context, name string) (Category, error)
	// FirstCategory returns the alphabetically first category.
	FirstCategory(ctx context.Context) (Category, error)

	Cities(ctx context.Context) ([]City, error)
	CityBySlug(ctx context.Context, slug string) (City, error)
	CityByName(ctx context.Context, name string) (City, error)
	CitySlugExists(ctx context.Context, slug string) (bool, error)
	// CreateCity inserts c and sets c.ID.
	CreateCity(ctx context.Context, c *City) error

	ListingByID(ctx context.Context, id int64) (Listing, error)
	ListingBySlug(ctx context.Context, slug string) (ListingView, error)
	ListingSlugExists(ctx context.Context, slug string) (bool, error)
	// CreateListing inserts l and sets l.ID and both timestamps.
	CreateListing(ctx context.Context, l *Listing) error
	// UpdateListing rewrites every mutable column and bumps updated_at.
	UpdateListing(ctx context.Context, l *Listing) error
	DeleteListing(ctx context.Context, id int64) error
	SearchListings(ctx context.Context, f ListingFilter) ([]ListingView, error)
	FeaturedListings(ctx context.Context, limit uint) ([]ListingView, error)
	// AdminListings filters by name substring, newest update first.
	AdminListings(ctx context.Context, nameLike string) ([]ListingView, error)
	ListingSlugs(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (Stats, error)

	// CreateSubmission inserts s as PENDING and sets s.ID.
	CreateSubmission(ctx context.Context, s *Submission) error
	SubmissionByID(ctx context.Context, id int64) (Submission, error)
	Submissions(ctx context.Context) ([]Submission, error)
	// TransitionSubmission moves id from one status to another and reports
	// whether a row changed.  It never overwrites a status other than from.
	TransitionSubmission(ctx context.Context, id int64, from, to Status) (bool, error)
}

// Store is a Repository that can also run a function inside one
// transaction.  fn receives a Repository bound to that transaction; a
// non-nil return rolls everything back.
type Store interface {
	Repository
	InTx(ctx context.Context, fn func(Repository) error) error
}
