package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"

	"github.com/servicii-ro/directory/internal/database"
)

// dialect renders composed listing queries; single-row statements below are
// written by hand.
var dialect = goqu.Dialect("mysql")

// SQLRepository implements Repository on MySQL.  It runs against either the
// pool or an open transaction.
type SQLRepository struct {
	q   sqlx.ExtContext
	now func() time.Time
}

// SQLStore is the pool-backed Store.
type SQLStore struct {
	*SQLRepository
	db *sqlx.DB
}

// NewSQLStore wraps db.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{
		SQLRepository: &SQLRepository{q: db, now: utcNow},
		db:            db,
	}
}

// InTx runs fn against a repository bound to one transaction.
func (s *SQLStore) InTx(ctx context.Context, fn func(Repository) error) error {
	return database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(&SQLRepository{q: tx, now: s.now})
	})
}

func utcNow() time.Time { return time.Now().UTC().Truncate(time.Second) }

// one maps sql.ErrNoRows to ErrNotFound.
func one(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

//
// Categories
//

const categoryCols = `id, name, slug`

func (r *SQLRepository) Categories(ctx context.Context) ([]Category, error) {
	var out []Category
	err := sqlx.SelectContext(ctx, r.q, &out,
		`SELECT `+categoryCols+` FROM category ORDER BY name ASC`)
	return out, err
}

func (r *SQLRepository) CategoryBySlug(ctx context.Context, slug string) (Category, error) {
	var c Category
	err := sqlx.GetContext(ctx, r.q, &c,
		`SELECT `+categoryCols+` FROM category WHERE slug = ? LIMIT 1`, slug)
	return c, one(err, "category "+slug)
}

func (r *SQLRepository) CategoryByName(ctx context.Context, name string) (Category, error) {
	var c Category
	err := sqlx.GetContext(ctx, r.q, &c,
		`SELECT `+categoryCols+` FROM category WHERE LOWER(name) = LOWER(?) ORDER BY id ASC LIMIT 1`, name)
	return c, one(err, "category "+name)
}

func (r *SQLRepository) FirstCategory(ctx context.Context) (Category, error) {
	var c Category
	err := sqlx.GetContext(ctx, r.q, &c,
		`SELECT `+categoryCols+` FROM category ORDER BY name ASC LIMIT 1`)
	return c, one(err, "first category")
}

//
// Cities
//

const cityCols = `id, name, slug, state, lat, lng`

func (r *SQLRepository) Cities(ctx context.Context) ([]City, error) {
	var out []City
	err := sqlx.SelectContext(ctx, r.q, &out,
		`SELECT `+cityCols+` FROM city ORDER BY name ASC`)
	return out, err
}

func (r *SQLRepository) CityBySlug(ctx context.Context, slug string) (City, error) {
	var c City
	err := sqlx.GetContext(ctx, r.q, &c,
		`SELECT `+cityCols+` FROM city WHERE slug = ? LIMIT 1`, slug)
	return c, one(err, "city "+slug)
}

func (r *SQLRepository) CityByName(ctx context.Context, name string) (City, error) {
	var c City
	err := sqlx.GetContext(ctx, r.q, &c,
		`SELECT `+cityCols+` FROM city WHERE LOWER(name) = LOWER(?) ORDER BY id ASC LIMIT 1`, name)
	return c, one(err, "city "+name)
}

func (r *SQLRepository) CitySlugExists(ctx context.Context, slug string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM city WHERE slug = ? LIMIT 1`, slug)
}

func (r *SQLRepository) CreateCity(ctx context.Context, c *City) error {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO city (name, slug, state, lat, lng) VALUES (?, ?, ?, ?, ?)`,
		c.Name, c.Slug, c.State, c.Lat, c.Lng)
	if err != nil {
		return fmt.Errorf("insert city: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

func (r *SQLRepository) exists(ctx context.Context, q string, args ...any) (bool, error) {
	var hit int
	err := sqlx.GetContext(ctx, r.q, &hit, q, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

//
// Listings
//

const listingCols = `id, name, slug, description, category_id, city_id, address, phone,
       whatsapp, website, languages, verified, featured, image_url, created_at, updated_at`

func (r *SQLRepository) ListingByID(ctx context.Context, id int64) (Listing, error) {
	var l Listing
	err := sqlx.GetContext(ctx, r.q, &l,
		`SELECT `+listingCols+` FROM listing WHERE id = ? LIMIT 1`, id)
	return l, one(err, fmt.Sprintf("listing %d", id))
}

func (r *SQLRepository) ListingBySlug(ctx context.Context, slug string) (ListingView, error) {
	var v ListingView
	q, args, err := listingViews().Where(goqu.I("l.slug").Eq(slug)).Limit(1).ToSQL()
	if err != nil {
		return v, fmt.Errorf("build listing query: %w", err)
	}
	err = sqlx.GetContext(ctx, r.q, &v, q, args...)
	return v, one(err, "listing "+slug)
}

func (r *SQLRepository) ListingSlugExists(ctx context.Context, slug string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM listing WHERE slug = ? LIMIT 1`, slug)
}

func (r *SQLRepository) CreateListing(ctx context.Context, l *Listing) error {
	now := r.now()
	res, err := r.q.ExecContext(ctx, `
        INSERT INTO listing (name, slug, description, category_id, city_id, address, phone,
                             whatsapp, website, languages, verified, featured, image_url,
                             created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.Name, l.Slug, l.Description, l.CategoryID, l.CityID, l.Address, l.Phone,
		l.WhatsApp, l.Website, l.Languages, l.Verified, l.Featured, l.ImageURL,
		now, now)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	if l.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	l.CreatedAt, l.UpdatedAt = now, now
	return nil
}

func (r *SQLRepository) UpdateListing(ctx context.Context, l *Listing) error {
	now := r.now()
	res, err := r.q.ExecContext(ctx, `
        UPDATE listing
        SET    name = ?, description = ?, category_id = ?, city_id = ?, address = ?,
               phone = ?, whatsapp = ?, website = ?, languages = ?, verified = ?,
               featured = ?, image_url = ?, updated_at = ?
        WHERE  id = ?`,
		l.Name, l.Description, l.CategoryID, l.CityID, l.Address,
		l.Phone, l.WhatsApp, l.Website, l.Languages, l.Verified,
		l.Featured, l.ImageURL, now, l.ID)
	if err != nil {
		return fmt.Errorf("update listing %d: %w", l.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update listing %d: %w", l.ID, ErrNotFound)
	}
	l.UpdatedAt = now
	return nil
}

func (r *SQLRepository) DeleteListing(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM listing WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete listing %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete listing %d: %w", id, ErrNotFound)
	}
	return nil
}

// listingViews selects listings joined with their category and city.  Both
// joins are many-to-one, so every listing appears at most once.
func listingViews() *goqu.SelectDataset {
	return dialect.From(goqu.T("listing").As("l")).
		Join(goqu.T("category").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("l.category_id")))).
		Join(goqu.T("city").As("ci"), goqu.On(goqu.I("ci.id").Eq(goqu.I("l.city_id")))).
		Select(
			goqu.I("l.id"), goqu.I("l.name"), goqu.I("l.slug"), goqu.I("l.description"),
			goqu.I("l.category_id"), goqu.I("l.city_id"), goqu.I("l.address"),
			goqu.I("l.phone"), goqu.I("l.whatsapp"), goqu.I("l.website"),
			goqu.I("l.languages"), goqu.I("l.verified"), goqu.I("l.featured"),
			goqu.I("l.image_url"), goqu.I("l.created_at"), goqu.I("l.updated_at"),
			goqu.I("c.name").As("category_name"), goqu.I("c.slug").As("category_slug"),
			goqu.I("ci.name").As("city_name"), goqu.I("ci.slug").As("city_slug"),
			goqu.I("ci.lat").As("city_lat"), goqu.I("ci.lng").As("city_lng"),
		).
		Prepared(true)
}

// defaultOrder is shared by every public listing query.
var defaultOrder = []exp.OrderedExpression{
	goqu.I("l.featured").Desc(),
	goqu.I("l.verified").Desc(),
	goqu.I("l.updated_at").Desc(),
	goqu.I("l.id").Desc(),
}

// likePattern wraps s for a substring LIKE, escaping LIKE metacharacters.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// searchDataset composes f into a SELECT.  Exposed to tests through
// SearchSQL.
func searchDataset(f ListingFilter) *goqu.SelectDataset {
	ds := listingViews()
	if f.CategoryID != 0 {
		ds = ds.Where(goqu.I("l.category_id").Eq(f.CategoryID))
	}
	if f.CityID != 0 {
		ds = ds.Where(goqu.I("l.city_id").Eq(f.CityID))
	}
	if t := strings.TrimSpace(f.Text); t != "" {
		pat := likePattern(t)
		ds = ds.Where(goqu.Or(
			goqu.I("l.name").ILike(pat),
			goqu.I("l.description").ILike(pat),
			goqu.I("c.name").ILike(pat),
			goqu.I("ci.name").ILike(pat),
			goqu.I("l.languages").ILike(pat),
		))
	}
	if f.Box != nil {
		ds = ds.Where(
			goqu.I("ci.lat").Between(goqu.Range(f.Box.MinLat, f.Box.MaxLat)),
			goqu.I("ci.lng").Between(goqu.Range(f.Box.MinLng, f.Box.MaxLng)),
		)
	}
	if f.VerifiedOnly {
		ds = ds.Where(goqu.I("l.verified").IsTrue())
	}
	if f.FeaturedOnly {
		ds = ds.Where(goqu.I("l.featured").IsTrue())
	}
	ds = ds.Order(defaultOrder...)
	if f.Limit > 0 {
		ds = ds.Limit(f.Limit)
	}
	return ds
}

// SearchSQL renders the statement SearchListings would run.
func SearchSQL(f ListingFilter) (string, []any, error) {
	return searchDataset(f).ToSQL()
}

func (r *SQLRepository) SearchListings(ctx context.Context, f ListingFilter) ([]ListingView, error) {
	return r.selectViews(ctx, searchDataset(f))
}

func (r *SQLRepository) FeaturedListings(ctx context.Context, limit uint) ([]ListingView, error) {
	ds := listingViews().
		Where(goqu.I("l.featured").IsTrue()).
		Order(goqu.I("l.updated_at").Desc(), goqu.I("l.id").Desc()).
		Limit(limit)
	return r.selectViews(ctx, ds)
}

func (r *SQLRepository) AdminListings(ctx context.Context, nameLike string) ([]ListingView, error) {
	ds := listingViews()
	if t := strings.TrimSpace(nameLike); t != "" {
		ds = ds.Where(goqu.I("l.name").ILike(likePattern(t)))
	}
	ds = ds.Order(goqu.I("l.updated_at").Desc(), goqu.I("l.id").Desc())
	return r.selectViews(ctx, ds)
}

func (r *SQLRepository) selectViews(ctx context.Context, ds *goqu.SelectDataset) ([]ListingView, error) {
	q, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build listing query: %w", err)
	}
	var out []ListingView
	if err := sqlx.SelectContext(ctx, r.q, &out, q, args...); err != nil {
		return nil, fmt.Errorf("select listings: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) ListingSlugs(ctx context.Context) ([]string, error) {
	var out []string
	err := sqlx.SelectContext(ctx, r.q, &out, `SELECT slug FROM listing ORDER BY id ASC`)
	return out, err
}

func (r *SQLRepository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := sqlx.GetContext(ctx, r.q, &s, `
        SELECT (SELECT COUNT(*) FROM submission WHERE status = 'PENDING') AS pending,
               (SELECT COUNT(*) FROM listing)                            AS listings,
               (SELECT COUNT(*) FROM listing WHERE featured = TRUE)      AS featured`)
	return s, err
}

//
// Submissions
//

const submissionCols = `id, business_name, category_name, city_name, contact, website, message,
       submitter_name, submitter_email, status, created_at, updated_at`

func (r *SQLRepository) CreateSubmission(ctx context.Context, s *Submission) error {
	now := r.now()
	s.Status = StatusPending
	res, err := r.q.ExecContext(ctx, `
        INSERT INTO submission (business_name, category_name, city_name, contact, website,
                                message, submitter_name, submitter_email, status,
                                created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.BusinessName, s.CategoryName, s.CityName, s.Contact, s.Website,
		s.Message, s.SubmitterName, s.SubmitterEmail, s.Status, now, now)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	if s.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	s.CreatedAt, s.UpdatedAt = now, now
	return nil
}

func (r *SQLRepository) SubmissionByID(ctx context.Context, id int64) (Submission, error) {
	var s Submission
	err := sqlx.GetContext(ctx, r.q, &s,
		`SELECT `+submissionCols+` FROM submission WHERE id = ? LIMIT 1`, id)
	return s, one(err, fmt.Sprintf("submission %d", id))
}

func (r *SQLRepository) Submissions(ctx context.Context) ([]Submission, error) {
	var out []Submission
	err := sqlx.SelectContext(ctx, r.q, &out,
		`SELECT `+submissionCols+` FROM submission ORDER BY created_at DESC, id DESC`)
	return out, err
}

func (r *SQLRepository) TransitionSubmission(ctx context.Context, id int64, from, to Status) (bool, error) {
	res, err := r.q.ExecContext(ctx,
		`UPDATE submission SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, r.now(), id, from)
	if err != nil {
		return false, fmt.Errorf("update submission %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}
