// Package dirtest provides an in-memory directory.Store for tests.
package dirtest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/servicii-ro/directory/internal/directory"
)

type state struct {
	categories  []directory.Category
	cities      []directory.City
	listings    []directory.Listing
	submissions []directory.Submission
	nextID      int64
}

func (s *state) clone() *state {
	return &state{
		categories:  append([]directory.Category(nil), s.categories...),
		cities:      append([]directory.City(nil), s.cities...),
		listings:    append([]directory.Listing(nil), s.listings...),
		submissions: append([]directory.Submission(nil), s.submissions...),
		nextID:      s.nextID,
	}
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// Store is a directory.Store backed by slices.  InTx works on a copy that
// replaces the live state only when fn succeeds.
type Store struct {
	mu  sync.Mutex
	st  *state
	now time.Time

	// Fail, when set, is returned by the named method ("CreateListing",
	// "TransitionSubmission", ...).
	Fail map[string]error
}

// New returns an empty Store whose clock starts at 2024-01-01 UTC and
// advances one second per write.
func New() *Store {
	return &Store{
		st:   &state{},
		now:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Fail: map[string]error{},
	}
}

func (m *Store) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

// AddCategory seeds a category and returns it with its id.
func (m *Store) AddCategory(name, slug string) directory.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := directory.Category{ID: m.st.id(), Name: name, Slug: slug}
	m.st.categories = append(m.st.categories, c)
	return c
}

// AddCity seeds a city; pass nil coordinates for a city without centroid.
func (m *Store) AddCity(name, slug string, lat, lng *float64) directory.City {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := directory.City{ID: m.st.id(), Name: name, Slug: slug}
	if lat != nil && lng != nil {
		c.Lat.Float64, c.Lat.Valid = *lat, true
		c.Lng.Float64, c.Lng.Valid = *lng, true
	}
	m.st.cities = append(m.st.cities, c)
	return c
}

// AddListing seeds l, filling id and timestamps.
func (m *Store) AddListing(l directory.Listing) directory.Listing {
	_ = m.tx().CreateListing(context.Background(), &l)
	return l
}

// Listings returns a copy of every stored listing.
func (m *Store) Listings() []directory.Listing {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]directory.Listing(nil), m.st.listings...)
}

// CitiesSnapshot returns a copy of every stored city.
func (m *Store) CitiesSnapshot() []directory.City {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]directory.City(nil), m.st.cities...)
}

// InTx implements directory.Store.
func (m *Store) InTx(ctx context.Context, fn func(directory.Repository) error) error {
	m.mu.Lock()
	work := &repo{m: m, st: m.st.clone()}
	m.mu.Unlock()

	if err := fn(work); err != nil {
		return err
	}

	m.mu.Lock()
	m.st = work.st
	m.mu.Unlock()
	return nil
}

func (m *Store) tx() *repo { return &repo{m: m, st: m.st, locked: true} }

// repo is the Repository view over one state.  When locked is set it
// shares the Store's live state and guards it with the Store mutex.
type repo struct {
	m      *Store
	st     *state
	locked bool
}

func (r *repo) lock() func() {
	if r.locked {
		r.m.mu.Lock()
		return r.m.mu.Unlock
	}
	return func() {}
}

func (r *repo) fail(method string) error {
	if r.m.Fail == nil {
		return nil
	}
	return r.m.Fail[method]
}

func notFound(what string) error { return fmt.Errorf("%s: %w", what, directory.ErrNotFound) }

func fold(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (r *repo) Categories(context.Context) ([]directory.Category, error) {
	defer r.lock()()
	out := append([]directory.Category(nil), r.st.categories...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *repo) CategoryBySlug(_ context.Context, slug string) (directory.Category, error) {
	defer r.lock()()
	for _, c := range r.st.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return directory.Category{}, notFound("category " + slug)
}

func (r *repo) CategoryByName(_ context.Context, name string) (directory.Category, error) {
	defer r.lock()()
	for _, c := range r.st.categories {
		if fold(c.Name) == fold(name) {
			return c, nil
		}
	}
	return directory.Category{}, notFound("category " + name)
}

func (r *repo) FirstCategory(ctx context.Context) (directory.Category, error) {
	all, _ := r.Categories(ctx)
	if len(all) == 0 {
		return directory.Category{}, notFound("first category")
	}
	return all[0], nil
}

func (r *repo) Cities(context.Context) ([]directory.City, error) {
	defer r.lock()()
	out := append([]directory.City(nil), r.st.cities...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *repo) CityBySlug(_ context.Context, slug string) (directory.City, error) {
	defer r.lock()()
	for _, c := range r.st.cities {
		if c.Slug == slug {
			return c, nil
		}
	}
	return directory.City{}, notFound("city " + slug)
}

func (r *repo) CityByName(_ context.Context, name string) (directory.City, error) {
	defer r.lock()()
	for _, c := range r.st.cities {
		if fold(c.Name) == fold(name) {
			return c, nil
		}
	}
	return directory.City{}, notFound("city " + name)
}

func (r *repo) CitySlugExists(_ context.Context, slug string) (bool, error) {
	defer r.lock()()
	for _, c := range r.st.cities {
		if c.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *repo) CreateCity(_ context.Context, c *directory.City) error {
	if err := r.fail("CreateCity"); err != nil {
		return err
	}
	defer r.lock()()
	c.ID = r.st.id()
	r.st.cities = append(r.st.cities, *c)
	return nil
}

func (r *repo) ListingByID(_ context.Context, id int64) (directory.Listing, error) {
	defer r.lock()()
	for _, l := range r.st.listings {
		if l.ID == id {
			return l, nil
		}
	}
	return directory.Listing{}, notFound(fmt.Sprintf("listing %d", id))
}

func (r *repo) ListingBySlug(ctx context.Context, slug string) (directory.ListingView, error) {
	all, _ := r.views(ctx)
	for _, v := range all {
		if v.Slug == slug {
			return v, nil
		}
	}
	return directory.ListingView{}, notFound("listing " + slug)
}

func (r *repo) ListingSlugExists(_ context.Context, slug string) (bool, error) {
	defer r.lock()()
	for _, l := range r.st.listings {
		if l.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *repo) CreateListing(_ context.Context, l *directory.Listing) error {
	if err := r.fail("CreateListing"); err != nil {
		return err
	}
	defer r.lock()()
	l.ID = r.st.id()
	l.CreatedAt = r.m.tick()
	l.UpdatedAt = l.CreatedAt
	r.st.listings = append(r.st.listings, *l)
	return nil
}

func (r *repo) UpdateListing(_ context.Context, l *directory.Listing) error {
	defer r.lock()()
	for i := range r.st.listings {
		if r.st.listings[i].ID == l.ID {
			l.Slug = r.st.listings[i].Slug
			l.CreatedAt = r.st.listings[i].CreatedAt
			l.UpdatedAt = r.m.tick()
			r.st.listings[i] = *l
			return nil
		}
	}
	return notFound(fmt.Sprintf("listing %d", l.ID))
}

func (r *repo) DeleteListing(_ context.Context, id int64) error {
	defer r.lock()()
	for i, l := range r.st.listings {
		if l.ID == id {
			r.st.listings = append(r.st.listings[:i], r.st.listings[i+1:]...)
			return nil
		}
	}
	return notFound(fmt.Sprintf("listing %d", id))
}

// views joins every listing with its category and city.
func (r *repo) views(context.Context) ([]directory.ListingView, error) {
	defer r.lock()()
	cats := map[int64]directory.Category{}
	for _, c := range r.st.categories {
		cats[c.ID] = c
	}
	cities := map[int64]directory.City{}
	for _, c := range r.st.cities {
		cities[c.ID] = c
	}
	out := make([]directory.ListingView, 0, len(r.st.listings))
	for _, l := range r.st.listings {
		c, ci := cats[l.CategoryID], cities[l.CityID]
		out = append(out, directory.ListingView{
			Listing:      l,
			CategoryName: c.Name,
			CategorySlug: c.Slug,
			CityName:     ci.Name,
			CitySlug:     ci.Slug,
			CityLat:      ci.Lat,
			CityLng:      ci.Lng,
		})
	}
	return out, nil
}

func contains(hay, needle string) bool {
	return strings.Contains(strings.ToLower(hay), strings.ToLower(needle))
}

func defaultOrder(vs []directory.ListingView) {
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if a.Featured != b.Featured {
			return a.Featured
		}
		if a.Verified != b.Verified {
			return a.Verified
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID > b.ID
	})
}

func (r *repo) SearchListings(ctx context.Context, f directory.ListingFilter) ([]directory.ListingView, error) {
	if err := r.fail("SearchListings"); err != nil {
		return nil, err
	}
	all, _ := r.views(ctx)
	out := all[:0]
	for _, v := range all {
		if f.CategoryID != 0 && v.CategoryID != f.CategoryID {
			continue
		}
		if f.CityID != 0 && v.CityID != f.CityID {
			continue
		}
		if t := strings.TrimSpace(f.Text); t != "" &&
			!(contains(v.Name, t) || contains(v.Description.String, t) ||
				contains(v.CategoryName, t) || contains(v.CityName, t) ||
				contains(v.Languages, t)) {
			continue
		}
		if b := f.Box; b != nil {
			if !v.CityLat.Valid || !v.CityLng.Valid ||
				v.CityLat.Float64 < b.MinLat || v.CityLat.Float64 > b.MaxLat ||
				v.CityLng.Float64 < b.MinLng || v.CityLng.Float64 > b.MaxLng {
				continue
			}
		}
		if f.VerifiedOnly && !v.Verified {
			continue
		}
		if f.FeaturedOnly && !v.Featured {
			continue
		}
		out = append(out, v)
	}
	defaultOrder(out)
	if f.Limit > 0 && uint(len(out)) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *repo) FeaturedListings(ctx context.Context, limit uint) ([]directory.ListingView, error) {
	all, _ := r.views(ctx)
	out := all[:0]
	for _, v := range all {
		if v.Featured {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if uint(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *repo) AdminListings(ctx context.Context, nameLike string) ([]directory.ListingView, error) {
	all, _ := r.views(ctx)
	out := all[:0]
	for _, v := range all {
		if t := strings.TrimSpace(nameLike); t == "" || contains(v.Name, t) {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *repo) ListingSlugs(context.Context) ([]string, error) {
	defer r.lock()()
	out := make([]string, 0, len(r.st.listings))
	for _, l := range r.st.listings {
		out = append(out, l.Slug)
	}
	return out, nil
}

func (r *repo) Stats(context.Context) (directory.Stats, error) {
	defer r.lock()()
	var s directory.Stats
	for _, sub := range r.st.submissions {
		if sub.Status == directory.StatusPending {
			s.PendingSubmissions++
		}
	}
	s.Listings = len(r.st.listings)
	for _, l := range r.st.listings {
		if l.Featured {
			s.Featured++
		}
	}
	return s, nil
}

func (r *repo) CreateSubmission(_ context.Context, s *directory.Submission) error {
	if err := r.fail("CreateSubmission"); err != nil {
		return err
	}
	defer r.lock()()
	s.ID = r.st.id()
	s.Status = directory.StatusPending
	s.CreatedAt = r.m.tick()
	s.UpdatedAt = s.CreatedAt
	r.st.submissions = append(r.st.submissions, *s)
	return nil
}

func (r *repo) SubmissionByID(_ context.Context, id int64) (directory.Submission, error) {
	defer r.lock()()
	for _, s := range r.st.submissions {
		if s.ID == id {
			return s, nil
		}
	}
	return directory.Submission{}, notFound(fmt.Sprintf("submission %d", id))
}

func (r *repo) Submissions(context.Context) ([]directory.Submission, error) {
	defer r.lock()()
	out := append([]directory.Submission(nil), r.st.submissions...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *repo) TransitionSubmission(_ context.Context, id int64, from, to directory.Status) (bool, error) {
	if err := r.fail("TransitionSubmission"); err != nil {
		return false, err
	}
	defer r.lock()()
	for i := range r.st.submissions {
		s := &r.st.submissions[i]
		if s.ID == id && s.Status == from {
			s.Status = to
			s.UpdatedAt = r.m.tick()
			return true, nil
		}
	}
	return false, nil
}

// Repository methods on the Store itself operate on live state.

func (m *Store) Categories(ctx context.Context) ([]directory.Category, error) {
	return m.tx().Categories(ctx)
}
func (m *Store) CategoryBySlug(ctx context.Context, slug string) (directory.Category, error) {
	return m.tx().CategoryBySlug(ctx, slug)
}
func (m *Store) CategoryByName(ctx context.Context, name string) (directory.Category, error) {
	return m.tx().CategoryByName(ctx, name)
}
func (m *Store) FirstCategory(ctx context.Context) (directory.Category, error) {
	return m.tx().FirstCategory(ctx)
}
func (m *Store) Cities(ctx context.Context) ([]directory.City, error) { return m.tx().Cities(ctx) }
func (m *Store) CityBySlug(ctx context.Context, slug string) (directory.City, error) {
	return m.tx().CityBySlug(ctx, slug)
}
func (m *Store) CityByName(ctx context.Context, name string) (directory.City, error) {
	return m.tx().CityByName(ctx, name)
}
func (m *Store) CitySlugExists(ctx context.Context, slug string) (bool, error) {
	return m.tx().CitySlugExists(ctx, slug)
}
func (m *Store) CreateCity(ctx context.Context, c *directory.City) error {
	return m.tx().CreateCity(ctx, c)
}
func (m *Store) ListingByID(ctx context.Context, id int64) (directory.Listing, error) {
	return m.tx().ListingByID(ctx, id)
}
func (m *Store) ListingBySlug(ctx context.Context, slug string) (directory.ListingView, error) {
	return m.tx().ListingBySlug(ctx, slug)
}
func (m *Store) ListingSlugExists(ctx context.Context, slug string) (bool, error) {
	return m.tx().ListingSlugExists(ctx, slug)
}
func (m *Store) CreateListing(ctx context.Context, l *directory.Listing) error {
	return m.tx().CreateListing(ctx, l)
}
func (m *Store) UpdateListing(ctx context.Context, l *directory.Listing) error {
	return m.tx().UpdateListing(ctx, l)
}
func (m *Store) DeleteListing(ctx context.Context, id int64) error {
	return m.tx().DeleteListing(ctx, id)
}
func (m *Store) SearchListings(ctx context.Context, f directory.ListingFilter) ([]directory.ListingView, error) {
	return m.tx().SearchListings(ctx, f)
}
func (m *Store) FeaturedListings(ctx context.Context, limit uint) ([]directory.ListingView, error) {
	return m.tx().FeaturedListings(ctx, limit)
}
func (m *Store) AdminListings(ctx context.Context, nameLike string) ([]directory.ListingView, error) {
	return m.tx().AdminListings(ctx, nameLike)
}
func (m *Store) ListingSlugs(ctx context.Context) ([]string, error) { return m.tx().ListingSlugs(ctx) }
func (m *Store) Stats(ctx context.Context) (directory.Stats, error)  { return m.tx().Stats(ctx) }
func (m *Store) CreateSubmission(ctx context.Context, s *directory.Submission) error {
	return m.tx().CreateSubmission(ctx, s)
}
func (m *Store) SubmissionByID(ctx context.Context, id int64) (directory.Submission, error) {
	return m.tx().SubmissionByID(ctx, id)
}
func (m *Store) Submissions(ctx context.Context) ([]directory.Submission, error) {
	return m.tx().Submissions(ctx)
}
func (m *Store) TransitionSubmission(ctx context.Context, id int64, from, to directory.Status) (bool, error) {
	return m.tx().TransitionSubmission(ctx, id, from, to)
}

var _ directory.Store = (*Store)(nil)
