package admin

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/servicii-ro/directory/internal/directory"
	"github.com/servicii-ro/directory/internal/form"
	"github.com/servicii-ro/directory/internal/imagestore"
	"github.com/servicii-ro/directory/internal/routing"
	"github.com/servicii-ro/directory/internal/session"
)

type dashboardData struct {
	Stats directory.Stats
}

func (c *Comp) dashboard(w http.ResponseWriter, r *http.Request) {
	st, err := c.d.Store.Stats(r.Context())
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}
	c.d.Render(w, r, http.StatusOK, "admin_dashboard",
		c.d.Page(w, r, adminHead("Panou de administrare"), dashboardData{Stats: st}))
}

type listingsData struct {
	Query    string
	Listings []directory.ListingView
}

func (c *Comp) listings(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	rows, err := c.d.Store.AdminListings(r.Context(), q)
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}
	c.d.Render(w, r, http.StatusOK, "admin_listings",
		c.d.Page(w, r, adminHead("Firme"), listingsData{Query: q, Listings: rows}))
}

// --- form -------------------------------------------------------------------

type listingFormData struct {
	Listing directory.Listing
	IsNew   bool
	Errors  map[string]string
}

// listingInput is the posted admin form.  Select values arrive as ids.
type listingInput struct {
	Name        string `form:"name"        validate:"required,max=200"`
	Description string `form:"description" validate:"max=20000"`
	CategoryID  int64  `form:"category_id" validate:"gt=0"`
	CityID      int64  `form:"city_id"     validate:"gt=0"`
	Address     string `form:"address"     validate:"max=255"`
	Phone       string `form:"phone"       validate:"max=80"`
	WhatsApp    string `form:"whatsapp"    validate:"max=80"`
	Website     string `form:"website"     validate:"max=255"`
	Languages   []string
	Verified    bool
	Featured    bool
}

var listingValidator = form.NewValidator()

func readListing(r *http.Request) listingInput {
	get := func(k string) string { return strings.TrimSpace(r.PostFormValue(k)) }
	id := func(k string) int64 {
		n, _ := strconv.ParseInt(get(k), 10, 64)
		return n
	}
	var langs []string
	for _, code := range r.PostForm["languages"] {
		for _, known := range directory.KnownLanguages {
			if code == known {
				langs = append(langs, code)
				break
			}
		}
	}
	return listingInput{
		Name:        get("name"),
		Description: get("description"),
		CategoryID:  id("category_id"),
		CityID:      id("city_id"),
		Address:     get("address"),
		Phone:       get("phone"),
		WhatsApp:    get("whatsapp"),
		Website:     get("website"),
		Languages:   langs,
		Verified:    r.PostFormValue("verified") == "on",
		Featured:    r.PostFormValue("featured") == "on",
	}
}

// apply copies every editable field onto l.  Slug and image are handled
// by the callers.
func (in listingInput) apply(l *directory.Listing) {
	ns := func(s string) sql.NullString { return sql.NullString{String: s, Valid: s != ""} }
	l.Name = in.Name
	l.Description = ns(in.Description)
	l.CategoryID = in.CategoryID
	l.CityID = in.CityID
	l.Address = ns(in.Address)
	l.Phone = ns(in.Phone)
	l.WhatsApp = ns(in.WhatsApp)
	l.Website = ns(in.Website)
	l.Languages = directory.EncodeLanguages(in.Languages)
	l.Verified = in.Verified
	l.Featured = in.Featured
}

// validate checks the tags and that both foreign keys exist.
func (c *Comp) validate(ctx context.Context, in listingInput) (map[string]string, error) {
	errs := map[string]string{}
	if err := listingValidator.Struct(in); err != nil {
		errs = form.FieldErrors(err)
	}
	cats, err := c.d.Store.Categories(ctx)
	if err != nil {
		return nil, err
	}
	cities, err := c.d.Store.Cities(ctx)
	if err != nil {
		return nil, err
	}
	if _, bad := errs["category_id"]; !bad && !hasCategory(cats, in.CategoryID) {
		errs["category_id"] = "Categoria nu există."
	}
	if _, bad := errs["city_id"]; !bad && !hasCity(cities, in.CityID) {
		errs["city_id"] = "Orașul nu există."
	}
	return errs, nil
}

func hasCategory(cs []directory.Category, id int64) bool {
	for _, c := range cs {
		if c.ID == id {
			return true
		}
	}
	return false
}

func hasCity(cs []directory.City, id int64) bool {
	for _, c := range cs {
		if c.ID == id {
			return true
		}
	}
	return false
}

func (c *Comp) renderForm(w http.ResponseWriter, r *http.Request, status int, l directory.Listing, isNew bool, errs map[string]string) {
	title := "Firmă nouă"
	if !isNew {
		title = "Editează " + l.Name
	}
	p := c.d.Page(w, r, adminHead(title), listingFormData{Listing: l, IsNew: isNew, Errors: errs})
	if len(errs) > 0 {
		p.Flashes = append(p.Flashes, flash(session.Error, "Verifică câmpurile marcate."))
	}
	c.d.Render(w, r, status, "admin_listing_form", p)
}

// upload runs the image uploader on the posted file.  A failed upload
// yields a note for the redirect; the listing is still saved.
func (c *Comp) upload(r *http.Request) (imagestore.Result, []session.FlashMessage) {
	file, header, err := r.FormFile("image")
	if err != nil {
		return imagestore.Result{Failure: imagestore.FailureNoFile}, nil
	}
	defer file.Close()
	res := c.d.Images.Upload(r.Context(), file, header)
	if !res.OK() && !res.Empty() {
		return res, []session.FlashMessage{
			flash(session.Error, "Imaginea nu a putut fi încărcată ("+string(res.Failure)+")."),
		}
	}
	return res, nil
}

func (c *Comp) newListingForm(w http.ResponseWriter, r *http.Request) {
	c.renderForm(w, r, http.StatusOK, directory.Listing{}, true, map[string]string{})
}

func (c *Comp) createListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	in := readListing(r)
	var l directory.Listing
	in.apply(&l)

	errs, err := c.validate(ctx, in)
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}
	if len(errs) > 0 {
		c.renderForm(w, r, http.StatusUnprocessableEntity, l, true, errs)
		return
	}

	res, notes := c.upload(r)
	if res.OK() {
		l.ImageURL = sql.NullString{String: res.URL, Valid: true}
	}

	err = c.d.Store.InTx(ctx, func(repo directory.Repository) error {
		slug, err := routing.UniqueSlug(ctx, routing.MakeSlug(l.Name), repo.ListingSlugExists)
		if err != nil {
			return err
		}
		l.Slug = slug
		return repo.CreateListing(ctx, &l)
	})
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}
	zap.L().Info("listing created", zap.Int64("listing_id", l.ID), zap.String("slug", l.Slug))
	c.redirect(w, r, c.path("/listings"), append(notes, flash(session.Success, "Firma a fost adăugată."))...)
}

func (c *Comp) editListingForm(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		c.d.NotFound(w, r)
		return
	}
	l, err := c.d.Store.ListingByID(r.Context(), id)
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}
	c.renderForm(w, r, http.StatusOK, l, false, map[string]string{})
}

func (c *Comp) updateListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := idParam(r)
	if !ok {
		c.d.NotFound(w, r)
		return
	}
	l, err := c.d.Store.ListingByID(ctx, id)
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}

	in := readListing(r)
	in.apply(&l)
	errs, err := c.validate(ctx, in)
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}
	if len(errs) > 0 {
		c.renderForm(w, r, http.StatusUnprocessableEntity, l, false, errs)
		return
	}

	// The slug is stable across renames; an empty upload keeps the image.
	res, notes := c.upload(r)
	if res.OK() {
		l.ImageURL = sql.NullString{String: res.URL, Valid: true}
	}
	if err := c.d.Store.UpdateListing(ctx, &l); err != nil {
		c.d.Fail(w, r, err)
		return
	}
	zap.L().Info("listing updated", zap.Int64("listing_id", l.ID))
	c.redirect(w, r, c.path("/listings"), append(notes, flash(session.Success, "Firma a fost actualizată."))...)
}

func (c *Comp) deleteListing(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		c.d.NotFound(w, r)
		return
	}
	if err := c.d.Store.DeleteListing(r.Context(), id); err != nil {
		c.d.Fail(w, r, err)
		return
	}
	zap.L().Info("listing deleted", zap.Int64("listing_id", id))
	c.redirect(w, r, c.path("/listings"), flash(session.Success, "Firma a fost ștearsă."))
}
