package admin

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicii-ro/directory/internal/component"
	"github.com/servicii-ro/directory/internal/component/comptest"
	"github.com/servicii-ro/directory/internal/directory"
	"github.com/servicii-ro/directory/internal/form"
	"github.com/servicii-ro/directory/internal/imagestore"
)

const prefix = comptest.AdminPrefix

func mount(d *component.Deps) component.Component { return New(d) }

type fixture struct {
	*comptest.Env
	admin  *http.Cookie
	dent   directory.Category
	berlin directory.City
}

func setup(t *testing.T) *fixture {
	env := comptest.New(t, mount)
	f := &fixture{Env: env, admin: env.AdminCookie(t)}
	f.dent = env.Store.AddCategory("Dentiști", "dentisti")
	lat, lng := 52.52, 13.405
	f.berlin = env.Store.AddCity("Berlin", "berlin", &lat, &lng)
	return f
}

func doc(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	return d
}

// follow replays the cookie set by rec and returns the rendered target.
func (f *fixture) follow(t *testing.T, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, rec.Code)
	return f.Get(rec.Header().Get("Location"), comptest.SessionCookie(t, rec))
}

func flashes(t *testing.T, rec *httptest.ResponseRecorder) []string {
	var out []string
	doc(t, rec).Find(".flash").Each(func(_ int, s *goquery.Selection) { out = append(out, s.Text()) })
	return out
}

func (f *fixture) listingByName(t *testing.T, name string) directory.Listing {
	t.Helper()
	for _, l := range f.Store.Listings() {
		if l.Name == name {
			return l
		}
	}
	t.Fatalf("listing %q not stored", name)
	return directory.Listing{}
}

func (f *fixture) listingForm(name string) url.Values {
	return url.Values{
		"name":        {name},
		"category_id": {fmt.Sprint(f.dent.ID)},
		"city_id":     {fmt.Sprint(f.berlin.ID)},
		"phone":       {"+49 30 1"},
		"languages":   {"ro", "de", "xx"},
		"verified":    {"on"},
	}
}

// multipartPost builds an edit request carrying an image file.
func (f *fixture) multipartPost(t *testing.T, path string, vals url.Values, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	tok, err := f.Deps.CSRF.Token()
	require.NoError(t, err)
	vals.Set(form.FieldCSRF, tok)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, vs := range vals {
		for _, v := range vs {
			require.NoError(t, mw.WriteField(k, v))
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, _ = fw.Write(content)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(f.admin)
	return f.Do(req)
}

func TestRequiresLogin(t *testing.T) {
	f := setup(t)

	for _, p := range []string{"/", "/listings", "/listings/new", "/submissions"} {
		rec := f.Get(prefix + p)
		require.Equal(t, http.StatusSeeOther, rec.Code, p)
		assert.Equal(t, prefix+"/login?next="+url.QueryEscape(prefix+p), rec.Header().Get("Location"))
	}

	rec := f.Post(t, prefix+"/listings/new", f.listingForm("Intrus"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, f.Store.Listings())
}

func TestLogin(t *testing.T) {
	f := setup(t)

	rec := f.Get(prefix + "/login?next=" + url.QueryEscape(prefix+"/submissions"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, doc(t, rec).Find(`input[name="password"]`).Length())

	t.Run("wrong password", func(t *testing.T) {
		rec := f.Post(t, prefix+"/login", url.Values{"password": {"nope"}})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, prefix+"/login", rec.Header().Get("Location"))
		assert.False(t, f.Deps.Sessions.IsAdmin(withCookie(comptest.SessionCookie(t, rec))))
		assert.Contains(t, flashes(t, f.follow(t, rec)), "Parolă greșită.")
	})

	t.Run("success honours next", func(t *testing.T) {
		rec := f.Post(t, prefix+"/login?next="+url.QueryEscape(prefix+"/submissions"),
			url.Values{"password": {comptest.AdminPassword}})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, prefix+"/submissions", rec.Header().Get("Location"))
		page := f.follow(t, rec)
		require.Equal(t, http.StatusOK, page.Code)
		assert.Contains(t, flashes(t, page), "Autentificat.")
	})

	t.Run("foreign next ignored", func(t *testing.T) {
		rec := f.Post(t, prefix+"/login?next="+url.QueryEscape("https://evil.example/"),
			url.Values{"password": {comptest.AdminPassword}})
		assert.Equal(t, prefix+"/", rec.Header().Get("Location"))
	})

	t.Run("logout", func(t *testing.T) {
		rec := f.Get(prefix+"/logout", f.admin)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
		assert.Less(t, comptest.SessionCookie(t, rec).MaxAge, 0)
	})
}

func withCookie(c *http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(c)
	return r
}

func TestDashboard(t *testing.T) {
	f := setup(t)
	f.Store.AddListing(directory.Listing{Name: "A", Slug: "a", CategoryID: f.dent.ID, CityID: f.berlin.ID, Featured: true})
	f.Store.AddListing(directory.Listing{Name: "B", Slug: "b", CategoryID: f.dent.ID, CityID: f.berlin.ID})
	_, err := f.Deps.Submissions.Submit(t.Context(), directory.SubmissionInput{
		BusinessName: "C", CategoryName: "Dentiști", CityName: "Berlin",
	})
	require.NoError(t, err)

	rec := f.Get(prefix+"/", f.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	d := doc(t, rec)
	assert.Equal(t, "1", d.Find(".stats .pending").Text())
	assert.Equal(t, "2", d.Find(".stats .listings").Text())
	assert.Equal(t, "1", d.Find(".stats .featured").Text())
	assert.Equal(t, "noindex, nofollow", d.Find(`meta[name="robots"]`).AttrOr("content", ""))
}

func TestListings_Filter(t *testing.T) {
	f := setup(t)
	f.Store.AddListing(directory.Listing{Name: "Dr. Popescu", Slug: "dr-popescu", CategoryID: f.dent.ID, CityID: f.berlin.ID})
	f.Store.AddListing(directory.Listing{Name: "Avocat Marin", Slug: "avocat-marin", CategoryID: f.dent.ID, CityID: f.berlin.ID})

	rec := f.Get(prefix+"/listings", f.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, doc(t, rec).Find("table.listings tbody tr[data-id]").Length())

	rec = f.Get(prefix+"/listings?q=popescu", f.admin)
	rows := doc(t, rec).Find("table.listings tbody tr[data-id]")
	require.Equal(t, 1, rows.Length())
	assert.Contains(t, rows.Text(), "Dr. Popescu")
}

func TestCreateListing(t *testing.T) {
	f := setup(t)

	rec := f.Get(prefix+"/listings/new", f.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, len(directory.KnownLanguages), doc(t, rec).Find(`input[name="languages"]`).Length())

	rec = f.Post(t, prefix+"/listings/new", f.listingForm("Dr. Ana Pop"), f.admin)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, prefix+"/listings", rec.Header().Get("Location"))

	l := f.listingByName(t, "Dr. Ana Pop")
	assert.Equal(t, "dr-ana-pop", l.Slug)
	assert.Equal(t, "ro,de", l.Languages)
	assert.True(t, l.Verified)
	assert.False(t, l.Featured)
	assert.Equal(t, "+49 30 1", l.Phone.String)
	assert.False(t, l.Description.Valid)
	assert.False(t, l.ImageURL.Valid)
	assert.Contains(t, flashes(t, f.follow(t, rec)), "Firma a fost adăugată.")

	// Same name, next free suffix.
	rec = f.Post(t, prefix+"/listings/new", f.listingForm("Dr. Ana Pop"), f.admin)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	slugs := []string{}
	for _, l := range f.Store.Listings() {
		slugs = append(slugs, l.Slug)
	}
	assert.ElementsMatch(t, []string{"dr-ana-pop", "dr-ana-pop-2"}, slugs)
}

func TestCreateListing_Invalid(t *testing.T) {
	f := setup(t)

	vals := f.listingForm("")
	vals.Set("category_id", "999")
	rec := f.Post(t, prefix+"/listings/new", vals, f.admin)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	d := doc(t, rec)
	assert.Equal(t, 2, d.Find(".field-error").Length())
	assert.Equal(t, "+49 30 1", d.Find(`input[name="phone"]`).AttrOr("value", ""))
	assert.Empty(t, f.Store.Listings())
}

func TestEditListing_PhoneWidth(t *testing.T) {
	f := setup(t)
	l := f.Store.AddListing(directory.Listing{Name: "Dr. Pop", Slug: "dr-pop", CategoryID: f.dent.ID, CityID: f.berlin.ID})
	path := fmt.Sprintf("%s/listings/%d/edit", prefix, l.ID)

	vals := f.listingForm("Dr. Pop")
	vals.Set("phone", strings.Repeat("1", directory.PhoneMaxLen))
	vals.Set("whatsapp", strings.Repeat("2", directory.PhoneMaxLen))
	rec := f.Post(t, path, vals, f.admin)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	got := f.listingByName(t, "Dr. Pop")
	assert.Len(t, got.Phone.String, directory.PhoneMaxLen)

	vals.Set("phone", strings.Repeat("1", directory.PhoneMaxLen+1))
	rec = f.Post(t, path, vals, f.admin)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 1, doc(t, rec).Find(".field-error").Length())
}

func TestEditListing_Image(t *testing.T) {
	f := setup(t)
	l := f.Store.AddListing(directory.Listing{Name: "Dr. Pop", Slug: "dr-pop", CategoryID: f.dent.ID, CityID: f.berlin.ID})
	path := fmt.Sprintf("%s/listings/%d/edit", prefix, l.ID)

	rec := f.Get(path, f.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dr. Pop", doc(t, rec).Find(`input[name="name"]`).AttrOr("value", ""))

	// Upload sets the image; the slug survives a rename.
	rec = f.multipartPost(t, path, f.listingForm("Dr. Pop Nou"), "poza.jpg", []byte("jpeg"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	got := f.listingByName(t, "Dr. Pop Nou")
	assert.Equal(t, "dr-pop", got.Slug)
	assert.Equal(t, f.Images.Result.URL, got.ImageURL.String)
	assert.Equal(t, 1, f.Images.Calls)

	// No file keeps the image.
	rec = f.multipartPost(t, path, f.listingForm("Dr. Pop Nou"), "", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, f.Images.Result.URL, f.listingByName(t, "Dr. Pop Nou").ImageURL.String)

	// A failed upload keeps the image and says so.
	f.Images.Result = imagestore.Result{Failure: imagestore.FailureUpload, Err: errors.New("timeout")}
	rec = f.multipartPost(t, path, f.listingForm("Dr. Pop Nou"), "alta.jpg", []byte("jpeg"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/x.jpg", f.listingByName(t, "Dr. Pop Nou").ImageURL.String)
	notes := flashes(t, f.follow(t, rec))
	assert.Contains(t, notes, "Imaginea nu a putut fi încărcată (upload).")
	assert.Contains(t, notes, "Firma a fost actualizată.")

	assert.Equal(t, http.StatusNotFound, f.Get(prefix+"/listings/9999/edit", f.admin).Code)
	assert.Equal(t, http.StatusNotFound, f.Get(prefix+"/listings/abc/edit", f.admin).Code)
}

func TestDeleteListing(t *testing.T) {
	f := setup(t)
	l := f.Store.AddListing(directory.Listing{Name: "X", Slug: "x", CategoryID: f.dent.ID, CityID: f.berlin.ID})

	rec := f.Post(t, fmt.Sprintf("%s/listings/%d/delete", prefix, l.ID), nil, f.admin)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, f.Store.Listings())

	rec = f.Post(t, fmt.Sprintf("%s/listings/%d/delete", prefix, l.ID), nil, f.admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Delete without a token is refused.
	rec = f.Post(t, fmt.Sprintf("%s/listings/%d/delete", prefix, l.ID), url.Values{form.FieldCSRF: {"x"}}, f.admin)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestModeration(t *testing.T) {
	f := setup(t)
	ctx := t.Context()
	keep, err := f.Deps.Submissions.Submit(ctx, directory.SubmissionInput{
		BusinessName: "Frizeria Ana", CategoryName: "dentiști", CityName: "31655 Stadthagen",
		Contact: "0176 1", Message: "Foarte buni",
	})
	require.NoError(t, err)
	drop, err := f.Deps.Submissions.Submit(ctx, directory.SubmissionInput{
		BusinessName: "Spam SRL", CategoryName: "X", CityName: "Berlin",
	})
	require.NoError(t, err)

	rec := f.Get(prefix+"/submissions", f.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, doc(t, rec).Find("tr.status-PENDING").Length())

	approve := fmt.Sprintf("%s/submissions/%d/approve", prefix, keep.ID)
	rec = f.Post(t, approve, nil, f.admin)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	l := f.listingByName(t, "Frizeria Ana")
	assert.Equal(t, fmt.Sprintf("%s/listings/%d/edit", prefix, l.ID), rec.Header().Get("Location"))
	assert.Equal(t, f.dent.ID, l.CategoryID)
	assert.Equal(t, "0176 1", l.Phone.String)
	notes := flashes(t, f.follow(t, rec))
	assert.Contains(t, notes, "Orașul „Stadthagen” a fost creat fără coordonate.")

	// Second approval is refused and creates nothing.
	rec = f.Post(t, approve, nil, f.admin)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, prefix+"/submissions", rec.Header().Get("Location"))
	assert.Contains(t, flashes(t, f.follow(t, rec)), "Recomandarea a fost deja procesată.")
	assert.Len(t, f.Store.Listings(), 1)

	rec = f.Post(t, fmt.Sprintf("%s/submissions/%d/reject", prefix, drop.ID), nil, f.admin)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	got, err := f.Store.SubmissionByID(ctx, drop.ID)
	require.NoError(t, err)
	assert.Equal(t, directory.StatusRejected, got.Status)

	rec = f.Post(t, prefix+"/submissions/9999/approve", nil, f.admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
