package admin

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/servicii-ro/directory/internal/directory"
	"github.com/servicii-ro/directory/internal/session"
)

type submissionsData struct {
	Submissions []directory.Submission
}

func (c *Comp) submissions(w http.ResponseWriter, r *http.Request) {
	subs, err := c.d.Store.Submissions(r.Context())
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}
	c.d.Render(w, r, http.StatusOK, "admin_submissions",
		c.d.Page(w, r, adminHead("Recomandări"), submissionsData{Submissions: subs}))
}

// approve creates the listing and sends the admin to its edit form for
// review.
func (c *Comp) approve(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		c.d.NotFound(w, r)
		return
	}
	a, err := c.d.Submissions.Approve(r.Context(), id)
	switch {
	case err == nil:
	case errors.Is(err, directory.ErrAlreadyDecided):
		c.redirect(w, r, c.path("/submissions"), flash(session.Info, "Recomandarea a fost deja procesată."))
		return
	case errors.Is(err, directory.ErrNoCategories):
		c.redirect(w, r, c.path("/submissions"), flash(session.Error, "Nu există categorii. Rulează mai întâi seed-ul."))
		return
	case errors.Is(err, directory.ErrInvalidCity):
		c.redirect(w, r, c.path("/submissions"), flash(session.Error, "Orașul recomandării este invalid. Respinge sau corectează manual."))
		return
	default:
		c.d.Fail(w, r, err)
		return
	}

	notes := []session.FlashMessage{flash(session.Success, "Recomandare aprobată. Verifică și completează firma.")}
	if a.Category.Kind == directory.FallbackDefault {
		notes = append(notes, flash(session.Info, "Categoria recomandată nu există; s-a folosit categoria implicită."))
	}
	if a.City.Created {
		notes = append(notes, flash(session.Info, fmt.Sprintf("Orașul „%s” a fost creat fără coordonate.", a.City.City.Name)))
	}
	c.redirect(w, r, c.path(fmt.Sprintf("/listings/%d/edit", a.Listing.ID)), notes...)
}

func (c *Comp) reject(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		c.d.NotFound(w, r)
		return
	}
	err := c.d.Submissions.Reject(r.Context(), id)
	switch {
	case err == nil:
		c.redirect(w, r, c.path("/submissions"), flash(session.Success, "Recomandare respinsă."))
	case errors.Is(err, directory.ErrAlreadyDecided):
		c.redirect(w, r, c.path("/submissions"), flash(session.Info, "Recomandarea a fost deja procesată."))
	default:
		c.d.Fail(w, r, err)
	}
}
