package admin

import (
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/servicii-ro/directory/internal/auth"
	"github.com/servicii-ro/directory/internal/requestinfo"
	"github.com/servicii-ro/directory/internal/session"
)

type loginData struct {
	Next string
}

func (c *Comp) loginForm(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if auth.FromContext(r.Context()).Admin {
		http.Redirect(w, r, auth.SafeNext(next, c.d.AdminPrefix, c.path("/")), http.StatusSeeOther)
		return
	}
	data := loginData{Next: next}
	c.d.Render(w, r, http.StatusOK, "admin_login", c.d.Page(w, r, adminHead("Autentificare"), data))
}

func (c *Comp) login(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if !auth.CheckPassword(r.PostFormValue("password"), c.d.AdminPassword) {
		info := requestinfo.FromContext(r.Context())
		zap.L().Warn("admin login failed",
			zap.Stringer("ip", info.IP),
			zap.String("country", info.Country))
		back := c.path("/login")
		if next != "" {
			back += "?next=" + url.QueryEscape(next)
		}
		c.redirect(w, r, back, flash(session.Error, "Parolă greșită."))
		return
	}

	if err := c.d.Sessions.Login(w, r, flash(session.Success, "Autentificat.")); err != nil {
		c.d.Fail(w, r, err)
		return
	}
	zap.L().Info("admin login")
	http.Redirect(w, r, auth.SafeNext(next, c.d.AdminPrefix, c.path("/")), http.StatusSeeOther)
}

func (c *Comp) logout(w http.ResponseWriter, r *http.Request) {
	c.d.Sessions.Logout(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
