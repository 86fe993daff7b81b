// internal/session/session.go
//
// Signed + encrypted admin session cookie.
//
// Context
//   The admin panel persists two things between requests: whether the
//   browser has logged in, and one-shot flash messages shown after a
//   redirect.  Both live in a single cookie encoded with gorilla/securecookie
//   (HMAC-SHA256 + AES-256), so no server-side store is needed.
//
// Usage
//   mgr := session.NewManager(cfg.Security.Key("session-hash"),
//                             cfg.Security.Key("session-block"),
//                             cfg.Security.SecureCookies)
//   mgr.Login(w, r)
//   mgr.Flash(w, r, session.Success, "Listing saved.")
//   msgs := mgr.Flashes(w, r)   // read + clear
//
//------------------------------------------------------------------------------

package session

import (
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	CookieName = "servicii_session"
	maxAge     = 14 * 24 * time.Hour
)

// Flash categories, used as CSS hooks by the templates.
const (
	Success = "success"
	Error   = "error"
	Info    = "info"
)

// FlashMessage is one queued notice.
type FlashMessage struct {
	Category string
	Text     string
}

// Data is the cookie payload.
type Data struct {
	Admin   bool
	Flashes []FlashMessage
}

// Manager encodes and decodes the session cookie.  Safe for concurrent use.
type Manager struct {
	sc     *securecookie.SecureCookie
	secure bool
}

// NewManager expects a 32- or 64-byte hash key and a 16/24/32-byte block key.
func NewManager(hashKey, blockKey []byte, secure bool) *Manager {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(maxAge.Seconds()))
	return &Manager{sc: sc, secure: secure}
}

// Load returns the current payload.  A missing, expired, or tampered cookie
// yields the zero value.
func (m *Manager) Load(r *http.Request) Data {
	var d Data
	c, err := r.Cookie(CookieName)
	if err != nil {
		return d
	}
	if err := m.sc.Decode(CookieName, c.Value, &d); err != nil {
		return Data{}
	}
	return d
}

// Save writes d back to the response.
func (m *Manager) Save(w http.ResponseWriter, r *http.Request, d Data) error {
	v, err := m.sc.Encode(CookieName, d)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    v,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})
	return nil
}

// Login marks the session as admin and queues notes in the same cookie
// write.  Pending flashes are kept.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, notes ...FlashMessage) error {
	d := m.Load(r)
	d.Admin = true
	d.Flashes = append(d.Flashes, notes...)
	return m.Save(w, r, d)
}

// Logout drops the admin flag and every queued flash.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure || r.TLS != nil,
	})
}

// IsAdmin reports whether the request carries a logged-in session.
func (m *Manager) IsAdmin(r *http.Request) bool { return m.Load(r).Admin }

// Flash queues a message for the next page render.
func (m *Manager) Flash(w http.ResponseWriter, r *http.Request, category, text string) error {
	return m.Queue(w, r, FlashMessage{Category: category, Text: text})
}

// Queue adds msgs in one cookie write.  Separate Flash calls in the same
// response would overwrite each other.
func (m *Manager) Queue(w http.ResponseWriter, r *http.Request, msgs ...FlashMessage) error {
	d := m.Load(r)
	d.Flashes = append(d.Flashes, msgs...)
	return m.Save(w, r, d)
}

// Flashes returns and clears the queued messages.
func (m *Manager) Flashes(w http.ResponseWriter, r *http.Request) []FlashMessage {
	d := m.Load(r)
	if len(d.Flashes) == 0 {
		return nil
	}
	out := d.Flashes
	d.Flashes = nil
	_ = m.Save(w, r, d)
	return out
}
