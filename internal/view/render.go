// internal/view/render.go
//
// Central view engine: embedded templates, func-map injection, and an LRU
// of parsed *template.Template sets.
//
// Public helpers
// --------------
//   - Render         – buffer the page, then write status + HTML.
//   - RenderToString – return the rendered body (e-mails, tests).
//
// Layout
// ------
// Every page is parsed together with templates/layout.html and every file
// under templates/partials/.  A page file defines "content"; the layout
// executes it.  Parsed sets are cached per page name.
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/servicii-ro/directory/internal/cache"
)

//go:embed templates
var embedded embed.FS

// Engine renders pages.  Safe for concurrent use.
type Engine struct {
	fsys  fs.FS
	funcs template.FuncMap
	sets  *cache.LRU
}

// New returns an engine over the embedded templates.
func New() *Engine {
	sub, _ := fs.Sub(embedded, "templates")
	return NewFS(sub)
}

// NewFS returns an engine over fsys, which must hold layout.html,
// partials/*.html, and one file per page.
func NewFS(fsys fs.FS) *Engine {
	return &Engine{fsys: fsys, funcs: funcMap(), sets: cache.New(64)}
}

// Render executes page and streams it to w with the given status.  Nothing
// is written when execution fails, so the caller can still send a 500.
func (e *Engine) Render(w http.ResponseWriter, status int, page string, data any) error {
	body, err := e.RenderToString(page, data)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}

// RenderToString executes page into a buffer.
func (e *Engine) RenderToString(page string, data any) ([]byte, error) {
	t, err := e.load(page)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, fmt.Errorf("render %s: %w", page, err)
	}
	return buf.Bytes(), nil
}

// load finds and (if necessary) parses the template set for page.
func (e *Engine) load(page string) (*template.Template, error) {
	if v, ok := e.sets.Get(page); ok {
		return v.(*template.Template), nil
	}

	t, err := template.New(page).Funcs(e.funcs).
		ParseFS(e.fsys, "layout.html", "partials/*.html", page+".html")
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", page, err)
	}
	e.sets.Add(page, t)
	return t, nil
}
