// internal/head/builder.go
//
// The Builder collects everything that should appear inside a page's
// <head> element.  It is scoped to a single request.  Handlers push the
// title, description, and canonical URL; the layout template emits them.
//
// Features
// --------
//   - SetTitle / SetDescription – single-value fields (last call wins).
//   - Canonical                – absolute <link rel="canonical">.
//   - NoIndex                  – robots noindex for admin and form pages.
//   - JSONLD                   – raw JSON-LD strings, deduplicated.
package head

import (
	"html/template"
	"strings"
)

// SiteName suffixes every page title that does not already carry it.
const SiteName = "Români în Germania"

// Builder is used by one goroutine per request.
type Builder struct {
	title       string
	description string
	canonical   string
	noIndex     bool
	jsonLD      []string
	seen        map[string]struct{}
}

func New() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

func (b *Builder) SetTitle(t string)       { b.title = strings.TrimSpace(t) }
func (b *Builder) SetDescription(d string) { b.description = strings.TrimSpace(d) }
func (b *Builder) Canonical(u string)      { b.canonical = u }
func (b *Builder) NoIndex()                { b.noIndex = true }

// JSONLD appends a structured-data block once.
func (b *Builder) JSONLD(js string) {
	if _, dup := b.seen[js]; dup {
		return
	}
	b.seen[js] = struct{}{}
	b.jsonLD = append(b.jsonLD, js)
}

// Title returns the plain page title, falling back to the site name.
func (b *Builder) Title() string {
	switch {
	case b.title == "":
		return SiteName
	case strings.Contains(b.title, SiteName):
		return b.title
	default:
		return b.title + " | " + SiteName
	}
}

// Description returns the meta description.
func (b *Builder) Description() string { return b.description }

// Tags renders description, canonical, robots, and JSON-LD tags.
func (b *Builder) Tags() template.HTML {
	var sb strings.Builder
	if b.description != "" {
		sb.WriteString(`<meta name="description" content="`)
		sb.WriteString(template.HTMLEscapeString(b.description))
		sb.WriteString(`">`)
	}
	if b.canonical != "" {
		sb.WriteString(`<link rel="canonical" href="`)
		sb.WriteString(template.HTMLEscapeString(b.canonical))
		sb.WriteString(`">`)
	}
	if b.noIndex {
		sb.WriteString(`<meta name="robots" content="noindex, nofollow">`)
	}
	for _, js := range b.jsonLD {
		sb.WriteString(`<script type="application/ld+json">`)
		sb.WriteString(js)
		sb.WriteString(`</script>`)
	}
	return template.HTML(sb.String())
}
