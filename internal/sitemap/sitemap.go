// Package sitemap renders /sitemap.xml.
//
// URL order: home, every category, every city, every category×city landing
// page, every listing.
package sitemap

import (
	"bytes"
	"context"
	"encoding/xml"
	"strings"

	"github.com/servicii-ro/directory/internal/directory"
)

const xmlns = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []url    `xml:"url"`
}

type url struct {
	Loc string `xml:"loc"`
}

// Source is the read side the sitemap needs.
type Source interface {
	Categories(ctx context.Context) ([]directory.Category, error)
	Cities(ctx context.Context) ([]directory.City, error)
	ListingSlugs(ctx context.Context) ([]string, error)
}

// Locations returns every public URL under base.
func Locations(ctx context.Context, src Source, base string) ([]string, error) {
	base = strings.TrimRight(base, "/")

	cats, err := src.Categories(ctx)
	if err != nil {
		return nil, err
	}
	cities, err := src.Cities(ctx)
	if err != nil {
		return nil, err
	}
	slugs, err := src.ListingSlugs(ctx)
	if err != nil {
		return nil, err
	}

	locs := make([]string, 0, 1+len(cats)+len(cities)+len(cats)*len(cities)+len(slugs))
	locs = append(locs, base+"/")
	for _, c := range cats {
		locs = append(locs, base+"/category/"+c.Slug)
	}
	for _, c := range cities {
		locs = append(locs, base+"/city/"+c.Slug)
	}
	for _, c := range cats {
		for _, ci := range cities {
			locs = append(locs, base+"/servicii/"+c.Slug+"/"+ci.Slug)
		}
	}
	for _, s := range slugs {
		locs = append(locs, base+"/listing/"+s)
	}
	return locs, nil
}

// Render encodes locs as a sitemap document.
func Render(locs []string) ([]byte, error) {
	set := urlset{Xmlns: xmlns, URLs: make([]url, len(locs))}
	for i, l := range locs {
		set.URLs[i] = url{Loc: l}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
