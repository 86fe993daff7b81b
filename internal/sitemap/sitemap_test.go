package sitemap

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicii-ro/directory/internal/directory"
	"github.com/servicii-ro/directory/internal/directory/dirtest"
)

func TestLocations_Order(t *testing.T) {
	s := dirtest.New()
	dent := s.AddCategory("Dentiști", "dentisti")
	s.AddCategory("Avocați", "avocati")
	berlin := s.AddCity("Berlin", "berlin", nil, nil)
	s.AddListing(directory.Listing{Name: "Dr. Ionescu", Slug: "dr-ionescu", CategoryID: dent.ID, CityID: berlin.ID})

	locs, err := Locations(context.Background(), s, "https://example.org/")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://example.org/",
		"https://example.org/category/avocati",
		"https://example.org/category/dentisti",
		"https://example.org/city/berlin",
		"https://example.org/servicii/avocati/berlin",
		"https://example.org/servicii/dentisti/berlin",
		"https://example.org/listing/dr-ionescu",
	}, locs)
}

func TestRender_Escapes(t *testing.T) {
	out, err := Render([]string{"https://example.org/?a=1&b=2"})
	require.NoError(t, err)

	doc := string(out)
	assert.True(t, strings.HasPrefix(doc, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, doc, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	assert.Contains(t, doc, "<loc>https://example.org/?a=1&amp;b=2</loc>")
}
