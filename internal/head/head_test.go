package head

import (
	"strings"
	"testing"
)

func TestLandingCopy(t *testing.T) {
	if got := LandingTitle("Dentiști", "Berlin"); got != "Dentiști români în Berlin — Servicii în limba română" {
		t.Fatalf("LandingTitle = %q", got)
	}
	want := "Găsește dentiști care vorbesc română în Berlin. " +
		"Listă verificată, contacte rapide și firme recomandate de comunitate."
	if got := LandingDescription("Dentiști", "Berlin"); got != want {
		t.Fatalf("LandingDescription = %q", got)
	}
}

func TestBuilder_TitleAndTags(t *testing.T) {
	b := New()
	if b.Title() != SiteName {
		t.Fatalf("empty title = %q", b.Title())
	}
	b.SetTitle("Berlin")
	if b.Title() != "Berlin | "+SiteName {
		t.Fatalf("Title = %q", b.Title())
	}

	b.SetDescription(`Avocați "de încredere"`)
	b.Canonical("https://example.org/city/berlin")
	b.NoIndex()
	b.JSONLD(`{"@type":"LocalBusiness"}`)
	b.JSONLD(`{"@type":"LocalBusiness"}`)

	tags := string(b.Tags())
	for _, want := range []string{
		`content="Avocați &#34;de încredere&#34;"`,
		`<link rel="canonical" href="https://example.org/city/berlin">`,
		`noindex`,
	} {
		if !strings.Contains(tags, want) {
			t.Errorf("tags missing %q:\n%s", want, tags)
		}
	}
	if strings.Count(tags, "application/ld+json") != 1 {
		t.Errorf("JSON-LD not deduplicated")
	}
}

func TestExcerpt(t *testing.T) {
	if got := Excerpt("short  text", 50); got != "short text" {
		t.Fatalf("Excerpt = %q", got)
	}
	got := Excerpt("Programări rapide pentru toată familia, vorbim română și germană.", 30)
	if got != "Programări rapide pentru…" {
		t.Fatalf("Excerpt = %q", got)
	}
}
