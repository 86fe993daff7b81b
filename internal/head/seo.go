package head

import (
	"fmt"
	"strings"
)

// LandingTitle is the <title> of a category×city page.
func LandingTitle(category, city string) string {
	return fmt.Sprintf("%s români în %s — Servicii în limba română", category, city)
}

// LandingDescription is the meta description of a category×city page.
func LandingDescription(category, city string) string {
	return fmt.Sprintf("Găsește %s care vorbesc română în %s. "+
		"Listă verificată, contacte rapide și firme recomandate de comunitate.",
		strings.ToLower(category), city)
}

// Excerpt shortens free text for a meta description, cutting on a word
// boundary.
func Excerpt(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	cut := string(r[:max])
	if i := strings.LastIndexByte(cut, ' '); i > max/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, ",.;: ") + "…"
}
