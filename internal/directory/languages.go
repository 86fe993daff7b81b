package directory

import "strings"

// KnownLanguages is the admin form's checkbox set, in display order.
var KnownLanguages = []string{"ro", "de", "en", "hu", "it", "fr", "es", "ru", "uk"}

// EncodeLanguages joins codes with commas, dropping blanks and trimming
// whitespace.  Order is preserved.
func EncodeLanguages(codes []string) string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return strings.Join(out, ",")
}

// DecodeLanguages splits a stored languages string.  Empty input yields an
// empty, non-nil slice.
func DecodeLanguages(s string) []string {
	out := []string{}
	for _, c := range strings.Split(s, ",") {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
