// internal/routing/slug.go
//
// Slug helpers.
//
// • MakeSlug(title) ─ converts arbitrary text into a URL-safe slug restricted
//   to ASCII a-z, 0-9 and “-”.
// • UniqueSlug(ctx, base, exists) ─ probes exists() and appends “-2”, “-3”,
//   … until the candidate is free.
//
// Rules (MakeSlug)
// ----------------
// 1. Fold diacritics (“Dentiști” → “dentisti”, “München” → “munchen”) and
//    expand the few letters NFD cannot split (“ß” → “ss”).
// 2. Lower-case everything.
// 3. Convert any run of non-[a-z0-9] characters to one “-”.
// 4. Trim leading / trailing “-”.
// 5. If the result is empty, return "item".
//
// Notes
// -----
// • Slugs are max 100 runes; UniqueSlug may add a short numeric suffix.
// • There is no locking around UniqueSlug.  Two writers racing on the same
//   name can both pick the same candidate; the unique index rejects one.

package routing

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 100

// expand covers letters that have no combining-mark decomposition.
var expand = strings.NewReplacer(
	"ß", "ss", "ẞ", "ss",
	"æ", "ae", "Æ", "ae",
	"œ", "oe", "Œ", "oe",
	"ø", "o", "Ø", "o",
	"đ", "d", "Đ", "d",
	"ł", "l", "Ł", "l",
)

// fold strips combining marks after canonical decomposition.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, expand.Replace(s))
	if err != nil {
		return s
	}
	return out
}

// MakeSlug converts title → lower-kebab ASCII.
func MakeSlug(title string) string {
	src := fold(title)

	var b strings.Builder
	b.Grow(len(src))

	lastWasDash := false
	for _, r := range strings.ToLower(src) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastWasDash = false
		default:
			if !lastWasDash {
				b.WriteRune('-')
				lastWasDash = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "item"
	}
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	return slug
}

// ExistsFunc reports whether slug is already taken.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// UniqueSlug returns base when free, otherwise the first free base-N with
// N starting at 2.
func UniqueSlug(ctx context.Context, base string, exists ExistsFunc) (string, error) {
	candidate := base
	for i := 2; ; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(i)
	}
}
