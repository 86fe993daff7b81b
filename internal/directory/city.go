package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/servicii-ro/directory/internal/routing"
)

// ParseCityInput strips a leading postal code ("31655 Stadthagen") and
// collapses whitespace.  An empty result is ErrInvalidCity.
func ParseCityInput(raw string) (string, error) {
	fields := strings.Fields(raw)
	if len(fields) > 0 && allDigits(fields[0]) {
		fields = fields[1:]
	}
	name := strings.Join(fields, " ")
	if name == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidCity, raw)
	}
	return name, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// CityResolution is the outcome of ResolveCity.  Created is true when the
// city did not exist and was inserted.
type CityResolution struct {
	City    City
	Created bool
}

// ResolveCity finds the city named by raw (case-insensitive exact match) or
// creates it with a unique slug and no state or coordinates.  Run it inside
// the caller's transaction so a created city commits or rolls back with the
// rest of the work.
func ResolveCity(ctx context.Context, repo Repository, raw string) (CityResolution, error) {
	name, err := ParseCityInput(raw)
	if err != nil {
		return CityResolution{}, err
	}

	c, err := repo.CityByName(ctx, name)
	if err == nil {
		return CityResolution{City: c}, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return CityResolution{}, err
	}

	slug, err := routing.UniqueSlug(ctx, routing.MakeSlug(name), repo.CitySlugExists)
	if err != nil {
		return CityResolution{}, fmt.Errorf("city slug: %w", err)
	}
	c = City{Name: name, Slug: slug}
	if err := repo.CreateCity(ctx, &c); err != nil {
		return CityResolution{}, err
	}
	return CityResolution{City: c, Created: true}, nil
}

// MatchKind tags how a free-text category was reconciled.
type MatchKind int

const (
	NotFound MatchKind = iota
	Matched
	FallbackDefault
)

func (k MatchKind) String() string {
	switch k {
	case Matched:
		return "matched"
	case FallbackDefault:
		return "fallback_default"
	default:
		return "not_found"
	}
}

// CategoryMatch is the result of ReconcileCategory.  ID is zero for
// NotFound.
type CategoryMatch struct {
	Kind MatchKind
	ID   int64
}

// ReconcileCategory matches name case-insensitively against existing
// categories.  Without a match it falls back to the alphabetically first
// category; with no categories at all it reports NotFound.  Policy is left
// to the caller.
func ReconcileCategory(ctx context.Context, repo Repository, name string) (CategoryMatch, error) {
	if n := strings.TrimSpace(name); n != "" {
		c, err := repo.CategoryByName(ctx, n)
		if err == nil {
			return CategoryMatch{Kind: Matched, ID: c.ID}, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return CategoryMatch{}, err
		}
	}

	c, err := repo.FirstCategory(ctx)
	if errors.Is(err, ErrNotFound) {
		return CategoryMatch{Kind: NotFound}, nil
	}
	if err != nil {
		return CategoryMatch{}, err
	}
	return CategoryMatch{Kind: FallbackDefault, ID: c.ID}, nil
}
