// internal/routing/slug_test.go
//
// Unit-tests for MakeSlug and UniqueSlug.

package routing

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
)

var slugRE = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func TestMakeSlug(t *testing.T) {
	cases := map[string]string{
		"Dentiști":               "dentisti",
		"Mecanici Auto":          "mecanici-auto",
		"München":                "munchen",
		"Frankfurt am Main":      "frankfurt-am-main",
		"Düsseldorf":             "dusseldorf",
		"Großbäckerei Ţăranu":    "grossbackerei-taranu",
		"  --Hello,   World!-- ": "hello-world",
		"Traducători":            "traducatori",
		"":                       "item",
		"!!!":                    "item",
	}
	for in, want := range cases {
		if got := MakeSlug(in); got != want {
			t.Errorf("MakeSlug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMakeSlug_URLSafeAndBounded(t *testing.T) {
	inputs := []string{
		"Cabinet Stomatologic Dr. Popescu & Asociații",
		strings.Repeat("Avocat ", 40),
		"Șofer 24/7 — transport persoane",
	}
	for _, in := range inputs {
		got := MakeSlug(in)
		if !slugRE.MatchString(got) {
			t.Errorf("MakeSlug(%q) = %q is not URL-safe", in, got)
		}
		if len(got) > maxSlugLen {
			t.Errorf("MakeSlug(%q) length %d exceeds %d", in, len(got), maxSlugLen)
		}
	}
}

func TestUniqueSlug_IncrementsFromTwo(t *testing.T) {
	taken := map[string]bool{"dentist": true, "dentist-2": true, "dentist-3": true}
	var probes []string
	exists := func(_ context.Context, s string) (bool, error) {
		probes = append(probes, s)
		return taken[s], nil
	}

	got, err := UniqueSlug(context.Background(), "dentist", exists)
	if err != nil {
		t.Fatalf("UniqueSlug error: %v", err)
	}
	if got != "dentist-4" {
		t.Fatalf("UniqueSlug = %q, want dentist-4", got)
	}
	want := []string{"dentist", "dentist-2", "dentist-3", "dentist-4"}
	if strings.Join(probes, ",") != strings.Join(want, ",") {
		t.Fatalf("probe order = %v, want %v", probes, want)
	}
}

func TestUniqueSlug_FreeBase(t *testing.T) {
	got, err := UniqueSlug(context.Background(), "avocat", func(context.Context, string) (bool, error) {
		return false, nil
	})
	if err != nil || got != "avocat" {
		t.Fatalf("UniqueSlug = %q, %v; want avocat, nil", got, err)
	}
}

func TestUniqueSlug_PropagatesError(t *testing.T) {
	boom := errors.New("db down")
	_, err := UniqueSlug(context.Background(), "x", func(context.Context, string) (bool, error) {
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
