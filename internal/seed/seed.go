// Package seed loads the reference categories and cities.
//
// The data ships embedded (data.yaml) and can be overridden with a file.
// Rows are upserted by slug: existing rows get their name (and, for cities,
// state and centroid) refreshed; listings pointing at them are untouched.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"gopkg.in/yaml.v3"

	"github.com/servicii-ro/directory/internal/database"
	"github.com/servicii-ro/directory/internal/routing"
)

//go:embed data.yaml
var defaultData []byte

// City is one seeded city with its centroid.
type City struct {
	Name  string  `yaml:"name"`
	State string  `yaml:"state"`
	Lat   float64 `yaml:"lat"`
	Lng   float64 `yaml:"lng"`
}

// Data is the seed document.
type Data struct {
	Categories []string `yaml:"categories"`
	Cities     []City   `yaml:"cities"`
}

// Report counts the rows written.
type Report struct {
	Categories int
	Cities     int
}

// Default returns the embedded data set.
func Default() (Data, error) { return Parse(defaultData) }

// File reads a seed document from path.
func File(path string) (Data, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Data{}, err
	}
	return Parse(b)
}

// Parse decodes and checks a seed document.  Unknown keys are rejected.
func Parse(b []byte) (Data, error) {
	var d Data
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return Data{}, fmt.Errorf("seed yaml: %w", err)
	}
	return d, d.validate()
}

func (d Data) validate() error {
	seen := map[string]string{}
	check := func(kind, name string) error {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("seed: empty %s name", kind)
		}
		key := kind + ":" + routing.MakeSlug(name)
		if prev, dup := seen[key]; dup {
			return fmt.Errorf("seed: %s %q and %q share a slug", kind, prev, name)
		}
		seen[key] = name
		return nil
	}
	for _, c := range d.Categories {
		if err := check("category", c); err != nil {
			return err
		}
	}
	for _, c := range d.Cities {
		if err := check("city", c.Name); err != nil {
			return err
		}
		if c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
			return fmt.Errorf("seed: city %q has out-of-range coordinates", c.Name)
		}
	}
	if len(d.Categories) == 0 {
		return errors.New("seed: no categories")
	}
	return nil
}

const (
	upsertCategory = `INSERT INTO category (name, slug) VALUES (?, ?)
ON DUPLICATE KEY UPDATE name = VALUES(name)`

	upsertCity = `INSERT INTO city (name, slug, state, lat, lng) VALUES (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE name = VALUES(name), state = VALUES(state), lat = VALUES(lat), lng = VALUES(lng)`
)

// Apply upserts d in one transaction.
func Apply(ctx context.Context, db *sqlx.DB, d Data) (Report, error) {
	var rep Report
	err := database.WithTx(ctx, db, func(tx *sqlx.Tx) error {
		for _, name := range d.Categories {
			if _, err := tx.ExecContext(ctx, upsertCategory, name, routing.MakeSlug(name)); err != nil {
				return fmt.Errorf("category %q: %w", name, err)
			}
			rep.Categories++
		}
		for _, c := range d.Cities {
			if _, err := tx.ExecContext(ctx, upsertCity,
				c.Name, routing.MakeSlug(c.Name), c.State, c.Lat, c.Lng); err != nil {
				return fmt.Errorf("city %q: %w", c.Name, err)
			}
			rep.Cities++
		}
		return nil
	})
	if err != nil {
		return Report{}, err
	}
	return rep, nil
}
