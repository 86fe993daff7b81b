// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `loader.go` calls `validateStruct` right after it unmarshals the merged
// Koanf tree.  Any validation error aborts startup, so the binary never runs
// with partial or placeholder configuration.
//
// Custom rules
// ------------
//   • `notplaceholder` rejects the well-known development defaults for the
//     admin password and the secret key.

package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = newValidator()

// placeholders are values that must never reach production.
var placeholders = map[string]bool{
	"admin":                true,
	"password":             true,
	"changeme":             true,
	"change-me":            true,
	"dev-secret-change-me": true,
}

func newValidator() *validator.Validate {
	val := validator.New()
	_ = val.RegisterValidation("notplaceholder", func(fl validator.FieldLevel) bool {
		return !placeholders[strings.ToLower(strings.TrimSpace(fl.Field().String()))]
	})
	return val
}

//
// public API
//

// validateStruct returns the validation errors, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
