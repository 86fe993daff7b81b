// internal/form/errors.go
//
// Forms subsystem: user-facing validation messages.
//
// Context
//   Domain validation uses go-playground/validator struct tags.  Templates
//   need one Romanian sentence per offending input, keyed by the input's
//   HTML name.  Validators built with NewValidator report the `form` tag as
//   the field name, so FieldErrors can key the map directly.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that names fields after their `form` tag.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// FieldErrors maps each failing input to a message.  Errors that are not
// validator errors produce an empty map.
func FieldErrors(err error) map[string]string {
	out := map[string]string{}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return out
	}
	for _, fe := range ves {
		if _, seen := out[fe.Field()]; !seen {
			out[fe.Field()] = message(fe)
		}
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Câmpul este obligatoriu."
	case "email":
		return "Adresa de e-mail nu este validă."
	case "max":
		return fmt.Sprintf("Maximum %s caractere.", fe.Param())
	case "min":
		return fmt.Sprintf("Minimum %s caractere.", fe.Param())
	case "url":
		return "Adresa web nu este validă."
	case "oneof":
		return "Valoare nepermisă."
	default:
		return "Valoare invalidă."
	}
}
