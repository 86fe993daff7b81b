package view

import (
	"github.com/servicii-ro/directory/internal/directory"
	"github.com/servicii-ro/directory/internal/head"
	"github.com/servicii-ro/directory/internal/session"
)

// Page is the value every template receives.  Data holds the page-specific
// view model.
type Page struct {
	Head        *head.Builder
	Categories  []directory.Category
	Cities      []directory.City
	Flashes     []session.FlashMessage
	CSRF        string
	Admin       bool
	AdminPrefix string
	Path        string
	Year        int
	Data        any
}
