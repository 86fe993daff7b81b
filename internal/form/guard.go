// internal/form/guard.go
//
// Forms subsystem: honeypot trap for public forms.
//
// The trap is an input named `company_website` hidden by CSS.  Humans leave
// it empty.  A trapped request is answered exactly like a successful one so
// the bot learns nothing; callers simply skip the side effects.

package form

import (
	"net/http"
	"strings"
)

// FieldHoneypot is the hidden trap input.
const FieldHoneypot = "company_website"

// Trapped reports whether a parsed POST filled the honeypot.
func Trapped(r *http.Request) bool {
	return strings.TrimSpace(r.PostFormValue(FieldHoneypot)) != ""
}
