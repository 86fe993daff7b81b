package view

import (
	"bytes"
	"database/sql"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"

	"github.com/servicii-ro/directory/internal/directory"
)

var (
	md        = goldmark.New(goldmark.WithExtensions(extension.Linkify))
	sanitizer = bluemonday.UGCPolicy().RequireNoFollowOnLinks(true)
)

// LanguageNames maps the stored codes to their Romanian names.
var LanguageNames = map[string]string{
	"ro": "Română",
	"de": "Germană",
	"en": "Engleză",
	"hu": "Maghiară",
	"it": "Italiană",
	"fr": "Franceză",
	"es": "Spaniolă",
	"ru": "Rusă",
	"uk": "Ucraineană",
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"markdown":  Markdown,
		"languages": languageNames,
		"langName":  langName,
		"knownLangs": func() []string {
			return directory.KnownLanguages
		},
		"hasLang":  hasLang,
		"telHref":  TelHref,
		"waHref":   WhatsAppHref,
		"siteHref": SiteHref,
		"km":       km,
		"str":      str,
		"date":     func(t time.Time) string { return t.Format("02.01.2006") },
		"dict":     dict,
		"radii":    func() []int { return directory.AllowedRadii },
	}
}

// Markdown renders listing descriptions.  Raw HTML is stripped by the
// sanitizer, links get rel=nofollow.
func Markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		zap.L().Warn("markdown render failed", zap.Error(err))
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(sanitizer.SanitizeBytes(buf.Bytes()))
}

func langName(code string) string {
	if n, ok := LanguageNames[code]; ok {
		return n
	}
	return strings.ToUpper(code)
}

func languageNames(stored string) []string {
	codes := directory.DecodeLanguages(stored)
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = langName(c)
	}
	return out
}

func hasLang(stored, code string) bool {
	for _, c := range directory.DecodeLanguages(stored) {
		if c == code {
			return true
		}
	}
	return false
}

// TelHref builds a tel: URL keeping a leading + and the digits.
func TelHref(phone string) template.URL {
	var b strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		if (r >= '0' && r <= '9') || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return template.URL("tel:" + b.String())
}

// WhatsAppHref builds a wa.me link.  German national numbers (leading 0)
// are rewritten to the +49 international form.
func WhatsAppHref(number string) template.URL {
	var digits strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	switch {
	case strings.HasPrefix(d, "00"):
		d = d[2:]
	case strings.HasPrefix(d, "0"):
		d = "49" + d[1:]
	}
	return template.URL("https://wa.me/" + d)
}

// SiteHref prefixes bare domains with https://.  Anything other than an
// http(s) URL is neutralised.
func SiteHref(site string) string {
	s := strings.TrimSpace(site)
	lower := strings.ToLower(s)
	switch {
	case s == "":
		return ""
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return s
	case strings.Contains(lower, ":"):
		return "#"
	default:
		return "https://" + s
	}
}

func km(d *float64) string {
	if d == nil {
		return ""
	}
	return fmt.Sprintf("%.1f km", *d)
}

func str(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}
