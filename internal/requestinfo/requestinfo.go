//
//  internal/requestinfo/requestinfo.go
//
//  Per-request metadata (user-agent fingerprint, client IP, and country)
//  collected once by Enrich and read by the access log and templates.
//  These structs are inert, so they are safe to log.
//
//  Dependencies
//  • github.com/avct/uasurfer           (UA parsing)
//  • github.com/oschwald/geoip2-golang  (optional MaxMind country lookup)
//

package requestinfo

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	surfer "github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
)

// UA carries the attributes the site cares about.  Device is one of
// "Desktop", "Mobile", "Tablet", or "Other".
type UA struct {
	Browser   string
	Version   string
	OS        string
	Device    string
	IsBot     bool
	PrimaryLn string // first Accept-Language tag, lowercased
}

// Info is attached to every request context by Enrich.
type Info struct {
	UA      UA
	IP      net.IP
	Country string // ISO code, empty without a GeoIP database
}

type ctxKey struct{}

// WithInfo returns ctx carrying info.
func WithInfo(ctx context.Context, info *Info) context.Context {
	return context.WithValue(ctx, ctxKey{}, info)
}

// FromContext returns the value stored by Enrich, or an empty Info.
func FromContext(ctx context.Context) *Info {
	if v, ok := ctx.Value(ctxKey{}).(*Info); ok {
		return v
	}
	return &Info{}
}

// ParseUA converts a raw header into UA.
func ParseUA(raw, acceptLang string) UA {
	u := surfer.Parse(raw)

	out := UA{
		Browser:   strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		Version:   versionString(u.Browser.Version),
		OS:        strings.TrimPrefix(u.OS.Name.String(), "OS"),
		IsBot:     u.IsBot(),
		PrimaryLn: primaryLang(acceptLang),
	}
	switch u.DeviceType {
	case surfer.DeviceComputer:
		out.Device = "Desktop"
	case surfer.DeviceTablet:
		out.Device = "Tablet"
	case surfer.DevicePhone, surfer.DeviceWearable:
		out.Device = "Mobile"
	default:
		out.Device = "Other"
	}
	return out
}

// versionString renders 17.0.0 → "17", 17.3.0 → "17.3", 17.3.1 → "17.3.1".
func versionString(v surfer.Version) string {
	switch {
	case v.Major == 0 && v.Minor == 0 && v.Patch == 0:
		return ""
	case v.Patch != 0:
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	case v.Minor != 0:
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	default:
		return strconv.Itoa(v.Major)
	}
}

// primaryLang extracts the first language subtag before any ";q=" rule.
func primaryLang(al string) string {
	tag, _, _ := strings.Cut(al, ",")
	tag, _, _ = strings.Cut(tag, ";")
	return strings.ToLower(strings.TrimSpace(tag))
}

// Countries resolves client IPs to ISO country codes.  The zero value (and
// a nil pointer) resolves nothing.
type Countries struct {
	db *geoip2.Reader
}

// OpenCountries opens a GeoLite2 Country or City database.  An empty path
// returns a resolver that always answers "".
func OpenCountries(path string) (*Countries, error) {
	if path == "" {
		return &Countries{}, nil
	}
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip open %s: %w", path, err)
	}
	return &Countries{db: db}, nil
}

// Lookup returns the ISO code for ip, or "" when unknown.
func (c *Countries) Lookup(ip net.IP) string {
	if c == nil || c.db == nil || ip == nil {
		return ""
	}
	rec, err := c.db.Country(ip)
	if err != nil {
		return ""
	}
	return rec.Country.IsoCode
}

// Close releases the database file.
func (c *Countries) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}
