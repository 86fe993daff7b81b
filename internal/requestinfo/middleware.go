// internal/requestinfo/middleware.go
//
// HTTP middleware that enriches each request with *Info.
//
/*
Context
--------
Sits right after chi's RealIP and before the access log.  For every request
it parses the User-Agent and Accept-Language headers, resolves the client
IP (already normalised by RealIP) to a country when a GeoIP database is
configured, and stores the result in the request context.
*/
package requestinfo

import (
	"net"
	"net/http"
)

// Enrich returns middleware attaching *Info.  countries may be nil.
func Enrich(countries *Countries) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r.RemoteAddr)
			info := &Info{
				UA:      ParseUA(r.UserAgent(), r.Header.Get("Accept-Language")),
				IP:      ip,
				Country: countries.Lookup(ip),
			}
			next.ServeHTTP(w, r.WithContext(WithInfo(r.Context(), info)))
		})
	}
}

// clientIP accepts both "ip:port" and a bare IP, which is what RealIP
// leaves behind.
func clientIP(remote string) net.IP {
	if host, _, err := net.SplitHostPort(remote); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(remote)
}
