package requestinfo

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrich_AttachesInfo(t *testing.T) {
	var got *Info
	h := Enrich(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.9:51234"
	r.Header.Set("User-Agent", "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")
	r.Header.Set("Accept-Language", "ro-RO,ro;q=0.9,de;q=0.8")
	h.ServeHTTP(httptest.NewRecorder(), r)

	require.NotNil(t, got)
	assert.Equal(t, "203.0.113.9", got.IP.String())
	assert.Equal(t, "", got.Country)
	assert.True(t, got.UA.IsBot)
	assert.Equal(t, "ro-ro", got.UA.PrimaryLn)
}

func TestParseUA_Desktop(t *testing.T) {
	ua := ParseUA("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 "+
		"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36", "")
	assert.Equal(t, "Chrome", ua.Browser)
	assert.Equal(t, "Desktop", ua.Device)
	assert.False(t, ua.IsBot)
}

func TestClientIP(t *testing.T) {
	assert.Equal(t, "198.51.100.4", clientIP("198.51.100.4").String())
	assert.Equal(t, "::1", clientIP("[::1]:80").String())
	assert.Nil(t, clientIP("garbage"))
}

func TestFromContext_Empty(t *testing.T) {
	info := FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.NotNil(t, info)
	assert.Equal(t, "", info.Country)
}

func TestCountries_EmptyPath(t *testing.T) {
	c, err := OpenCountries("")
	require.NoError(t, err)
	assert.Equal(t, "", c.Lookup(clientIP("8.8.8.8")))
	assert.NoError(t, c.Close())
}
