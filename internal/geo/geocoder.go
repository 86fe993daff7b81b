package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/servicii-ro/directory/internal/metrics"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org/search"
	DefaultUserAgent = "servicii-ro-germania"
	DefaultTimeout   = 5 * time.Second
	DefaultCacheTTL  = 7 * 24 * time.Hour
)

// Failure names why a lookup produced no coordinates.
type Failure string

const (
	FailureNone       Failure = ""
	FailureEmptyQuery Failure = "empty_query"
	FailureNetwork    Failure = "network"
	FailureTimeout    Failure = "timeout"
	FailureStatus     Failure = "status"
	FailureParse      Failure = "parse"
	FailureNotFound   Failure = "not_found"
)

// Result is the outcome of one Geocode call.  Point is meaningful only when
// OK() is true.
type Result struct {
	Point   Point
	Failure Failure
	Err     error // underlying cause, nil for FailureNone and FailureNotFound
	Cached  bool
}

// OK reports whether coordinates were resolved.
func (r Result) OK() bool { return r.Failure == FailureNone }

// Locator is what search needs from a geocoder.
type Locator interface {
	Geocode(ctx context.Context, query string) Result
}

// Options configures a Geocoder.  Zero values fall back to the defaults.
type Options struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	CacheTTL   time.Duration
	HTTPClient *http.Client
	Store      Store
}

// Geocoder resolves free text through a Nominatim-compatible search API.
// Every failure is folded into the Result; Geocode never returns an error.
type Geocoder struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
	ttl       time.Duration
	client    *http.Client
	store     Store
	sfg       singleflight.Group
}

// NewGeocoder builds a Geocoder from opts.
func NewGeocoder(opts Options) *Geocoder {
	g := &Geocoder{
		baseURL:   opts.BaseURL,
		userAgent: opts.UserAgent,
		timeout:   opts.Timeout,
		ttl:       opts.CacheTTL,
		client:    opts.HTTPClient,
		store:     opts.Store,
	}
	if strings.TrimSpace(g.baseURL) == "" {
		g.baseURL = DefaultBaseURL
	}
	if g.userAgent == "" {
		g.userAgent = DefaultUserAgent
	}
	if g.timeout <= 0 {
		g.timeout = DefaultTimeout
	}
	if g.ttl <= 0 {
		g.ttl = DefaultCacheTTL
	}
	if g.client == nil {
		g.client = &http.Client{}
	}
	return g
}

// cachedPoint is the cache payload.  Found=false records a definitive miss
// so repeated nonsense queries do not hit the upstream.
type cachedPoint struct {
	Found bool    `json:"found"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

// Geocode resolves query to a Point.  Identical concurrent queries share one
// upstream call.
func (g *Geocoder) Geocode(ctx context.Context, query string) Result {
	q := strings.TrimSpace(query)
	if q == "" {
		return Result{Failure: FailureEmptyQuery}
	}
	key := "geo:v1:" + strings.ToLower(strings.Join(strings.Fields(q), " "))

	if g.store != nil {
		if raw, ok := g.store.Get(ctx, key); ok {
			var cp cachedPoint
			if err := json.Unmarshal(raw, &cp); err == nil {
				metrics.GeocodeTotal.WithLabelValues("cached").Inc()
				if !cp.Found {
					return Result{Failure: FailureNotFound, Cached: true}
				}
				return Result{Point: Point{Lat: cp.Lat, Lng: cp.Lng}, Cached: true}
			}
		}
	}

	// The shared lookup outlives any single caller; lookup bounds it with
	// the client timeout.
	shared := context.WithoutCancel(ctx)
	v, _, _ := g.sfg.Do(key, func() (any, error) {
		res := g.lookup(shared, q)
		if g.store != nil && (res.OK() || res.Failure == FailureNotFound) {
			payload, _ := json.Marshal(cachedPoint{Found: res.OK(), Lat: res.Point.Lat, Lng: res.Point.Lng})
			g.store.Set(shared, key, payload, g.ttl)
		}
		return res, nil
	})
	res := v.(Result)

	outcome := string(res.Failure)
	if res.OK() {
		outcome = "ok"
	}
	metrics.GeocodeTotal.WithLabelValues(outcome).Inc()
	if !res.OK() && res.Failure != FailureNotFound {
		zap.L().Warn("geocode failed",
			zap.String("query", q),
			zap.String("reason", string(res.Failure)),
			zap.Error(res.Err))
	}
	return res
}

// nominatimHit is the subset of a Nominatim search row we read.  Nominatim
// encodes coordinates as strings.
type nominatimHit struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (g *Geocoder) lookup(ctx context.Context, q string) Result {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("q", q)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Result{Failure: FailureNetwork, Err: fmt.Errorf("build geocode request: %w", err)}
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return Result{Failure: FailureTimeout, Err: err}
		}
		return Result{Failure: FailureNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{Failure: FailureStatus, Err: fmt.Errorf("geocode returned status %d", resp.StatusCode)}
	}

	var hits []nominatimHit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		if isTimeout(err) {
			return Result{Failure: FailureTimeout, Err: err}
		}
		return Result{Failure: FailureParse, Err: fmt.Errorf("decode geocode response: %w", err)}
	}
	if len(hits) == 0 {
		return Result{Failure: FailureNotFound}
	}

	lat, err := strconv.ParseFloat(hits[0].Lat, 64)
	if err != nil {
		return Result{Failure: FailureParse, Err: fmt.Errorf("parse lat %q: %w", hits[0].Lat, err)}
	}
	lng, err := strconv.ParseFloat(hits[0].Lon, 64)
	if err != nil {
		return Result{Failure: FailureParse, Err: fmt.Errorf("parse lon %q: %w", hits[0].Lon, err)}
	}
	return Result{Point: Point{Lat: lat, Lng: lng}}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
