// Package metrics holds Prometheus instruments that are used across the
// directory.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency of HTTP requests by route pattern and status class.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"})

	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_searches_total",
			Help: "Listing queries served, by page and whether a radius filter applied.",
		}, []string{"page", "radius"})

	GeocodeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_requests_total",
			Help: "Geocoding lookups by outcome (ok, cached, or failure reason).",
		}, []string{"outcome"})

	ImageUploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_uploads_total",
			Help: "Image uploads by outcome.",
		}, []string{"outcome"})

	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Recommendation submissions by lifecycle event.",
		}, []string{"event"})

	ContactMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_messages_total",
			Help: "Contact form messages by delivery outcome.",
		}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestDuration,
		SearchesTotal,
		GeocodeTotal,
		ImageUploadsTotal,
		SubmissionsTotal,
		ContactMessagesTotal,
	)
}
