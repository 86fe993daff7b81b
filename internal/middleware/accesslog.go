package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/servicii-ro/directory/internal/metrics"
	"github.com/servicii-ro/directory/internal/requestinfo"
)

// AccessLog writes one INFO line per request and observes the latency
// histogram under the matched chi route pattern.  Must run inside
// requestinfo.Enrich and chi's RequestID.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status/100)+"xx").
			Observe(elapsed.Seconds())

		info := requestinfo.FromContext(r.Context())
		zap.L().Info("http",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", elapsed),
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.String("country", info.Country),
			zap.Bool("bot", info.UA.IsBot),
		)
	})
}
