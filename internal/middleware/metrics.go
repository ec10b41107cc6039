package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/pitchlens/internal/metrics"
)

// Metrics tracks request count, latency and in-flight requests in prometheus.
// The endpoint label is the chi route pattern, never the raw path.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.TrackActiveRequest(true)
		defer metrics.TrackActiveRequest(false)

		start := time.Now()
		wrapped := wrapWriter(w)
		next.ServeHTTP(wrapped, r)

		endpoint := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				endpoint = p
			}
		}
		metrics.RecordAPIRequest(r.Method, endpoint, strconv.Itoa(wrapped.statusCode), time.Since(start))
	})
}
