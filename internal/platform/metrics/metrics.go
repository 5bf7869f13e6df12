// Package metrics holds the Prometheus collectors shared by the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movieapp_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	RatingCacheRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieapp_rating_cache_refresh_total",
			Help: "Rating cache refreshes by outcome (upsert, delete, error)",
		},
		[]string{"result"},
	)

	OMDbRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieapp_omdb_requests_total",
			Help: "OMDb lookups by operation and outcome",
		},
		[]string{"op", "result"},
	)

	OMDbBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movieapp_omdb_breaker_state",
			Help: "OMDb circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieapp_events_published_total",
			Help: "Domain events handed to JetStream by subject",
		},
		[]string{"subject"},
	)
)

func RecordRatingCacheRefresh(result string) {
	RatingCacheRefreshes.WithLabelValues(result).Inc()
}

func RecordOMDbRequest(op, result string) {
	OMDbRequests.WithLabelValues(op, result).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request latency labelled by the matched chi route
// pattern so that path parameters do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		HTTPRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}
