// Package metrics exposes Prometheus collectors for the bridge service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	providerAttemptsTotal      *prometheus.CounterVec
	providerAttemptSeconds     *prometheus.HistogramVec
	resolutionsTotal           *prometheus.CounterVec
	mintCollisionsTotal        prometheus.Counter
	redirectsTotal             *prometheus.CounterVec
	visitIncrementsTotal       *prometheus.CounterVec
	cacheLookupsTotal          *prometheus.CounterVec
	monitorUnreachableLinks    prometheus.Gauge
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors. It is safe to call multiple times.
func Init() {
	once.Do(func() {
		providerAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkbridge_provider_attempts_total",
				Help: "Outbound provider calls, labeled by attempt stage and outcome kind.",
			},
			[]string{"stage", "outcome"},
		)

		providerAttemptSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "linkbridge_provider_attempt_duration_seconds",
				Help:    "Latency of single outbound provider calls.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
			},
			[]string{"stage"},
		)

		resolutionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkbridge_resolutions_total",
				Help: "Bridge resolutions, labeled by final outcome kind.",
			},
			[]string{"outcome"},
		)

		mintCollisionsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "linkbridge_mint_collisions_total",
				Help: "Token inserts rejected by the unique constraint.",
			},
		)

		redirectsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkbridge_redirects_total",
				Help: "Redirect lookups, labeled by result.",
			},
			[]string{"result"},
		)

		visitIncrementsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkbridge_visit_increments_total",
				Help: "Best-effort visit counter writes, labeled by result.",
			},
			[]string{"result"},
		)

		cacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkbridge_cache_lookups_total",
				Help: "Redirect cache lookups, labeled by tier and result.",
			},
			[]string{"tier", "result"},
		)

		monitorUnreachableLinks = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "linkbridge_monitor_unreachable_links",
				Help: "Links whose provider short URL failed the last health check.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkbridge_http_requests_total",
				Help: "Inbound HTTP requests, labeled by method, route and code.",
			},
			[]string{"method", "route", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "linkbridge_http_request_duration_seconds",
				Help:    "Histogram of inbound HTTP request latencies.",
				Buckets: []float64{0.005, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveProviderAttempt records one outbound provider call.
func ObserveProviderAttempt(stage, outcome string, d time.Duration) {
	Init()
	providerAttemptsTotal.WithLabelValues(stage, outcome).Inc()
	providerAttemptSeconds.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveResolution records the final outcome of a bridge resolution.
func ObserveResolution(outcome string) {
	Init()
	resolutionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveMintCollision increments the token collision counter.
func ObserveMintCollision() {
	Init()
	mintCollisionsTotal.Inc()
}

// ObserveRedirect records one redirect lookup.
func ObserveRedirect(result string) {
	Init()
	redirectsTotal.WithLabelValues(result).Inc()
}

// ObserveVisitIncrement records one async visit write.
func ObserveVisitIncrement(result string) {
	Init()
	visitIncrementsTotal.WithLabelValues(result).Inc()
}

// ObserveCacheLookup records a cache lookup for the given tier.
func ObserveCacheLookup(tier, result string) {
	Init()
	cacheLookupsTotal.WithLabelValues(tier, result).Inc()
}

// SetUnreachableLinks publishes the monitor's latest count.
func SetUnreachableLinks(n int) {
	Init()
	monitorUnreachableLinks.Set(float64(n))
}

// Middleware is a gin middleware that records HTTP request metrics.
func Middleware() gin.HandlerFunc {
	Init()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		method := c.Request.Method
		httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDurationSeconds.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
