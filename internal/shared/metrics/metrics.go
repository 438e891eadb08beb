package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Generation outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeValidation  = "validation_error"
	OutcomeUpstream    = "upstream_error"
	OutcomeUnparseable = "unparseable"
)

var (
	generationRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ramresume_generation_requests_total",
		Help: "Text generation requests by operation and outcome.",
	}, []string{"operation", "outcome"})

	generationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ramresume_generation_duration_seconds",
		Help:    "Latency of upstream text generation calls.",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"operation"})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ramresume_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	usageLimitHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ramresume_usage_limit_hits_total",
		Help: "Billable requests rejected because the weekly ledger was exhausted.",
	})
)

func init() {
	prometheus.MustRegister(generationRequests, generationDuration, httpRequests, usageLimitHits)
}

// ObserveGeneration records one gateway call.
func ObserveGeneration(operation, outcome string, elapsed time.Duration) {
	generationRequests.WithLabelValues(operation, outcome).Inc()
	if outcome == OutcomeSuccess || outcome == OutcomeUpstream || outcome == OutcomeUnparseable {
		generationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
	}
}

// IncUsageLimitHit counts a request blocked by the usage gate.
func IncUsageLimitHit() {
	usageLimitHits.Inc()
}

// Middleware counts requests by matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Handler exposes the default registry in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
