// Package metrics exposes Prometheus collectors for screen loads,
// mutations and HTTP traffic.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"marketadmin/internal/domain"
	"marketadmin/internal/listing"
)

var (
	// Loads
	Loads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketadmin_screen_loads_total",
			Help: "Collection loads by resource and result",
		},
		[]string{"resource", "result"},
	)
	LoadDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketadmin_screen_load_duration_seconds",
			Help:    "Duration of collection loads",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"resource"},
	)

	// Mutations
	Mutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketadmin_screen_mutations_total",
			Help: "Create, update and delete calls by resource and result",
		},
		[]string{"resource", "op", "result"},
	)
	Rollbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketadmin_screen_rollbacks_total",
			Help: "Optimistic mutations undone after a failed write",
		},
		[]string{"resource", "op"},
	)

	// HTTP
	Requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketadmin_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)
	RequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketadmin_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	prometheus.MustRegister(
		Loads,
		LoadDurationSeconds,
		Mutations,
		Rollbacks,
		Requests,
		RequestDurationSeconds,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Result labels err by its domain kind; nil is "ok".
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, listing.ErrClosed):
		return "closed"
	case domain.IsValidation(err):
		return "validation"
	case domain.IsNotFound(err):
		return "not_found"
	case domain.IsConflict(err):
		return "conflict"
	case domain.IsForbidden(err):
		return "forbidden"
	case domain.IsApplication(err):
		return "application"
	case domain.IsTransport(err):
		return "transport"
	default:
		return "internal"
	}
}

// Observer feeds collection events into the collectors above.
type Observer struct{}

func (Observer) LoadDone(resource string, took time.Duration, err error) {
	Loads.WithLabelValues(resource, Result(err)).Inc()
	LoadDurationSeconds.WithLabelValues(resource).Observe(took.Seconds())
}

func (Observer) MutationDone(resource, op string, err error, rolledBack bool) {
	Mutations.WithLabelValues(resource, op, Result(err)).Inc()
	if rolledBack {
		Rollbacks.WithLabelValues(resource, op).Inc()
	}
}

// Middleware records every request under its route pattern.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		Requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		RequestDurationSeconds.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
