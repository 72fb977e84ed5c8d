package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a registry and every collector the service exports.
type Metrics struct {
	registry      *prometheus.Registry
	authOps       *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	ticketsPurged prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		authOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopauth_auth_operations_total",
				Help: "Auth operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopauth_http_requests_total",
				Help: "HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shopauth_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ticketsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shopauth_reset_tickets_purged_total",
			Help: "Expired password reset tickets removed by the purge job",
		}),
	}

	m.registry.MustRegister(
		m.authOps,
		m.httpRequests,
		m.httpDuration,
		m.ticketsPurged,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Record counts one auth operation outcome.
func (m *Metrics) Record(operation, outcome string) {
	m.authOps.WithLabelValues(operation, outcome).Inc()
}

// RecordPurge adds n purged reset tickets.
func (m *Metrics) RecordPurge(n int64) {
	if n > 0 {
		m.ticketsPurged.Add(float64(n))
	}
}

// Middleware counts requests by matched route, so path parameters such as
// reset tokens never become label values.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
