package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ttlearn/domain/run"
)

// Metrics collects HTTP and analysis counters for the admin endpoint. A nil
// receiver is safe everywhere so metrics stay optional in tests.
type Metrics struct {
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	runsStarted       prometheus.Counter
	runsFinished      *prometheus.CounterVec
	participantsSeen  *prometheus.CounterVec
}

// NewMetrics creates and registers the metric set on the default registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analysis_runs_started_total",
			Help: "Total analysis runs accepted for execution.",
		}),
		runsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analysis_runs_finished_total",
			Help: "Total analysis runs reaching a terminal status.",
		}, []string{"status"}),
		participantsSeen: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analysis_participants_total",
			Help: "Participants handled across finished runs by disposition.",
		}, []string{"disposition"}),
	}

	prometheus.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.runsStarted,
		m.runsFinished,
		m.participantsSeen,
	)

	return m
}

// GinMiddleware records request counts and durations keyed by route pattern.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// RunStarted counts an accepted run.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.runsStarted.Inc()
}

// RunFinished counts a terminal run and its participant dispositions.
func (m *Metrics) RunFinished(rn run.Run) {
	if m == nil {
		return
	}
	m.runsFinished.WithLabelValues(rn.Status).Inc()
	m.participantsSeen.WithLabelValues("processed").Add(float64(rn.Processed))
	m.participantsSeen.WithLabelValues("skipped").Add(float64(rn.Skipped))
}

// Handler exposes the default registry for the admin listener.
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}
