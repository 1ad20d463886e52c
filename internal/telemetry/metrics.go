package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	computeTotal    *prometheus.CounterVec
	computeDuration *prometheus.HistogramVec
	compareTotal    *prometheus.CounterVec
	workspaces      prometheus.Gauge
	httpRequests    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		computeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "funnel",
			Name:      "compute_total",
			Help:      "Funnel metric computations by scenario archetype.",
		}, []string{"archetype"}),
		computeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "funnel",
			Name:      "compute_duration_seconds",
			Help:      "Time spent computing funnel metrics.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}, []string{"op"}),
		compareTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "funnel",
			Name:      "compare_total",
			Help:      "Funnel comparisons by overall winner.",
		}, []string{"winner"}),
		workspaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "funnel",
			Name:      "workspaces",
			Help:      "Workspaces currently stored.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "funnel",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status.",
		}, []string{"method", "status"}),
	}
	m.reg.MustRegister(
		m.computeTotal, m.computeDuration, m.compareTotal, m.workspaces, m.httpRequests,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) ObserveCompute(archetype string, d time.Duration) {
	if m == nil {
		return
	}
	m.computeTotal.WithLabelValues(archetype).Inc()
	m.computeDuration.WithLabelValues("compute").Observe(d.Seconds())
}

func (m *Metrics) ObserveCompare(winner string, d time.Duration) {
	if m == nil {
		return
	}
	m.compareTotal.WithLabelValues(winner).Inc()
	m.computeDuration.WithLabelValues("compare").Observe(d.Seconds())
}

func (m *Metrics) SetWorkspaces(n int) {
	if m == nil {
		return
	}
	m.workspaces.Set(float64(n))
}

func (m *Metrics) ObserveHTTP(method, status string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, status).Inc()
}
