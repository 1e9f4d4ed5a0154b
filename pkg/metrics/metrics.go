package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics agrupa las métricas Prometheus del servicio.
type Metrics struct {
	Registry *prometheus.Registry

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Negocio
	AccessDenied      *prometheus.CounterVec
	DashboardBuilds   *prometheus.CounterVec
	DashboardDuration prometheus.Histogram
	EventsPublished   *prometheus.CounterVec

	// Caché
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

// New crea y registra las métricas en un registro propio (no el global) para poder
// instanciar varias veces en tests.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total de peticiones HTTP",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Latencia de peticiones HTTP en segundos",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		AccessDenied: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_access_denied_total",
				Help: "Chequeos de alcance denegados por tipo de entidad y rol",
			},
			[]string{"kind", "role"},
		),
		DashboardBuilds: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_dashboard_builds_total",
				Help: "Reportes de dashboard calculados por rol",
			},
			[]string{"role"},
		),
		DashboardDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "crm_dashboard_build_seconds",
				Help:    "Tiempo de cálculo del reporte de dashboard",
				Buckets: prometheus.DefBuckets,
			},
		),
		EventsPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_events_published_total",
				Help: "Eventos publicados por tipo y resultado",
			},
			[]string{"type", "result"},
		),
		CacheHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Aciertos de caché",
			},
			[]string{"cache"},
		),
		CacheMisses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Fallos de caché",
			},
			[]string{"cache"},
		),
	}
}

// RecordAccessDenied cuenta un chequeo de alcance denegado.
func (m *Metrics) RecordAccessDenied(kind, role string) {
	m.AccessDenied.WithLabelValues(kind, role).Inc()
}

// RecordCache cuenta un acierto o fallo de caché.
func (m *Metrics) RecordCache(cache string, hit bool) {
	if hit {
		m.CacheHits.WithLabelValues(cache).Inc()
		return
	}
	m.CacheMisses.WithLabelValues(cache).Inc()
}

// RecordDashboard registra el cálculo de un reporte.
func (m *Metrics) RecordDashboard(role string, seconds float64) {
	m.DashboardBuilds.WithLabelValues(role).Inc()
	m.DashboardDuration.Observe(seconds)
}

// RecordEvent cuenta un evento publicado (result: "ok" | "error").
func (m *Metrics) RecordEvent(eventType, result string) {
	m.EventsPublished.WithLabelValues(eventType, result).Inc()
}
