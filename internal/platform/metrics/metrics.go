package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa los contadores Prometheus del servicio.
type Metrics struct {
	HTTPRequests *prometheus.CounterVec

	PedigreeTraversalSeconds prometheus.Histogram
	LinebreedingAnalyses     prometheus.Counter
	PairTransitions          prometheus.Counter
}

// New registra las métricas en un registry propio (evita colisiones
// con el registry global en tests que levantan varios routers).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dog_registry_http_requests_total",
			Help: "Total HTTP requests by method and status code",
		}, []string{"method", "status"}),

		PedigreeTraversalSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dog_registry_pedigree_traversal_seconds",
			Help:    "Duration of pedigree tree traversals",
			Buckets: prometheus.DefBuckets,
		}),

		LinebreedingAnalyses: factory.NewCounter(prometheus.CounterOpts{
			Name: "dog_registry_linebreeding_analyses_total",
			Help: "Total linebreeding analyses performed",
		}),

		PairTransitions: factory.NewCounter(prometheus.CounterOpts{
			Name: "dog_registry_pair_transitions_total",
			Help: "Total successful breeding pair status transitions",
		}),
	}
}

// NewWithHandler arma métricas sobre un registry propio y devuelve el
// handler para montar en /metrics.
func NewWithHandler() (*Metrics, http.Handler) {
	reg := prometheus.NewRegistry()
	return New(reg), promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// PedigreeTimer devuelve un timer listo para defer en el traversal.
func (m *Metrics) PedigreeTimer() *prometheus.Timer {
	return prometheus.NewTimer(m.PedigreeTraversalSeconds)
}
