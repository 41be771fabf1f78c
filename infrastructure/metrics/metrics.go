// Package metrics holds the prometheus collectors of the service and
// decorators that time calls to the embedding model and the vector store.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors groups the service metrics and the registry that exposes them.
type Collectors struct {
	Registry *prometheus.Registry

	// Throughput
	Requests *prometheus.CounterVec

	// Latency of external calls
	EmbeddingDuration   *prometheus.HistogramVec
	VectorStoreDuration *prometheus.HistogramVec
}

// New registers every collector on a fresh registry.
func New() *Collectors {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Collectors{
		Registry: reg,
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "songsearch_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "method", "status"}),
		EmbeddingDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "songsearch_embedding_duration_seconds",
			Help:    "Time spent waiting for the embedding model",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"outcome"}),
		VectorStoreDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "songsearch_vectorstore_duration_seconds",
			Help:    "Time spent waiting for the vector store",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "outcome"}),
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
