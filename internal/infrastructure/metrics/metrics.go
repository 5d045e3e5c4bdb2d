package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Training lifecycle
	TrainingsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "botforge",
		Subsystem: "training",
		Name:      "started_total",
		Help:      "Total training runs started",
	})
	TrainingsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "botforge",
		Subsystem: "training",
		Name:      "completed_total",
		Help:      "Total training runs completed successfully",
	})
	TrainingsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "botforge",
		Subsystem: "training",
		Name:      "failed_total",
		Help:      "Total training runs that ended in failure",
	})

	// Agent cache
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "botforge",
		Subsystem: "agent_cache",
		Name:      "hits_total",
		Help:      "Agent cache hits",
	})
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "botforge",
		Subsystem: "agent_cache",
		Name:      "misses_total",
		Help:      "Agent cache misses",
	})
	CacheEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "botforge",
		Subsystem: "agent_cache",
		Name:      "evictions_total",
		Help:      "Agent cache evictions by billing class",
	}, []string{"billed"})

	// RAG pipeline
	RAGCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "botforge",
		Subsystem: "rag",
		Name:      "response_cache_hits_total",
		Help:      "Exact-match response cache hits",
	})
	RAGFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "botforge",
		Subsystem: "rag",
		Name:      "failures_total",
		Help:      "RAG pipeline failures by stage",
	}, []string{"stage"})
	CompletionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "botforge",
		Subsystem: "rag",
		Name:      "completion_duration_seconds",
		Help:      "Chat completion latency in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})
	EmbeddingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "botforge",
		Subsystem: "rag",
		Name:      "embedding_duration_seconds",
		Help:      "Embedding computation latency in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
