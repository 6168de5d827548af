// Package metrics holds the Prometheus instruments for the query pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the query-pipeline instruments.
type Metrics struct {
	QueriesTotal   *prometheus.CounterVec
	ChannelLatency *prometheus.HistogramVec
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
}

// New creates and registers all query metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		QueriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "creditline_queries_total",
			Help: "Channel consultations by channel and resulting state",
		}, []string{"channel", "state"}),
		ChannelLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "creditline_channel_latency_seconds",
			Help:    "Latency of a single channel consultation",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"channel"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "creditline_result_cache_hits_total",
			Help: "Queries answered from the result cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "creditline_result_cache_misses_total",
			Help: "Queries that fell through to the channels",
		}),
	}
}

// ObserveConsult records one channel consultation.
func (m *Metrics) ObserveConsult(channel, state string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(channel, state).Inc()
	m.ChannelLatency.WithLabelValues(channel).Observe(elapsed.Seconds())
}
