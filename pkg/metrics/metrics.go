package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Generation metrics
	GenerationsTotal    *prometheus.CounterVec
	GenerationFallbacks prometheus.Counter
	GenerationLatency   prometheus.Histogram
	GenerationTokens    *prometheus.CounterVec
	GenerationCostUSD   prometheus.Counter

	// Lifecycle metrics
	TransitionsTotal *prometheus.CounterVec

	// Campaign metrics
	CampaignExecutions *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		GenerationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Total number of AI generation attempts",
		}, []string{"occasion", "status"}),
		GenerationFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_fallbacks_total",
			Help:      "Total number of generations that used the fallback template",
		}),
		GenerationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Time spent on external generation calls",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		GenerationTokens: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_tokens_total",
			Help:      "Total tokens consumed by generation calls",
		}, []string{"kind"}),
		GenerationCostUSD: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_cost_usd_total",
			Help:      "Estimated cumulative generation cost in USD",
		}),
		TransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "message_transitions_total",
			Help:      "Total number of message lifecycle transitions",
		}, []string{"action"}),
		CampaignExecutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "campaign_executions_total",
			Help:      "Total number of campaign execution requests",
		}, []string{"test_mode"}),
	}
}
