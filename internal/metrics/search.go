package metrics

import "github.com/prometheus/client_golang/prometheus"

// Knowledge-base search and tool dispatch metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "archpilot",
			Name:      "search_requests_total",
			Help:      "Total number of knowledge base searches",
		},
		[]string{"status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "archpilot",
			Name:      "search_duration_seconds",
			Help:      "End-to-end search duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"stage"}, // "embed" / "score" / "total"
	)

	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "archpilot",
			Name:      "search_results",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20},
		},
	)

	IndexChunks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "archpilot",
			Name:      "index_chunks",
			Help:      "Number of chunks in the loaded index artifact",
		},
	)

	ToolInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "archpilot",
			Name:      "tool_invocations_total",
			Help:      "Total tool invocations by name and status",
		},
		[]string{"tool", "status"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search and tool metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchResults)
	prometheus.MustRegister(IndexChunks)
	prometheus.MustRegister(ToolInvocationsTotal)
	searchMetricsRegistered = true
}
