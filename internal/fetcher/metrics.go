package fetcher

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the fetch loop.
var (
	fetchOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ao3fetch_outcomes_total",
		Help: "Total number of classified response outcomes",
	}, []string{"outcome"})

	fetchRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ao3fetch_transient_retries_total",
		Help: "Total number of transient-status retries by HTTP status",
	}, []string{"status"})

	fetchRedirectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ao3fetch_redirects_followed_total",
		Help: "Total number of redirects replayed by the fetch loop",
	})

	fetchRetryDelaySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ao3fetch_retry_delay_seconds",
		Help:    "Delay applied before retrying a transient status",
		Buckets: []float64{1, 5, 10, 20, 30, 60, 120},
	})
)

const (
	outcomeSuccess   = "success"
	outcomeRedirect  = "redirect"
	outcomeTransient = "transient"
	outcomeFatal     = "fatal"
)

func statusLabel(status int) string {
	return strconv.Itoa(status)
}
