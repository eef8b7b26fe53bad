package revocation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	isRevokedDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tradepost_is_token_revoked_duration_ms",
		Help:    "Latency of token revocation checks in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	})

	tokensRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradepost_tokens_revoked_total",
		Help: "Total number of tokens added to the revocation list",
	})

	entriesPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradepost_revocation_entries_purged_total",
		Help: "Total number of expired revocation entries removed by purges",
	})
)
