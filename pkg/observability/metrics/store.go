package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Document store operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"collection", "operation", "outcome"},
	)

	ordersPlacedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "orders_placed_total",
			Help:      "Total number of orders successfully placed",
		},
	)

	authFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "auth_failures_total",
			Help:      "Requests rejected by authentication or authorization",
		},
		[]string{"reason"},
	)
)

// Store operation outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeNotFound  = "not_found"
	OutcomeDuplicate = "duplicate"
	OutcomeError     = "error"
)

// ObserveStoreOperation records the duration of one document store call.
func ObserveStoreOperation(collection, operation, outcome string, duration time.Duration) {
	storeOperationDuration.WithLabelValues(collection, operation, outcome).Observe(duration.Seconds())
}

// IncOrdersPlaced counts a persisted order.
func IncOrdersPlaced() {
	ordersPlacedTotal.Inc()
}

// IncAuthFailure counts a rejected request. reason is "unauthenticated" or "forbidden".
func IncAuthFailure(reason string) {
	authFailuresTotal.WithLabelValues(reason).Inc()
}
