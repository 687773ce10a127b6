package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stockOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_operations_total",
			Help: "Total stock operations by outcome",
		},
		[]string{"operation", "status"},
	)

	stockOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stock_operation_duration_seconds",
			Help:    "Duration of stock operations",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation"},
	)

	stocksAffected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stocks_affected_total",
			Help: "Stocks deleted or saved",
		},
		[]string{"operation"},
	)

	cacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_cache_keys_invalidated_total",
			Help: "Cached stock responses dropped after a write",
		},
	)
)

// Operation names used as label values.
const (
	OpSearch          = "search"
	OpDelete          = "delete"
	OpUpsert          = "upsert"
	OpActivationCodes = "activation_codes"
	OpPriceTable      = "price_table"
)

// TrackStockOperation records one call of op that started at start.
func TrackStockOperation(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	stockOperations.WithLabelValues(op, status).Inc()
	stockOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func TrackStocksAffected(op string, n int) {
	if n > 0 {
		stocksAffected.WithLabelValues(op).Add(float64(n))
	}
}

func TrackCacheInvalidation(keys int64) {
	if keys > 0 {
		cacheInvalidations.Add(float64(keys))
	}
}
