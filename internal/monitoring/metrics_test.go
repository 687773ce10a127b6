package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackStockOperation(t *testing.T) {
	okBefore := testutil.ToFloat64(stockOperations.WithLabelValues(OpDelete, "ok"))
	errBefore := testutil.ToFloat64(stockOperations.WithLabelValues(OpDelete, "error"))

	TrackStockOperation(OpDelete, time.Now(), nil)
	TrackStockOperation(OpDelete, time.Now(), errors.New("boom"))
	TrackStockOperation(OpDelete, time.Now(), nil)

	assert.Equal(t, okBefore+2, testutil.ToFloat64(stockOperations.WithLabelValues(OpDelete, "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(stockOperations.WithLabelValues(OpDelete, "error")))
}

func TestTrackStocksAffectedIgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(stocksAffected.WithLabelValues(OpUpsert))
	TrackStocksAffected(OpUpsert, 0)
	TrackStocksAffected(OpUpsert, 3)
	assert.Equal(t, before+3, testutil.ToFloat64(stocksAffected.WithLabelValues(OpUpsert)))
}

func TestTrackCacheInvalidation(t *testing.T) {
	before := testutil.ToFloat64(cacheInvalidations)
	TrackCacheInvalidation(-1)
	TrackCacheInvalidation(4)
	assert.Equal(t, before+4, testutil.ToFloat64(cacheInvalidations))
}
