package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest("orders.store", http.StatusCreated, 12*time.Millisecond)
	m.ObserveRequest("orders.store", http.StatusCreated, 3*time.Millisecond)
	m.OrderPlaced()
	m.OrderFailed("insufficient_stock")
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("orders.store", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersPlaced))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrderFailures.WithLabelValues("insufficient_stock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogCache.WithLabelValues(CacheHit)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CatalogCache.WithLabelValues(CacheMiss)))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("x", 200, time.Millisecond)
		m.OrderPlaced()
		m.OrderFailed("error")
		m.CacheLookup(true)
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.OrderPlaced()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "storefront_orders_placed_total 1")
}
