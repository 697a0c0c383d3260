package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsolatedRegistries(t *testing.T) {
	a := New()
	b := New()

	a.CacheHitsTotal.WithLabelValues("index").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.CacheHitsTotal.WithLabelValues("index")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CacheHitsTotal.WithLabelValues("index")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.QueriesTotal.WithLabelValues("boolean", "ok").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `queries_total{kind="boolean",result="ok"} 1`)
}
