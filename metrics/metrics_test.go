package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/civicpulse/mayoralert/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()

	m, err := metrics.New(reg)
	require.NoError(t, err)

	m.AlertCreated()
	m.AlertCreated()
	m.AlertDeleted()

	expected := `
# HELP mayoralert_alerts_created_total Number of mayor alerts created.
# TYPE mayoralert_alerts_created_total counter
mayoralert_alerts_created_total 2
# HELP mayoralert_alerts_deleted_total Number of mayor alerts deleted.
# TYPE mayoralert_alerts_deleted_total counter
mayoralert_alerts_deleted_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"mayoralert_alerts_created_total", "mayoralert_alerts_deleted_total"))
}

func TestNew_DuplicateRegistrationFails(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()

	_, err := metrics.New(reg)
	require.NoError(t, err)

	_, err = metrics.New(reg)
	assert.Error(t, err)
}

func TestNilMetrics(t *testing.T) {
	t.Parallel()

	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.AlertCreated()
		m.AlertDeleted()
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/mayor-alert/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for range 3 {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/mayor-alert/abc123", nil))
	}

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	expected := `
# HELP mayoralert_http_requests_total Number of HTTP requests by method, route and status code.
# TYPE mayoralert_http_requests_total counter
mayoralert_http_requests_total{method="GET",route="",status="404"} 1
mayoralert_http_requests_total{method="GET",route="/api/mayor-alert/:id",status="404"} 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "mayoralert_http_requests_total"))
}
