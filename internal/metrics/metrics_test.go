package metrics_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"civicledger/backend/internal/metrics"
	"civicledger/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveResolution_CountsOutcomeAndRule(t *testing.T) {
	m := metrics.New()

	m.ObserveResolution("fraud", "low_score")
	m.ObserveResolution("fraud", "geo_fence")
	m.ObserveResolution("resolved", "")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("fraud")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("resolved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FraudFlags.WithLabelValues("low_score")))
}

func TestNilMetrics_IsSafe(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.ObserveTransition("PENDING", "RESOLVED")
		m.ObserveResolution("resolved", "")
		m.ObserveVisionFailure()
	})
}

func TestGinMiddleware_ExposedOnHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.New()
	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), `civicledger_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestOnTransition_CountsEdge(t *testing.T) {
	m := metrics.New()

	m.OnTransition(context.Background(), models.StatusEvent{From: models.StatusResolved, To: models.StatusDeleted})
	m.OnTransition(context.Background(), models.StatusEvent{From: models.StatusResolved, To: models.StatusDeleted})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("RESOLVED", "DELETED")))
}
