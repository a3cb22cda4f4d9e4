package logger_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"civicledger/backend/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONWithServiceField(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithOutput("civicledger-api", "info", &buf)

	log.WithField("complaint_id", "COMPLAINT1").Info("proof stored")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "civicledger-api", line["service"])
	assert.Equal(t, "COMPLAINT1", line["complaint_id"])
	assert.Equal(t, "proof stored", line["message"])
	assert.Equal(t, "info", line["level"])
}

func TestNew_LevelFallback(t *testing.T) {
	assert.Equal(t, logrus.InfoLevel, logger.New("x", "verbose").Logger.GetLevel())
	assert.Equal(t, logrus.DebugLevel, logger.New("x", "debug").Logger.GetLevel())
	assert.Equal(t, logrus.ErrorLevel, logger.New("x", "error").Logger.GetLevel())
}

func TestGinMiddleware_SetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(logger.GinMiddleware(logger.Discard()))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(logger.RequestIDHeader, "req-42")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "req-42", w.Header().Get(logger.RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get(logger.RequestIDHeader))
}
