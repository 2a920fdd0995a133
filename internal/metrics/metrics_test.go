package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMiddleware_RecordsRoute(t *testing.T) {
	m := New()

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/events/:id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/abc", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/events/:id", "404")))
}

func TestObserveHelpers(t *testing.T) {
	m := New()

	m.ObserveBroadcast("eventCreated")
	m.ObserveBroadcast("eventCreated")
	m.SetStreamClients(3)
	m.ObserveMediaOperation("upload", nil)
	m.ObserveMediaOperation("delete", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.broadcasts.WithLabelValues("eventCreated")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.streamClients))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mediaOperations.WithLabelValues("upload", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mediaOperations.WithLabelValues("delete", "error")))
}

func TestNilMetrics_IsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveBroadcast("eventDeleted")
		m.SetStreamClients(1)
		m.ObserveMediaOperation("upload", nil)
	})

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_Exposition(t *testing.T) {
	m := New()
	m.ObserveBroadcast("eventDeleted")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `event_board_broadcasts_total{type="eventDeleted"} 1`)
}
