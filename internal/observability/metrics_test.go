package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEmitResultCountsSentAndFailed(t *testing.T) {
	baseSent := testutil.ToFloat64(wsEmitsTotal.WithLabelValues("NEW_ORDER", "sent"))
	baseFailed := testutil.ToFloat64(wsEmitsTotal.WithLabelValues("NEW_ORDER", "failed"))

	AddEmitResult("NEW_ORDER", 3, 1)
	AddEmitResult("NEW_ORDER", 0, 0)

	assert.Equal(t, baseSent+3, testutil.ToFloat64(wsEmitsTotal.WithLabelValues("NEW_ORDER", "sent")))
	assert.Equal(t, baseFailed+1, testutil.ToFloat64(wsEmitsTotal.WithLabelValues("NEW_ORDER", "failed")))
}

func TestObserveAgingTickResultLabel(t *testing.T) {
	baseOK := testutil.ToFloat64(agingTicksTotal.WithLabelValues("ok"))
	baseErr := testutil.ToFloat64(agingTicksTotal.WithLabelValues("error"))

	ObserveAgingTick(time.Millisecond, nil)
	ObserveAgingTick(time.Millisecond, errors.New("boom"))

	assert.Equal(t, baseOK+1, testutil.ToFloat64(agingTicksTotal.WithLabelValues("ok")))
	assert.Equal(t, baseErr+1, testutil.ToFloat64(agingTicksTotal.WithLabelValues("error")))
}

func TestWSActiveGauge(t *testing.T) {
	base := testutil.ToFloat64(wsActiveConnections.WithLabelValues("customer"))
	IncWSActive("customer")
	IncWSActive("customer")
	DecWSActive("customer")
	assert.Equal(t, base+1, testutil.ToFloat64(wsActiveConnections.WithLabelValues("customer")))
}

func TestHTTPMetricsMiddlewareUsesRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(HTTPMetricsMiddleware())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	base := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/items/:id", "200"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, base+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/items/:id", "200")))
}

func TestSplitFullMethod(t *testing.T) {
	service, method := splitFullMethod("/grpc.health.v1.Health/Check")
	assert.Equal(t, "grpc.health.v1.Health", service)
	assert.Equal(t, "Check", method)

	service, method = splitFullMethod("bad")
	assert.Equal(t, "unknown", service)
	assert.Equal(t, "unknown", method)
}
