package router

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"order-realtime/internal/auth"
	"order-realtime/internal/config"
	"order-realtime/internal/events"
	"order-realtime/internal/middleware"
	"order-realtime/internal/mocks"
	"order-realtime/internal/models"
	"order-realtime/internal/ws"
)

func testConfig() config.Config {
	return config.Config{
		ServiceName:    "order-realtime",
		GinMode:        gin.TestMode,
		AllowedOrigins: []string{"http://localhost:3000"},
		WS:             config.WSConfig{Path: "/orders"},
	}
}

func newTestRouter(t *testing.T, cfg config.Config, verifier *mocks.TokenVerifierMock, emitter *mocks.EmitterMock) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gw := ws.NewGateway(ws.NewHub(), nil, ws.Options{AllowedOrigins: cfg.AllowedOrigins})
	return New(cfg, Deps{
		Gateway:    gw,
		Verifier:   verifier,
		Dispatcher: events.NewDispatcher(emitter),
	})
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t, testConfig(), new(mocks.TokenVerifierMock), new(mocks.EmitterMock))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","connections":0}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "orders_http_requests_total")
}

func TestAdminRequiresToken(t *testing.T) {
	verifier := new(mocks.TokenVerifierMock)
	verifier.On("Verify", mock.Anything, "tok").Return(auth.Claims{TenantID: "t1", Subject: "u1"}, nil)
	r := newTestRouter(t, testConfig(), verifier, new(mocks.EmitterMock))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/tenants/t1/connections", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin/tenants/t1/connections", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tenantId":"t1","connections":0,"staff":0}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/admin/tenants/t2/disconnect", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestInternalEventsRoute(t *testing.T) {
	body := `{"type":"order.created","tenantId":"t1","order":{"id":"o1"}}`

	disabled := newTestRouter(t, testConfig(), new(mocks.TokenVerifierMock), new(mocks.EmitterMock))
	rec := httptest.NewRecorder()
	disabled.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/internal/events", bytes.NewBufferString(body)))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	cfg := testConfig()
	cfg.InternalToken = "s3cret"
	emitter := new(mocks.EmitterMock)
	emitter.On("EmitNewOrder", "t1", mock.MatchedBy(func(o models.Order) bool { return o.ID == "o1" })).Return(nil).Once()
	enabled := newTestRouter(t, cfg, new(mocks.TokenVerifierMock), emitter)

	req := httptest.NewRequest(http.MethodPost, "/internal/events", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	enabled.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/internal/events", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.InternalTokenHeader, "s3cret")
	rec = httptest.NewRecorder()
	enabled.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	emitter.AssertExpectations(t)
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	r := newTestRouter(t, testConfig(), new(mocks.TokenVerifierMock), new(mocks.EmitterMock))

	req := httptest.NewRequest(http.MethodOptions, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
