package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mizanhq/mizan-backend/internal/http/response"
	"github.com/mizanhq/mizan-backend/internal/observability"
	"github.com/mizanhq/mizan-backend/internal/platform/ctxutil"
	"github.com/mizanhq/mizan-backend/internal/platform/logger"
	"github.com/mizanhq/mizan-backend/internal/services"
)

type fakeAuth struct {
	services.AuthService
	tokens map[string]*ctxutil.RequestData
}

func (f *fakeAuth) SetContextFromToken(ctx context.Context, token string) (context.Context, error) {
	rd, ok := f.tokens[token]
	if !ok {
		return ctx, errors.New("bad token")
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func scrape(t *testing.T, m *observability.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	require.NoError(t, err)
	return log
}

func newAuthRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	am := NewAuthMiddleware(testLogger(t), &fakeAuth{tokens: map[string]*ctxutil.RequestData{
		"admin":  {UserID: uuid.New(), Role: "admin"},
		"member": {UserID: uuid.New(), Role: "member"},
		"nobody": {},
	}}, nil)
	r := gin.New()
	r.GET("/read", am.RequireAuth(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.POST("/write", am.RequireAuth(), am.RequireRole("admin"), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	r := newAuthRouter(t)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/read", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/read", "forged").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/read", "nobody").Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/read", "member").Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/read?token=member", "").Code)
}

func TestRequireRole(t *testing.T) {
	r := newAuthRouter(t)

	rec := do(r, http.MethodPost, "/write", "member")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"forbidden"`)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodPost, "/write", "admin").Code)
}

func TestIPRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.New(true)
	l := NewIPRateLimiter(2, 2, m)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	r := gin.New()
	r.POST("/login", l.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })
	login := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, login("10.0.0.1"))
	assert.Equal(t, http.StatusOK, login("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, login("10.0.0.1"))
	assert.Equal(t, http.StatusOK, login("10.0.0.2"), "buckets are per ip")

	now = now.Add(30 * time.Second)
	assert.Equal(t, http.StatusOK, login("10.0.0.1"), "one token refilled")

	now = now.Add(time.Hour)
	login("10.0.0.3")
	assert.Len(t, l.visitors, 1, "idle buckets swept")
	assert.Contains(t, scrape(t, m), `mizan_security_events_total{event="rate_limited"} 1`)
}

func TestIPRateLimiterDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", NewIPRateLimiter(0, 0, nil).Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/", "").Code)
	}
}

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	var seen *ctxutil.TraceData
	r.GET("/", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerRequestID, "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.NotNil(t, seen)
	assert.Equal(t, "req-123", seen.RequestID)
	assert.Equal(t, "req-123", rec.Header().Get(headerRequestID))
	assert.NotEmpty(t, rec.Header().Get(headerTraceID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerRequestID, strings.Repeat("x", maxClientIDLen+1))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	_, err := uuid.Parse(rec.Header().Get(headerRequestID))
	assert.NoError(t, err, "oversized request id replaced")
}

func TestMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.New(true)
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/api/frameworks/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/healthcheck", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, http.MethodGet, "/api/frameworks/abc", "")
	do(r, http.MethodGet, "/api/frameworks/def", "")
	do(r, http.MethodGet, "/healthcheck", "")
	do(r, http.MethodGet, "/nowhere", "")

	body := scrape(t, m)
	assert.Contains(t, body, `mizan_api_requests_total{method="GET",route="/api/frameworks/:id",status="200"} 2`)
	assert.Contains(t, body, `mizan_api_requests_total{method="GET",route="unknown",status="404"} 1`)
	assert.NotContains(t, body, `route="/healthcheck"`)

	n, err := testutil.GatherAndCount(m.Registry(), "mizan_api_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestErrorEnvelopeCarriesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext(), RequestLogger(testLogger(t)))
	r.GET("/", func(c *gin.Context) {
		response.RespondError(c, http.StatusNotFound, "not_found", errors.New("framework not found"))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerRequestID, "req-404")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":{"message":"framework not found","code":"not_found","request_id":"req-404"}}`, rec.Body.String())
}
