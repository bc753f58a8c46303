package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/relaydesk/relaybot/internal/application/usecase"
	"github.com/relaydesk/relaybot/internal/infrastructure/monitoring"
)

type stubStats struct {
	err error
}

func (s *stubStats) Summary(context.Context) (*usecase.StatsSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &usecase.StatsSummary{TotalUsers: 3, DisplayUsers: 1203, TotalMessages: 9, LastUpdated: "2026-03-01T09:30:00.000000"}, nil
}

func (s *stubStats) Users(context.Context) ([]usecase.UserView, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []usecase.UserView{{ID: 5, DisplayName: "Sara", Username: "No username", JoinDate: "2026-03-01T09:30:00.000000"}}, nil
}

func (s *stubStats) RecentActivity(context.Context) ([]usecase.ActivityView, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []usecase.ActivityView{}, nil
}

func newTestServer(t *testing.T, stats *stubStats) (http.Handler, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics, err := monitoring.NewHTTPMetrics(reg)
	require.NoError(t, err)
	srv := NewServer(Config{Mode: "test"}, stats, metrics, reg, zap.NewNop())
	return srv.Handler(), reg
}

func get(h http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestStatsEndpoint(t *testing.T) {
	h, _ := newTestServer(t, &stubStats{})

	w := get(h, "/api/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 3, body["total_users"])
	assert.EqualValues(t, 1203, body["display_users"])
	assert.Equal(t, "2026-03-01T09:30:00.000000", body["last_updated"])
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestUsersEndpoint(t *testing.T) {
	h, _ := newTestServer(t, &stubStats{})

	w := get(h, "/api/users")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`[{"id":"5","display_name":"Sara","username":"No username","join_date":"2026-03-01T09:30:00.000000","is_banned":false}]`,
		w.Body.String())
}

func TestRecentActivityEmpty(t *testing.T) {
	h, _ := newTestServer(t, &stubStats{})
	w := get(h, "/api/recent-activity")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestAggregationErrorReturns500(t *testing.T) {
	h, _ := newTestServer(t, &stubStats{err: errors.New("disk gone")})

	for _, path := range []string{"/api/stats", "/api/users", "/api/recent-activity"} {
		w := get(h, path)
		assert.Equal(t, http.StatusInternalServerError, w.Code, path)
		assert.JSONEq(t, `{"error":"disk gone"}`, w.Body.String(), path)
	}
}

func TestHealthAndDashboard(t *testing.T) {
	h, _ := newTestServer(t, &stubStats{})

	w := get(h, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.NotEmpty(t, health["timestamp"])

	w = get(h, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Relay bot dashboard")
	assert.Contains(t, w.Body.String(), "/api/recent-activity")
}

func TestCORSAndRequestID(t *testing.T) {
	h, _ := newTestServer(t, &stubStats{})

	w := get(h, "/api/stats", "Origin", "https://example.org", requestIDHeader, "abc-123")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestServer(t, &stubStats{})

	get(h, "/api/stats")
	w := get(h, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `relaybot_http_requests_total{method="GET",path="/api/stats",status="200"} 1`)
}

func TestGzipWhenAccepted(t *testing.T) {
	h, _ := newTestServer(t, &stubStats{})
	w := get(h, "/api/stats", "Accept-Encoding", "gzip")
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
}

func TestHandlerPanicReturnsJSON500(t *testing.T) {
	h, _ := newTestServer(t, &stubStats{})
	h.(*gin.Engine).GET("/boom", func(c *gin.Context) { panic("handler exploded") })

	w := get(h, "/boom", requestIDHeader, "rid-1")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
	assert.Equal(t, "rid-1", w.Header().Get(requestIDHeader))

	// the server keeps serving after a panic
	assert.Equal(t, http.StatusOK, get(h, "/health").Code)
}

func TestStartServesAndStops(t *testing.T) {
	srv := NewServer(Config{Host: "127.0.0.1", Port: 0, Mode: "test"}, &stubStats{}, nil, nil, zap.NewNop())
	assert.Empty(t, srv.Addr())

	require.NoError(t, srv.Start(context.Background()))
	require.NotEmpty(t, srv.Addr())

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))

	_, err = http.Get("http://" + srv.Addr() + "/health")
	assert.Error(t, err, "listener should be closed after Stop")
}
