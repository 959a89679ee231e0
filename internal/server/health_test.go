package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teemow/drivepath/internal/drive"
	"github.com/teemow/drivepath/internal/drive/drivetest"
)

func newTestContext(t *testing.T, tokens *drive.TokenManager) *ServerContext {
	t.Helper()
	sc, err := NewServerContext(context.Background(), Config{
		Store:  drivetest.New(),
		Tokens: tokens,
		Yolo:   true,
	})
	require.NoError(t, err)
	return sc
}

func get(t *testing.T, h http.Handler, path string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker(nil)
	h.SetReady(false)

	code, body := get(t, h.LivenessHandler(), "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestHealthChecker_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(t *testing.T) *HealthChecker
		wantCode   int
		wantChecks map[string]any
	}{
		{
			name:     "ready without context",
			setup:    func(*testing.T) *HealthChecker { return NewHealthChecker(nil) },
			wantCode: http.StatusOK,
			wantChecks: map[string]any{
				"ready": "ok", "shutdown": "ok", "credential": "ok",
			},
		},
		{
			name: "marked not ready",
			setup: func(t *testing.T) *HealthChecker {
				h := NewHealthChecker(newTestContext(t, nil))
				h.SetReady(false)
				return h
			},
			wantCode: http.StatusServiceUnavailable,
			wantChecks: map[string]any{
				"ready": "not ready", "shutdown": "ok", "credential": "ok",
			},
		},
		{
			name: "shutting down",
			setup: func(t *testing.T) *HealthChecker {
				sc := newTestContext(t, nil)
				require.NoError(t, sc.Shutdown())
				return NewHealthChecker(sc)
			},
			wantCode: http.StatusServiceUnavailable,
			wantChecks: map[string]any{
				"ready": "ok", "shutdown": "shutting down", "credential": "ok",
			},
		},
		{
			name: "stale credential is still ready",
			setup: func(t *testing.T) *HealthChecker {
				tokens := drive.NewTokenManager(drive.TokenManagerConfig{
					Token: &oauth2.Token{AccessToken: "a"},
				})
				return NewHealthChecker(newTestContext(t, tokens))
			},
			wantCode: http.StatusOK,
			wantChecks: map[string]any{
				"ready": "ok", "shutdown": "ok", "credential": "ok",
			},
		},
		{
			name: "unrefreshable credential",
			setup: func(t *testing.T) *HealthChecker {
				tokens := drive.NewTokenManager(drive.TokenManagerConfig{
					Token: &oauth2.Token{AccessToken: "a"},
				})
				require.Error(t, tokens.EnsureFresh(context.Background()))
				return NewHealthChecker(newTestContext(t, tokens))
			},
			wantCode: http.StatusServiceUnavailable,
			wantChecks: map[string]any{
				"ready": "ok", "shutdown": "ok", "credential": "unrefreshable",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := get(t, tt.setup(t).ReadinessHandler(), "/readyz")
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantChecks, body["checks"])
		})
	}
}

func TestHealthChecker_Detailed(t *testing.T) {
	tokens := drive.NewTokenManager(drive.TokenManagerConfig{
		Token: &oauth2.Token{AccessToken: "a"},
	})
	sc := newTestContext(t, tokens)
	h := NewHealthChecker(sc)

	mux := http.NewServeMux()
	h.RegisterHealthEndpoints(mux)

	code, body := get(t, mux, "/healthz/detailed")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "stale", body["credential"])
	assert.Equal(t, true, body["yolo"])
	assert.NotEmpty(t, body["uptime"])

	require.NoError(t, sc.Shutdown())
	code, body = get(t, mux, "/healthz/detailed")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "shutting down", body["status"])
}

func TestServerContext(t *testing.T) {
	_, err := NewServerContext(context.Background(), Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "drive store is required")

	sc := newTestContext(t, nil)
	assert.NotNil(t, sc.Adapter())
	assert.NotNil(t, sc.Executor())
	assert.NotNil(t, sc.Logger())
	assert.Nil(t, sc.Tokens())
	assert.True(t, sc.Yolo())
	assert.False(t, sc.IsShutdown())

	require.NoError(t, sc.Shutdown())
	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.Error(t, sc.Context().Err())
}
