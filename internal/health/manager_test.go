package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func staticChecker(name string, status CheckStatus, critical bool) Checker {
	return NewCustomChecker(name, critical, time.Second, func(context.Context) CheckResult {
		return CheckResult{Status: status}
	})
}

func TestManagerOverallHealthy(t *testing.T) {
	m := NewManager(zap.NewNop())
	require.NoError(t, m.RegisterChecker(staticChecker("a", StatusHealthy, true)))
	require.NoError(t, m.RegisterChecker(staticChecker("b", StatusHealthy, false)))

	overall := m.GetOverallHealth(context.Background())

	assert.Equal(t, StatusHealthy, overall.Status)
	assert.True(t, overall.Ready)
	assert.True(t, overall.Live)
}

func TestManagerCriticalFailureRemovesReadiness(t *testing.T) {
	m := NewManager(zap.NewNop())
	require.NoError(t, m.RegisterChecker(staticChecker("a", StatusHealthy, false)))
	require.NoError(t, m.RegisterChecker(staticChecker("b", StatusUnhealthy, true)))

	overall := m.GetOverallHealth(context.Background())

	assert.Equal(t, StatusUnhealthy, overall.Status)
	assert.False(t, overall.Ready)
	assert.True(t, overall.Live)
}

func TestManagerNonCriticalFailureDegrades(t *testing.T) {
	m := NewManager(zap.NewNop())
	require.NoError(t, m.RegisterChecker(staticChecker("a", StatusHealthy, true)))
	require.NoError(t, m.RegisterChecker(staticChecker("b", StatusUnhealthy, false)))

	overall := m.GetOverallHealth(context.Background())

	assert.Equal(t, StatusDegraded, overall.Status)
	assert.True(t, overall.Ready)
	assert.True(t, overall.Degraded)
}

func TestManagerRejectsDuplicateChecker(t *testing.T) {
	m := NewManager(zap.NewNop())
	require.NoError(t, m.RegisterChecker(staticChecker("a", StatusHealthy, true)))
	assert.Error(t, m.RegisterChecker(staticChecker("a", StatusHealthy, true)))
}

func TestCredentialChecker(t *testing.T) {
	ok := NewCredentialChecker("creds", func() error { return nil })
	assert.Equal(t, StatusHealthy, ok.Check(context.Background()).Status)

	missing := NewCredentialChecker("creds", func() error { return errors.New("no key") })
	result := missing.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, result.Status)
	assert.Equal(t, "no key", result.Error)
}

func TestReachabilityChecker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized) // reachable even when auth fails
	}))
	defer srv.Close()

	up := NewReachabilityChecker("llm", srv.URL, false, zap.NewNop())
	result := up.Check(context.Background())
	assert.Equal(t, StatusHealthy, result.Status)
	assert.Equal(t, 401, result.Details["http_status"])

	down := NewReachabilityChecker("llm", "http://127.0.0.1:1", false, zap.NewNop())
	assert.Equal(t, StatusUnhealthy, down.Check(context.Background()).Status)
}

func TestHealthEndpoints(t *testing.T) {
	m := NewManager(zap.NewNop())
	require.NoError(t, m.RegisterChecker(staticChecker("a", StatusHealthy, true)))

	mux := http.NewServeMux()
	NewHTTPHandler(m, zap.NewNop()).RegisterRoutes(mux)

	for _, path := range []string{"/health", "/health/ready", "/health/live", "/health/detailed"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"), path)
	}
}
