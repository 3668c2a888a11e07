package common

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHealth(t *testing.T, handler gin.HandlerFunc) (int, HealthStatus) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/healthz", nil)

	handler(c)

	var body HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestLiveness_AlwaysOK(t *testing.T) {
	code, body := serveHealth(t, Liveness("claims-decision-engine", "1.0.0"))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alive", body.Status)
	assert.Equal(t, "claims-decision-engine", body.Service)
	assert.Empty(t, body.Checks)
}

func TestReadiness_AllDependenciesHealthy(t *testing.T) {
	checks := map[string]DependencyCheck{
		"postgres": func(ctx context.Context) error { return nil },
	}

	code, body := serveHealth(t, Readiness("claims-decision-engine", "1.0.0", time.Second, checks))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body.Status)
	assert.Equal(t, "ok", body.Checks["postgres"])
}

func TestReadiness_FailingDependencyReports503(t *testing.T) {
	checks := map[string]DependencyCheck{
		"postgres": func(ctx context.Context) error { return errors.New("connection refused") },
	}

	code, body := serveHealth(t, Readiness("claims-decision-engine", "1.0.0", time.Second, checks))

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", body.Status)
	assert.Contains(t, body.Checks["postgres"], "connection refused")
}

func TestReadiness_ChecksRunUnderDeadline(t *testing.T) {
	var sawDeadline bool
	checks := map[string]DependencyCheck{
		"postgres": func(ctx context.Context) error {
			_, sawDeadline = ctx.Deadline()
			return nil
		},
	}

	_, _ = serveHealth(t, Readiness("claims-decision-engine", "1.0.0", time.Second, checks))

	assert.True(t, sawDeadline)
}
