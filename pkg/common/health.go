package common

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// DependencyCheck probes one backing dependency of the engine
type DependencyCheck func(ctx context.Context) error

// HealthStatus is the payload returned by the health endpoints
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	CheckedAt time.Time         `json:"checked_at"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Liveness reports process liveness only. It never touches dependencies,
// so a stalled database cannot turn into a restart loop.
func Liveness(serviceName, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthStatus{
			Status:    "alive",
			Service:   serviceName,
			Version:   version,
			CheckedAt: time.Now().UTC(),
		})
	}
}

// Readiness probes every registered dependency under a shared timeout and
// reports 503 when any probe fails. Optional dependencies (the rule cache,
// the audit sink) are not registered here: the engine runs degraded
// without them and readiness must not flap on their account.
func Readiness(serviceName, version string, timeout time.Duration, checks map[string]DependencyCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		status := "ready"
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = "unavailable: " + err.Error()
				status = "degraded"
			} else {
				results[name] = "ok"
			}
		}

		code := http.StatusOK
		if status == "degraded" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, HealthStatus{
			Status:    status,
			Service:   serviceName,
			Version:   version,
			CheckedAt: time.Now().UTC(),
			Checks:    results,
		})
	}
}
