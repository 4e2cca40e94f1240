// Package api contains the HTTP handlers for the approval workflow service
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// TenantContextKey is the context key under which the tenant id travels.
// Authentication happens outside this service; the gateway forwards the
// resolved tenant in the X-Tenant-ID header.
const TenantContextKey = "tenant_id"

// TenantHeader is the request header carrying the tenant id.
const TenantHeader = "X-Tenant-ID"

// HealthStatus represents the health check response
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
}

// HandleHealth returns basic health status (always returns 200 OK)
func HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Service:   "approval-workflow",
		Version:   "1.0.0",
	})
}

// TenantMiddleware copies the forwarded tenant id into the request context
// and rejects requests that arrive without one.
func TenantMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tenantID := c.Request().Header.Get(TenantHeader)
		if tenantID == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Tenant ID not found in request")
		}
		c.Set(TenantContextKey, tenantID)
		return next(c)
	}
}

func tenantID(c echo.Context) (string, error) {
	id, ok := c.Get(TenantContextKey).(string)
	if !ok || id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Tenant ID not found in context")
	}
	return id, nil
}
