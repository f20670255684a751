// Package httpapi wires the diagnostics HTTP transport (Gin) to the
// tenant layer: health and readiness probes, setup diagnostics, tenant
// listing, and Prometheus metrics. The core store itself is a library;
// this surface is operational only.
package httpapi

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/docex/go-docstore-backend/internal/config"
	"github.com/docex/go-docstore-backend/internal/http/handlers"
	"github.com/docex/go-docstore-backend/internal/http/middleware"
	"github.com/docex/go-docstore-backend/internal/tenant"
)

// RegisterRoutes attaches middleware and the diagnostics endpoints to the
// given Gin engine.
//
// Middleware order:
//  1. RequestID: generate/propagate correlation id
//  2. Logger: structured access logs
//  3. Recovery: panics to JSON 500
//  4. Gzip compression
func RegisterRoutes(r *gin.Engine, mgr *tenant.Manager, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	h := handlers.NewSetupHandler(mgr)

	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	diag := r.Group("/diagnostics")
	{
		diag.GET("/setup-errors", h.SetupErrors)
		diag.GET("/tenants", h.ListTenants)
		diag.GET("/tenants/:id/stats", h.TenantStats)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"request_id": middleware.GetRequestID(c),
			"code":       "not_found",
			"message":    "route not found",
		})
	})
}
