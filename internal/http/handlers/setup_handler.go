// Package handlers provides the read-only diagnostics endpoints: health,
// readiness backed by the bootstrap manager's setup validation, and a
// tenant listing for operators. No document or basket mutation is exposed
// over HTTP; callers use the service layer directly.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docex/go-docstore-backend/internal/http/middleware"
	"github.com/docex/go-docstore-backend/internal/repo"
	"github.com/docex/go-docstore-backend/internal/tenant"
)

// SetupHandler serves setup and tenancy diagnostics.
type SetupHandler struct {
	Mgr *tenant.Manager
}

// NewSetupHandler wires the bootstrap manager into the handler.
func NewSetupHandler(mgr *tenant.Manager) *SetupHandler {
	return &SetupHandler{Mgr: mgr}
}

// Healthz reports process liveness. It never touches the database.
func (h *SetupHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz reports whether the store is initialized and properly set up.
// A not-ready store answers 503 with the setup error list so operators
// can diagnose without log access.
func (h *SetupHandler) Readyz(c *gin.Context) {
	ctx := c.Request.Context()
	if h.Mgr.IsProperlySetup(ctx) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"initialized": true,
		})
		return
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"status":       "not_ready",
		"initialized":  h.Mgr.IsInitialized(ctx),
		"setup_errors": h.Mgr.SetupErrors(ctx),
	})
}

// SetupErrors returns the full setup diagnostics list, 200 even when
// errors exist (Readyz carries the status semantics).
func (h *SetupHandler) SetupErrors(c *gin.Context) {
	errs := h.Mgr.SetupErrors(c.Request.Context())
	if errs == nil {
		errs = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"setup_errors": errs})
}

// TenantStats reports aggregate numbers for one tenant: basket count,
// most recent basket update, and per-basket document counts by status.
func (h *SetupHandler) TenantStats(c *gin.Context) {
	ctx := c.Request.Context()
	db, err := h.Mgr.OpenTenant(ctx, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"request_id": middleware.GetRequestID(c),
			"code":       "tenant_not_found",
			"message":    err.Error(),
		})
		return
	}

	count, lastUpdated, err := repo.BasketStats(ctx, db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"request_id": middleware.GetRequestID(c),
			"code":       "internal_error",
			"message":    "failed to aggregate basket stats",
		})
		return
	}

	baskets, err := repo.ListBaskets(ctx, db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"request_id": middleware.GetRequestID(c),
			"code":       "internal_error",
			"message":    "failed to list baskets",
		})
		return
	}
	documents := make(map[string]map[string]int64, len(baskets))
	for _, b := range baskets {
		stats, err := repo.DocumentStats(ctx, db, b.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"request_id": middleware.GetRequestID(c),
				"code":       "internal_error",
				"message":    "failed to aggregate document stats",
			})
			return
		}
		documents[b.ID] = stats
	}

	c.JSON(http.StatusOK, gin.H{
		"tenant_id":           c.Param("id"),
		"basket_count":        count,
		"last_basket_updated": lastUpdated,
		"documents_by_basket": documents,
	})
}

// ListTenants returns the registry contents for operators.
func (h *SetupHandler) ListTenants(c *gin.Context) {
	ctx := c.Request.Context()
	reg, err := h.Mgr.Registry(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"request_id": middleware.GetRequestID(c),
			"code":       "not_initialized",
			"message":    err.Error(),
		})
		return
	}
	tenants, err := reg.List(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"request_id": middleware.GetRequestID(c),
			"code":       "internal_error",
			"message":    "failed to list tenants",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenants": tenants})
}
