package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/docex/go-docstore-backend/internal/domain"
	"github.com/docex/go-docstore-backend/internal/tenant"
)

// ---------- test plumbing ----------

func newTestManager(t *testing.T) *tenant.Manager {
	t.Helper()
	mgr, err := tenant.NewManager(tenant.Options{
		Backend: tenant.BackendSQLite,
		DataDir: t.TempDir(),
		Logger:  zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return mgr
}

func newTestRouter(mgr *tenant.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewSetupHandler(mgr)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/diagnostics/setup-errors", h.SetupErrors)
	r.GET("/diagnostics/tenants", h.ListTenants)
	r.GET("/diagnostics/tenants/:id/stats", h.TenantStats)
	return r
}

func getJSON(t *testing.T, r *gin.Engine, path string) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("GET %s: body not JSON: %v (%q)", path, err, w.Body.String())
	}
	return w.Code, body
}

// ---------- tests ----------

func TestHealthz_AlwaysOK(t *testing.T) {
	r := newTestRouter(newTestManager(t))
	code, body := getJSON(t, r, "/healthz")
	if code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("healthz -> %d %v", code, body)
	}
}

func TestReadyz_NotReadyBeforeInitialize(t *testing.T) {
	r := newTestRouter(newTestManager(t))
	code, body := getJSON(t, r, "/readyz")
	if code != http.StatusServiceUnavailable {
		t.Fatalf("readyz -> %d, want 503", code)
	}
	if body["status"] != "not_ready" || body["initialized"] != false {
		t.Fatalf("unexpected body: %v", body)
	}
	errs, ok := body["setup_errors"].([]any)
	if !ok || len(errs) == 0 {
		t.Fatalf("expected non-empty setup_errors, got %v", body["setup_errors"])
	}
}

func TestReadyz_ReadyAfterInitialize(t *testing.T) {
	mgr := newTestManager(t)
	if err := mgr.Initialize(context.Background(), "test"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	r := newTestRouter(mgr)
	code, body := getJSON(t, r, "/readyz")
	if code != http.StatusOK || body["status"] != "ready" || body["initialized"] != true {
		t.Fatalf("readyz -> %d %v", code, body)
	}
}

func TestSetupErrors_Always200(t *testing.T) {
	mgr := newTestManager(t)
	r := newTestRouter(mgr)

	code, body := getJSON(t, r, "/diagnostics/setup-errors")
	if code != http.StatusOK {
		t.Fatalf("setup-errors -> %d, want 200", code)
	}
	if errs, ok := body["setup_errors"].([]any); !ok || len(errs) == 0 {
		t.Fatalf("expected populated setup_errors, got %v", body["setup_errors"])
	}

	if err := mgr.Initialize(context.Background(), "test"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	code, body = getJSON(t, r, "/diagnostics/setup-errors")
	if code != http.StatusOK {
		t.Fatalf("setup-errors -> %d, want 200", code)
	}
	if errs, ok := body["setup_errors"].([]any); !ok || len(errs) != 0 {
		t.Fatalf("expected empty setup_errors after initialize, got %v", body["setup_errors"])
	}
}

func TestListTenants_NotInitialized503(t *testing.T) {
	r := newTestRouter(newTestManager(t))
	code, body := getJSON(t, r, "/diagnostics/tenants")
	if code != http.StatusServiceUnavailable || body["code"] != "not_initialized" {
		t.Fatalf("tenants -> %d %v", code, body)
	}
}

func TestListTenants_ReturnsRegistryRows(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	if err := mgr.Initialize(ctx, "test"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	prov := tenant.NewProvisioner(mgr)
	if _, err := prov.Create(ctx, "acme_corp", "Acme Corp", "test"); err != nil {
		t.Fatalf("Create tenant: %v", err)
	}

	r := newTestRouter(mgr)
	code, body := getJSON(t, r, "/diagnostics/tenants")
	if code != http.StatusOK {
		t.Fatalf("tenants -> %d", code)
	}
	rows, ok := body["tenants"].([]any)
	if !ok || len(rows) != 2 { // bootstrap + acme_corp
		t.Fatalf("expected 2 tenants, got %v", body["tenants"])
	}
}

func TestTenantStats_UnknownTenant404(t *testing.T) {
	mgr := newTestManager(t)
	if err := mgr.Initialize(context.Background(), "test"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	r := newTestRouter(mgr)
	code, body := getJSON(t, r, "/diagnostics/tenants/ghost_tenant/stats")
	if code != http.StatusNotFound || body["code"] != "tenant_not_found" {
		t.Fatalf("stats(ghost) -> %d %v", code, body)
	}
}

func TestTenantStats_AggregatesBasketsAndDocuments(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	if err := mgr.Initialize(ctx, "test"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if _, err := tenant.NewProvisioner(mgr).Create(ctx, "acme_corp", "Acme", "test"); err != nil {
		t.Fatalf("Create tenant: %v", err)
	}

	db, err := mgr.OpenTenant(ctx, "acme_corp")
	if err != nil {
		t.Fatalf("OpenTenant: %v", err)
	}
	basket := &domain.Basket{
		ID:             uuid.NewString(),
		Name:           "invoices",
		StorageBackend: domain.StorageBackendFilesystem,
		PathSegment:    "invoices_0000/",
		Status:         domain.BasketStatusActive,
	}
	if err := db.Create(basket).Error; err != nil {
		t.Fatalf("seed basket: %v", err)
	}
	for _, status := range []string{domain.DocStatusReceived, domain.DocStatusReceived, domain.DocStatusFailed} {
		doc := &domain.Document{ID: uuid.NewString(), BasketID: basket.ID, Name: "d", Status: status}
		if err := db.Create(doc).Error; err != nil {
			t.Fatalf("seed document: %v", err)
		}
	}

	r := newTestRouter(mgr)
	code, body := getJSON(t, r, "/diagnostics/tenants/acme_corp/stats")
	if code != http.StatusOK {
		t.Fatalf("stats -> %d %v", code, body)
	}
	if body["basket_count"] != float64(1) || body["last_basket_updated"] == nil {
		t.Fatalf("basket aggregate unexpected: %v", body)
	}
	perBasket, ok := body["documents_by_basket"].(map[string]any)
	if !ok {
		t.Fatalf("documents_by_basket missing: %v", body)
	}
	counts, ok := perBasket[basket.ID].(map[string]any)
	if !ok || counts[domain.DocStatusReceived] != float64(2) || counts[domain.DocStatusFailed] != float64(1) {
		t.Fatalf("document counts unexpected: %v", perBasket)
	}
}
