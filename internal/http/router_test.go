package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/docex/go-docstore-backend/internal/config"
	"github.com/docex/go-docstore-backend/internal/tenant"
)

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	mgr, err := tenant.NewManager(tenant.Options{
		Backend: tenant.BackendSQLite,
		DataDir: t.TempDir(),
		Logger:  zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, mgr, config.Config{})
	return r
}

func TestRegisterRoutes_HealthzThroughFullStack(t *testing.T) {
	r := newTestEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("GET /healthz -> %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected X-Request-ID on response")
	}
}

func TestRegisterRoutes_MetricsExposed(t *testing.T) {
	r := newTestEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("GET /metrics -> %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Fatalf("expected prometheus exposition output")
	}
}

func TestRegisterRoutes_NoRouteJSON404(t *testing.T) {
	r := newTestEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope -> %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("404 body not JSON: %v (%q)", err, w.Body.String())
	}
	if body["code"] != "not_found" || body["request_id"] == "" {
		t.Fatalf("unexpected 404 body: %v", body)
	}
}
