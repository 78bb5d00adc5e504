package router

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/blueprinthub/gateway/internal/config"
	"github.com/blueprinthub/gateway/internal/tools"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{VisionBatchSize: 5}
	registry, err := tools.LoadRegistry(cfg)
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	return New(cfg, nil, nil, nil, registry)
}

func TestGatewayRoutesRegistered(t *testing.T) {
	h := newTestRouter(t)
	routes, ok := h.(chi.Routes)
	if !ok {
		t.Fatalf("router does not implement chi.Routes")
	}

	registered := map[string]bool{}
	if err := chi.Walk(routes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		registered[fmt.Sprintf("%s %s", method, route)] = true
		return nil
	}); err != nil {
		t.Fatalf("walk routes: %v", err)
	}

	for _, route := range []string{
		"GET /v1/health",
		"POST /v1/chat/stream",
		"POST /v1/agent/run",
		"POST /v1/vision/batch",
	} {
		if !registered[route] {
			t.Fatalf("missing route %s", route)
		}
	}
}

func TestPreflightAnsweredWithoutBody(t *testing.T) {
	h := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/chat/stream", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("preflight must carry no body, got %q", rec.Body.String())
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin, got %q", got)
	}
}
