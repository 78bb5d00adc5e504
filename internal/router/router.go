package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/blueprinthub/gateway/internal/config"
	"github.com/blueprinthub/gateway/internal/handler"
	"github.com/blueprinthub/gateway/internal/middleware"
	"github.com/blueprinthub/gateway/internal/store"
	"github.com/blueprinthub/gateway/internal/tools"
)

// New builds the HTTP router. objects may be nil when no object storage is
// configured; persisted vision items then fail per item.
func New(cfg *config.Config, s *store.Store, cache *store.AccessCache, objects *store.Objects, registry *tools.Registry) http.Handler {
	access := &store.Access{Store: s, Cache: cache}
	executor := tools.NewExecutor(cfg, registry)

	chatH := &handler.Chat{
		Config: cfg,
		Access: access,
		Tools:  executor,
	}
	// The agent endpoint shares the chat pipeline but defaults to the
	// Anthropic agent model and caps the attached-context payload.
	agentH := &handler.Chat{
		Config:           cfg,
		Access:           access,
		Tools:            executor,
		DefaultModel:     "claude-sonnet-4-20250514",
		ContextCharLimit: 50000,
	}
	visionH := &handler.Vision{
		Config:  cfg,
		Access:  access,
		Store:   s,
		Objects: objects,
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Trace)
	r.Use(middleware.CORS)

	r.Get("/v1/health", handler.Health)
	r.Post("/v1/chat/stream", chatH.ServeHTTP)
	r.Post("/v1/agent/run", agentH.ServeHTTP)
	r.Post("/v1/vision/batch", visionH.ServeHTTP)

	return r
}
