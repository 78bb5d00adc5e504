package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/blueprinthub/gateway/internal/config"
	"github.com/blueprinthub/gateway/internal/enrich"
	"github.com/blueprinthub/gateway/internal/model"
	"github.com/blueprinthub/gateway/internal/provider"
	"github.com/blueprinthub/gateway/internal/sse"
	"github.com/blueprinthub/gateway/internal/store"
	"github.com/blueprinthub/gateway/internal/tools"
)

// Chat serves a streaming generation request. The same handler backs both
// chat and agent endpoints; they differ only in default model and context
// size cap.
type Chat struct {
	Config *config.Config
	Access *store.Access
	Tools  *tools.Executor

	// DefaultModel is applied when the request omits a model name.
	DefaultModel string
	// ContextCharLimit caps the serialized attached-context JSON; zero
	// means no cap.
	ContextCharLimit int
}

func (h *Chat) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req model.GenerationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ProjectID != "" {
		allowed, err := h.Access.Check(r.Context(), req.ProjectID, bearerToken(r), req.ShareToken)
		if err != nil {
			log.Printf("access check for project %s: %v", req.ProjectID, err)
			writeError(w, http.StatusInternalServerError, "access check failed")
			return
		}
		if !allowed {
			writeError(w, http.StatusForbidden, "Access denied")
			return
		}
	}

	if req.Model == "" {
		req.Model = h.DefaultModel
	}

	// Resolve before opening the stream: a missing API key is an HTTP-level
	// failure, not an in-band event.
	binding, err := provider.Resolve(req.Model, h.Config)
	if err != nil {
		var cfgErr *model.ConfigError
		if errors.As(err, &cfgErr) {
			writeError(w, http.StatusInternalServerError, cfgErr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writer, err := sse.NewWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Everything from here on is in-band: the headers are committed.
	if len(req.Tools) > 0 {
		outputs, resultsText := h.Tools.Run(r.Context(), r.Header.Get("Authorization"), req.Tools)
		if err := writer.Send(model.ToolsEvent(outputs)); err != nil {
			return
		}
		req.UserPrompt += resultsText
	}

	req.SystemPrompt = enrich.SystemPrompt(req.SystemPrompt, req.AttachedContext, h.ContextCharLimit)

	body, err := binding.Stream(r.Context(), &req)
	if err != nil {
		log.Printf("%s stream open: %v", binding.Provider, err)
		writer.Send(model.ErrorEvent(err.Error()))
		return
	}

	emit := func(ev model.StreamEvent) error { return writer.Send(ev) }
	if err := sse.Reframe(r.Context(), body, binding.NewParser(), emit); err != nil {
		log.Printf("%s stream read: %v", binding.Provider, err)
		writer.Send(model.ErrorEvent("stream interrupted"))
	}
}
