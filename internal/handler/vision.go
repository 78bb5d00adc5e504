package handler

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/blueprinthub/gateway/internal/config"
	"github.com/blueprinthub/gateway/internal/model"
	"github.com/blueprinthub/gateway/internal/provider"
	"github.com/blueprinthub/gateway/internal/sse"
	"github.com/blueprinthub/gateway/internal/store"
	"github.com/blueprinthub/gateway/internal/vision"
)

// Vision serves batch OCR jobs: inline base64 images, or persisted
// artifacts whose source images live in object storage.
type Vision struct {
	Config  *config.Config
	Access  *store.Access
	Store   *store.Store
	Objects *store.Objects
}

func (h *Vision) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req model.BatchImageRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var items []vision.Item
	switch {
	case len(req.Images) > 0:
		items = inlineVisionItems(req.Images)
	case len(req.ArtifactIDs) > 0:
		if req.ProjectID == "" {
			writeError(w, http.StatusBadRequest, "projectId is required for artifact batches")
			return
		}
		allowed, err := h.Access.Check(r.Context(), req.ProjectID, bearerToken(r), req.ShareToken)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "access check failed")
			return
		}
		if !allowed {
			writeError(w, http.StatusForbidden, "Access denied")
			return
		}
		items, err = h.artifactVisionItems(r, &req)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "either images or artifactIds is required")
		return
	}

	extractor, err := provider.NewVision(h.Config, req.Model)
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

	proc := vision.NewProcessor(extractor, h.Objects, h.Store, h.Config.VisionBatchSize)
	err = proc.Process(r.Context(), req.Mode, items, func(ev model.VisionEvent) error {
		return writer.Send(ev)
	})
	if err != nil {
		log.Printf("vision batch aborted: %v", err)
	}
}

func inlineVisionItems(images []model.InlineImage) []vision.Item {
	items := make([]vision.Item, 0, len(images))
	for _, img := range images {
		data, err := base64.StdEncoding.DecodeString(img.Base64)
		if err != nil {
			items = append(items, vision.Item{ID: img.ID, Err: fmt.Errorf("invalid base64 image data")})
			continue
		}
		items = append(items, vision.Item{
			ID:           img.ID,
			Inline:       data,
			MimeType:     img.MimeType,
			ExistingText: img.ExistingText,
		})
	}
	return items
}

func (h *Vision) artifactVisionItems(r *http.Request, req *model.BatchImageRequest) ([]vision.Item, error) {
	artifacts, err := h.Store.ArtifactsByID(r.Context(), req.ProjectID, req.ArtifactIDs)
	if err != nil {
		return nil, fmt.Errorf("load artifacts: %w", err)
	}

	items := make([]vision.Item, 0, len(req.ArtifactIDs))
	for _, id := range req.ArtifactIDs {
		a, ok := artifacts[id]
		if !ok {
			items = append(items, vision.Item{ID: id, Err: fmt.Errorf("artifact not found: %s", id)})
			continue
		}
		items = append(items, vision.Item{
			ID:           a.ArtifactID,
			ExistingText: a.TextContent,
			ObjectKey:    a.ObjectKey,
			MimeType:     a.MimeType,
			Persist:      true,
		})
	}
	return items, nil
}
