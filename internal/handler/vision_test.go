package handler

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/blueprinthub/gateway/internal/model"
	"github.com/blueprinthub/gateway/internal/store"
)

func visionUpstream(t *testing.T, text string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprintf(w, `{"candidates":[{"content":{"parts":[{"text":%q}]}}]}`, text)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func postVision(t *testing.T, h http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	encoded, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/vision/batch", strings.NewReader(string(encoded)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeVisionFrames(t *testing.T, body string) []model.VisionEvent {
	t.Helper()
	var events []model.VisionEvent
	for _, frame := range strings.Split(body, "\n\n") {
		frame = strings.TrimSpace(frame)
		if frame == "" {
			continue
		}
		payload, ok := strings.CutPrefix(frame, "data: ")
		if !ok {
			t.Fatalf("frame without data prefix: %q", frame)
		}
		var ev model.VisionEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			t.Fatalf("bad frame %q: %v", payload, err)
		}
		events = append(events, ev)
	}
	return events
}

func TestVisionInlineBatch(t *testing.T) {
	srv := visionUpstream(t, "extracted")
	cfg := testConfig(srv.URL)
	s := openTestStore(t)
	h := &Vision{Config: cfg, Access: &store.Access{Store: s}, Store: s}

	body := model.BatchImageRequest{
		Mode: "augment",
		Images: []model.InlineImage{
			{ID: "good", Base64: base64.StdEncoding.EncodeToString([]byte("png-bytes")), MimeType: "image/png", ExistingText: "notes"},
			{ID: "bad", Base64: "%%not-base64%%", MimeType: "image/png"},
		},
	}
	rec := postVision(t, h, body)
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected event stream, got %q", ct)
	}

	events := decodeVisionFrames(t, rec.Body.String())
	if events[0].Type != "start" || events[0].Total != 2 {
		t.Fatalf("bad start: %+v", events[0])
	}

	results := map[string]model.VisionEvent{}
	for _, ev := range events {
		if ev.Type == "result" {
			results[ev.ID] = ev
		}
	}
	good := results["good"]
	if good.Success == nil || !*good.Success || good.Content != "notes\n\n---\n\nextracted" {
		t.Fatalf("bad good result: %+v", good)
	}
	bad := results["bad"]
	if bad.Success == nil || *bad.Success || bad.Error == "" {
		t.Fatalf("bad failure result: %+v", bad)
	}

	last := events[len(events)-1]
	if last.Type != "complete" || last.Processed != 2 || last.Successful != 1 || last.Failed != 1 {
		t.Fatalf("bad complete: %+v", last)
	}
}

func TestVisionArtifactBatchRequiresAccess(t *testing.T) {
	cfg := testConfig("http://unused")
	s := openTestStore(t)
	h := &Vision{Config: cfg, Access: &store.Access{Store: s}, Store: s}

	rec := postVision(t, h, model.BatchImageRequest{ArtifactIDs: []string{"a1"}, ProjectID: "ghost"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Access denied") {
		t.Fatalf("wrong body: %s", rec.Body.String())
	}
}

func TestVisionEmptyRequestRejected(t *testing.T) {
	cfg := testConfig("http://unused")
	s := openTestStore(t)
	h := &Vision{Config: cfg, Access: &store.Access{Store: s}, Store: s}

	rec := postVision(t, h, model.BatchImageRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestVisionMissingKeyIsHTTPError(t *testing.T) {
	cfg := testConfig("http://unused")
	cfg.GeminiAPIKey = ""
	s := openTestStore(t)
	h := &Vision{Config: cfg, Access: &store.Access{Store: s}, Store: s}

	rec := postVision(t, h, model.BatchImageRequest{
		Images: []model.InlineImage{{ID: "a", Base64: base64.StdEncoding.EncodeToString([]byte("x"))}},
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "GEMINI_API_KEY") {
		t.Fatalf("error should name the missing setting: %s", rec.Body.String())
	}
}
