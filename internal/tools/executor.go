package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/blueprinthub/gateway/internal/config"
	"github.com/blueprinthub/gateway/internal/model"
)

const toolErrorReadLimit = 2048

// Executor runs tool instances strictly sequentially, in submission order.
// A tool failure is captured as data in its result slot; it never aborts
// the remaining tools or the request.
type Executor struct {
	registry *Registry
	client   *http.Client

	searchAPIKey   string
	searchEngineID string
}

func NewExecutor(cfg *config.Config, registry *Registry) *Executor {
	return &Executor{
		registry:       registry,
		client:         &http.Client{},
		searchAPIKey:   cfg.GoogleSearchAPIKey,
		searchEngineID: cfg.GoogleSearchEngineID,
	}
}

// Run executes every instance in order. It returns one ToolOutput per
// instance plus the accumulated human-readable results text appended to
// the user prompt ("\n\n<Label> Results: <json>" per successful tool).
func (e *Executor) Run(ctx context.Context, authHeader string, instances []model.ToolInstance) ([]model.ToolOutput, string) {
	outputs := make([]model.ToolOutput, 0, len(instances))
	var resultsText string

	for _, inst := range instances {
		output, label, err := e.invoke(ctx, authHeader, inst)
		if err != nil {
			log.Printf("tool %s failed: %v", inst.ToolID, err)
			outputs = append(outputs, model.ToolOutput{
				ToolID: inst.ToolID,
				Output: map[string]string{"error": err.Error()},
			})
			continue
		}

		outputs = append(outputs, model.ToolOutput{ToolID: inst.ToolID, Output: output})
		if raw, err := json.Marshal(output); err == nil {
			resultsText += fmt.Sprintf("\n\n%s Results: %s", label, raw)
		}
	}
	return outputs, resultsText
}

func (e *Executor) invoke(ctx context.Context, authHeader string, inst model.ToolInstance) (any, string, error) {
	url, label, ok := e.registry.URL(inst.ToolID)
	if !ok {
		return nil, "", fmt.Errorf("unknown tool: %s", inst.ToolID)
	}

	body, err := e.buildBody(inst)
	if err != nil {
		return nil, "", err
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, "", fmt.Errorf("marshal tool request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("call %s: %w", inst.ToolID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, toolErrorReadLimit))
		return nil, "", fmt.Errorf("tool %s returned %d: %s", inst.ToolID, resp.StatusCode, excerpt)
	}

	var decoded any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, "", fmt.Errorf("decode %s response: %w", inst.ToolID, err)
	}
	return decoded, label, nil
}

// buildBody validates and shapes the per-tool request body from the
// instance config.
func (e *Executor) buildBody(inst model.ToolInstance) (map[string]any, error) {
	cfg := inst.Config
	get := func(key string) string {
		if cfg == nil {
			return ""
		}
		return cfg[key]
	}

	switch inst.ToolID {
	case "google_search":
		query := get("query")
		if query == "" {
			return nil, fmt.Errorf("google_search requires config.query")
		}
		apiKey := get("apiKey")
		if apiKey == "" {
			apiKey = e.searchAPIKey
		}
		engineID := get("searchEngineId")
		if engineID == "" {
			engineID = e.searchEngineID
		}
		if apiKey == "" || engineID == "" {
			return nil, fmt.Errorf("google_search requires apiKey and searchEngineId")
		}
		return map[string]any{"query": query, "apiKey": apiKey, "searchEngineId": engineID}, nil

	case "weather":
		location := get("location")
		if location == "" {
			return nil, fmt.Errorf("weather requires config.location")
		}
		body := map[string]any{"location": location}
		if units := get("units"); units != "" {
			body["units"] = units
		}
		return body, nil

	case "time":
		body := map[string]any{}
		if tz := get("timezone"); tz != "" {
			body["timezone"] = tz
		}
		return body, nil

	case "web_scrape":
		url := get("url")
		if url == "" {
			return nil, fmt.Errorf("web_scrape requires config.url")
		}
		return map[string]any{"url": url}, nil

	case "api_call":
		url := get("url")
		if url == "" {
			return nil, fmt.Errorf("api_call requires config.url")
		}
		body := map[string]any{"url": url}
		if method := get("method"); method != "" {
			body["method"] = method
		}
		if headers := get("headers"); headers != "" {
			var parsed map[string]string
			if err := json.Unmarshal([]byte(headers), &parsed); err != nil {
				return nil, fmt.Errorf("api_call headers must be a JSON object: %w", err)
			}
			body["headers"] = parsed
		}
		return body, nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", inst.ToolID)
	}
}
