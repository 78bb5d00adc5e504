// Package tools executes the fixed set of auxiliary HTTP tools before a
// model call and collects their outputs.
package tools

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/blueprinthub/gateway/internal/config"
)

// Endpoint is one tool backend: its path under the tools base URL and the
// human-readable label used in the accumulated results text.
type Endpoint struct {
	Path  string `yaml:"path"`
	Label string `yaml:"label"`
}

// Registry resolves toolIds to backend endpoints. The defaults can be
// overridden per deployment with a YAML file.
type Registry struct {
	BaseURL string              `yaml:"baseURL"`
	Tools   map[string]Endpoint `yaml:"tools"`
}

func defaultRegistry(baseURL string) *Registry {
	return &Registry{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Tools: map[string]Endpoint{
			"google_search": {Path: "/tools/google-search", Label: "Google Search"},
			"weather":       {Path: "/tools/weather", Label: "Weather"},
			"time":          {Path: "/tools/time", Label: "Time"},
			"web_scrape":    {Path: "/tools/web-scrape", Label: "Web Scrape"},
			"api_call":      {Path: "/tools/api-call", Label: "API Call"},
		},
	}
}

// LoadRegistry builds the default registry and overlays the YAML file at
// cfg.ToolsConfigPath when one is configured.
func LoadRegistry(cfg *config.Config) (*Registry, error) {
	reg := defaultRegistry(cfg.ToolsBaseURL)
	if cfg.ToolsConfigPath == "" {
		return reg, nil
	}

	data, err := os.ReadFile(cfg.ToolsConfigPath)
	if err != nil {
		return nil, fmt.Errorf("read tools config: %w", err)
	}

	var overlay Registry
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parse tools config: %w", err)
	}
	if overlay.BaseURL != "" {
		reg.BaseURL = strings.TrimRight(overlay.BaseURL, "/")
	}
	for id, ep := range overlay.Tools {
		merged := reg.Tools[id]
		if ep.Path != "" {
			merged.Path = ep.Path
		}
		if ep.Label != "" {
			merged.Label = ep.Label
		}
		reg.Tools[id] = merged
	}
	return reg, nil
}

// URL returns the full endpoint URL for a toolId, or ok=false when the
// toolId is not registered.
func (r *Registry) URL(toolID string) (url, label string, ok bool) {
	ep, found := r.Tools[toolID]
	if !found {
		return "", "", false
	}
	return r.BaseURL + ep.Path, ep.Label, true
}
