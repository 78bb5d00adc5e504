package provider

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/blueprinthub/gateway/internal/config"
	"github.com/blueprinthub/gateway/internal/model"
	"github.com/blueprinthub/gateway/internal/sse"
)

const (
	// DefaultMaxOutputTokens is used when the caller omits the budget or
	// supplies something unusable.
	DefaultMaxOutputTokens = 32768

	// FallbackModel handles unrecognized model-name prefixes.
	FallbackModel = "gemini-2.5-flash"

	// upstreamErrorReadLimit caps how much of a failing provider response
	// we read before building the error excerpt.
	upstreamErrorReadLimit = 4096
)

// Binding is one resolved provider: its endpoint, auth headers, request
// body shape and SSE payload parser. Bindings are request-scoped.
type Binding struct {
	Provider string
	Model    string

	endpoint  string
	headers   map[string]string
	buildBody func(req *model.GenerationRequest) ([]byte, error)
	newParser func() sse.Parser

	client *http.Client
}

// Resolve maps a model name to its provider binding by prefix: claude* →
// Anthropic, gemini* → Gemini, grok* → xAI, anything else → the Gemini
// Flash fallback. A missing API key for the selected provider is a
// *model.ConfigError — never a silent fallback to a different provider.
func Resolve(modelName string, cfg *config.Config) (*Binding, error) {
	name := strings.TrimSpace(modelName)
	switch {
	case strings.HasPrefix(name, "claude"):
		return newAnthropicBinding(name, cfg)
	case strings.HasPrefix(name, "gemini"):
		return newGeminiBinding(name, cfg)
	case strings.HasPrefix(name, "grok"):
		return newXAIBinding(name, cfg)
	default:
		return newGeminiBinding(FallbackModel, cfg)
	}
}

// NewParser returns a fresh per-stream payload parser.
func (b *Binding) NewParser() sse.Parser {
	return b.newParser()
}

// Stream issues the upstream request and returns the raw SSE body. Non-2xx
// responses become an *model.UpstreamError carrying the status and a
// bounded body excerpt. The request inherits ctx, so a caller disconnect
// aborts the upstream fetch. No timeout is applied here; the hosting
// server's limits are the effective ones.
func (b *Binding) Stream(ctx context.Context, req *model.GenerationRequest) (io.ReadCloser, error) {
	body, err := b.buildBody(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range b.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, upstreamErrorReadLimit))
		resp.Body.Close()
		return nil, model.NewUpstreamError(b.Provider, resp.StatusCode, excerpt)
	}
	return resp.Body, nil
}

// CoerceMaxTokens turns the caller-supplied budget (JSON number or string)
// into a positive integer, falling back to DefaultMaxOutputTokens for
// anything invalid or non-positive.
func CoerceMaxTokens(v any) int {
	switch t := v.(type) {
	case float64:
		if t >= 1 {
			return int(t)
		}
	case int:
		if t >= 1 {
			return t
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil && n >= 1 {
			return n
		}
	}
	return DefaultMaxOutputTokens
}
