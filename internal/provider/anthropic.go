package provider

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/blueprinthub/gateway/internal/config"
	"github.com/blueprinthub/gateway/internal/model"
	"github.com/blueprinthub/gateway/internal/sse"
)

const (
	anthropicVersion = "2023-06-01"

	// defaultThinkingBudget applies when thinking is enabled without an
	// explicit budget. Anthropic rejects budgets below 1024.
	defaultThinkingBudget = 8192
)

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicThinking struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	MaxTokens int                `json:"max_tokens"`
	Stream    bool               `json:"stream"`
	Thinking  *anthropicThinking `json:"thinking,omitempty"`
}

func newAnthropicBinding(modelName string, cfg *config.Config) (*Binding, error) {
	if cfg.AnthropicAPIKey == "" {
		return nil, &model.ConfigError{Setting: "ANTHROPIC_API_KEY"}
	}

	return &Binding{
		Provider: "anthropic",
		Model:    modelName,
		endpoint: strings.TrimRight(cfg.AnthropicBaseURL, "/") + "/v1/messages",
		headers: map[string]string{
			"x-api-key":         cfg.AnthropicAPIKey,
			"anthropic-version": anthropicVersion,
		},
		buildBody: func(req *model.GenerationRequest) ([]byte, error) { return buildAnthropicBody(modelName, req) },
		newParser: func() sse.Parser { return &anthropicParser{} },
		client:    &http.Client{},
	}, nil
}

// buildAnthropicBody places the system prompt in the dedicated `system`
// field; history and the user prompt form the messages array. Thinking is
// attached only when enabled — Anthropic's default is off, so there is no
// disable field to send.
func buildAnthropicBody(modelName string, req *model.GenerationRequest) ([]byte, error) {
	messages := make([]anthropicMessage, 0, len(req.Messages)+1)
	for _, msg := range req.Messages {
		messages = append(messages, anthropicMessage{Role: msg.Role, Content: msg.Content})
	}
	if req.UserPrompt != "" {
		messages = append(messages, anthropicMessage{Role: "user", Content: req.UserPrompt})
	}

	body := anthropicRequest{
		Model:     modelName,
		System:    req.SystemPrompt,
		Messages:  messages,
		MaxTokens: CoerceMaxTokens(req.MaxOutputTokens),
		Stream:    true,
	}
	if req.ThinkingEnabled {
		budget := req.ThinkingBudget
		if budget <= 0 {
			budget = defaultThinkingBudget
		}
		body.Thinking = &anthropicThinking{Type: "enabled", BudgetTokens: budget}
	}
	return json.Marshal(body)
}

// anthropicParser normalizes typed Anthropic stream events. The stop
// reason arrives on message_delta, one event before the message_stop
// terminal, so the parser carries it across payloads.
type anthropicParser struct {
	stopReason string
}

type anthropicStreamPayload struct {
	Type  string `json:"type"`
	Delta struct {
		Type       string `json:"type"`
		Text       string `json:"text"`
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *anthropicParser) Parse(payload []byte) []model.StreamEvent {
	var frame anthropicStreamPayload
	if err := json.Unmarshal(payload, &frame); err != nil {
		log.Printf("anthropic sse parse skip: %v", err)
		return nil
	}

	switch frame.Type {
	case "content_block_delta":
		if frame.Delta.Text != "" {
			return []model.StreamEvent{model.DeltaEvent(frame.Delta.Text)}
		}
	case "message_delta":
		if frame.Delta.StopReason != "" {
			p.stopReason = frame.Delta.StopReason
		}
	case "message_stop":
		return []model.StreamEvent{model.DoneEvent(p.stopReason, p.stopReason == "max_tokens")}
	case "error":
		msg := "upstream error"
		if frame.Error != nil && frame.Error.Message != "" {
			msg = frame.Error.Message
		}
		return []model.StreamEvent{model.ErrorEvent(msg)}
	}
	return nil
}
