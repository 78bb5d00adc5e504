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

type xaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type xaiRequest struct {
	Model     string       `json:"model"`
	Messages  []xaiMessage `json:"messages"`
	MaxTokens int          `json:"max_tokens"`
	Stream    bool         `json:"stream"`
}

func newXAIBinding(modelName string, cfg *config.Config) (*Binding, error) {
	if cfg.XAIAPIKey == "" {
		return nil, &model.ConfigError{Setting: "XAI_API_KEY"}
	}

	return &Binding{
		Provider: "xai",
		Model:    modelName,
		endpoint: strings.TrimRight(cfg.XAIBaseURL, "/") + "/v1/chat/completions",
		headers: map[string]string{
			"Authorization": "Bearer " + cfg.XAIAPIKey,
		},
		buildBody: func(req *model.GenerationRequest) ([]byte, error) { return buildXAIBody(modelName, req) },
		newParser: func() sse.Parser { return &xaiParser{} },
		client:    &http.Client{},
	}, nil
}

// buildXAIBody uses the OpenAI-style messages array with a system role.
// Grok reasoning cannot be disabled, so no thinking field is ever sent.
func buildXAIBody(modelName string, req *model.GenerationRequest) ([]byte, error) {
	messages := make([]xaiMessage, 0, len(req.Messages)+2)
	if req.SystemPrompt != "" {
		messages = append(messages, xaiMessage{Role: "system", Content: req.SystemPrompt})
	}
	for _, msg := range req.Messages {
		messages = append(messages, xaiMessage{Role: msg.Role, Content: msg.Content})
	}
	if req.UserPrompt != "" {
		messages = append(messages, xaiMessage{Role: "user", Content: req.UserPrompt})
	}

	return json.Marshal(xaiRequest{
		Model:     modelName,
		Messages:  messages,
		MaxTokens: CoerceMaxTokens(req.MaxOutputTokens),
		Stream:    true,
	})
}

type xaiParser struct{}

type xaiStreamPayload struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *xaiParser) Parse(payload []byte) []model.StreamEvent {
	var frame xaiStreamPayload
	if err := json.Unmarshal(payload, &frame); err != nil {
		log.Printf("xai sse parse skip: %v", err)
		return nil
	}

	if frame.Error != nil {
		return []model.StreamEvent{model.ErrorEvent(frame.Error.Message)}
	}
	if len(frame.Choices) == 0 {
		return nil
	}

	var events []model.StreamEvent
	choice := frame.Choices[0]
	if choice.Delta.Content != "" {
		events = append(events, model.DeltaEvent(choice.Delta.Content))
	}
	if choice.FinishReason != "" {
		events = append(events, model.DoneEvent(choice.FinishReason, choice.FinishReason == "length"))
	}
	return events
}
