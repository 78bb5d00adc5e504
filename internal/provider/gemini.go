package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/blueprinthub/gateway/internal/config"
	"github.com/blueprinthub/gateway/internal/model"
	"github.com/blueprinthub/gateway/internal/sse"
)

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiThinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int                   `json:"maxOutputTokens"`
	ThinkingConfig  *geminiThinkingConfig `json:"thinkingConfig,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

func newGeminiBinding(modelName string, cfg *config.Config) (*Binding, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, &model.ConfigError{Setting: "GEMINI_API_KEY"}
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse&key=%s",
		strings.TrimRight(cfg.GeminiBaseURL, "/"), modelName, cfg.GeminiAPIKey)

	return &Binding{
		Provider:  "gemini",
		Model:     modelName,
		endpoint:  endpoint,
		headers:   map[string]string{},
		buildBody: func(req *model.GenerationRequest) ([]byte, error) { return buildGeminiBody(modelName, req) },
		newParser: func() sse.Parser { return &geminiParser{} },
		client:    &http.Client{},
	}, nil
}

// buildGeminiBody assembles the contents array. Gemini has no separate
// system slot here: without history the system prompt is concatenated into
// the single user turn; with history it is injected as the first history
// turn instead.
func buildGeminiBody(modelName string, req *model.GenerationRequest) ([]byte, error) {
	var contents []geminiContent

	if len(req.Messages) == 0 {
		text := req.UserPrompt
		if req.SystemPrompt != "" {
			text = req.SystemPrompt + "\n\n" + req.UserPrompt
		}
		contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: text}}})
	} else {
		if req.SystemPrompt != "" {
			contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: req.SystemPrompt}}})
		}
		for _, msg := range req.Messages {
			role := "user"
			if msg.Role == "assistant" {
				role = "model"
			}
			contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: msg.Content}}})
		}
		if req.UserPrompt != "" {
			contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: req.UserPrompt}}})
		}
	}

	genCfg := geminiGenerationConfig{MaxOutputTokens: CoerceMaxTokens(req.MaxOutputTokens)}
	genCfg.ThinkingConfig = geminiThinking(modelName, req)

	return json.Marshal(geminiRequest{Contents: contents, GenerationConfig: genCfg})
}

// geminiThinking returns the thinking config to attach, or nil to omit.
// Always-on reasoning models reject thinkingBudget=0, so disabling there
// means omitting the field rather than sending an invalid value.
func geminiThinking(modelName string, req *model.GenerationRequest) *geminiThinkingConfig {
	if req.ThinkingEnabled {
		budget := req.ThinkingBudget
		if budget <= 0 {
			budget = defaultThinkingBudget
		}
		return &geminiThinkingConfig{ThinkingBudget: budget}
	}
	if geminiAlwaysOnThinking(modelName) {
		return nil
	}
	return &geminiThinkingConfig{ThinkingBudget: 0}
}

func geminiAlwaysOnThinking(modelName string) bool {
	return strings.HasPrefix(modelName, "gemini-2.5-pro")
}

// geminiParser normalizes Gemini stream payloads. Stateless: the finish
// reason rides on the same payload as the final text chunk.
type geminiParser struct{}

type geminiStreamPayload struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *geminiParser) Parse(payload []byte) []model.StreamEvent {
	var frame geminiStreamPayload
	if err := json.Unmarshal(payload, &frame); err != nil {
		log.Printf("gemini sse parse skip: %v", err)
		return nil
	}

	if frame.Error != nil {
		return []model.StreamEvent{model.ErrorEvent(frame.Error.Message)}
	}
	if len(frame.Candidates) == 0 {
		return nil
	}

	var events []model.StreamEvent
	cand := frame.Candidates[0]
	if len(cand.Content.Parts) > 0 && cand.Content.Parts[0].Text != "" {
		events = append(events, model.DeltaEvent(cand.Content.Parts[0].Text))
	}
	if cand.FinishReason != "" {
		events = append(events, model.DoneEvent(cand.FinishReason, cand.FinishReason == "MAX_TOKENS"))
	}
	return events
}

// Vision performs single-shot (non-streaming) Gemini image extraction for
// the batch OCR path.
type Vision struct {
	endpoint string
	client   *http.Client
}

// NewVision builds a non-streaming extraction client. An empty modelName
// selects the configured vision model.
func NewVision(cfg *config.Config, modelName string) (*Vision, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, &model.ConfigError{Setting: "GEMINI_API_KEY"}
	}
	if modelName == "" {
		modelName = cfg.VisionModel
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(cfg.GeminiBaseURL, "/"), modelName, cfg.GeminiAPIKey)
	return &Vision{endpoint: endpoint, client: &http.Client{}}, nil
}

type geminiVisionResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Extract sends one image plus an instruction prompt and returns the
// model's text.
func (v *Vision) Extract(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{InlineData: &geminiInlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
				{Text: prompt},
			},
		}},
		GenerationConfig: geminiGenerationConfig{MaxOutputTokens: DefaultMaxOutputTokens},
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, upstreamErrorReadLimit))
		return "", model.NewUpstreamError("gemini", resp.StatusCode, excerpt)
	}

	var decoded geminiVisionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode vision response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("vision response contained no text")
	}
	return decoded.Candidates[0].Content.Parts[0].Text, nil
}
