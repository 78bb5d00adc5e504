package model

import "encoding/json"

// ChatMessage is one prior turn in the conversation history.
type ChatMessage struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}

// ToolInstance is one auxiliary tool the caller wants executed before the
// model call. Config keys are tool-specific.
type ToolInstance struct {
	ToolID string            `json:"toolId"`
	Config map[string]string `json:"config"`
}

// ToolOutput is the captured result of one tool invocation. Failures are
// carried in Output as {"error": "..."} — never as a Go error.
type ToolOutput struct {
	ToolID string `json:"toolId"`
	Output any    `json:"output"`
}

// AttachedContext is the caller-assembled aggregate of selected project
// data. Absence of a field means "not attached", never "empty but attached".
type AttachedContext struct {
	ProjectMetadata json.RawMessage   `json:"projectMetadata,omitempty"`
	Artifacts       []json.RawMessage `json:"artifacts,omitempty"`
	ChatSessions    []json.RawMessage `json:"chatSessions,omitempty"`
	Requirements    []json.RawMessage `json:"requirements,omitempty"`
	Standards       []json.RawMessage `json:"standards,omitempty"`
	TechStacks      []json.RawMessage `json:"techStacks,omitempty"`
	CanvasNodes     []json.RawMessage `json:"canvasNodes,omitempty"`
	CanvasEdges     []json.RawMessage `json:"canvasEdges,omitempty"`
	CanvasLayers    []json.RawMessage `json:"canvasLayers,omitempty"`
	Files           []json.RawMessage `json:"files,omitempty"`
	Databases       []json.RawMessage `json:"databases,omitempty"`
}

// IsEmpty reports whether no recognized field is attached.
func (a *AttachedContext) IsEmpty() bool {
	if a == nil {
		return true
	}
	return len(a.ProjectMetadata) == 0 &&
		len(a.Artifacts) == 0 &&
		len(a.ChatSessions) == 0 &&
		len(a.Requirements) == 0 &&
		len(a.Standards) == 0 &&
		len(a.TechStacks) == 0 &&
		len(a.CanvasNodes) == 0 &&
		len(a.CanvasEdges) == 0 &&
		len(a.CanvasLayers) == 0 &&
		len(a.Files) == 0 &&
		len(a.Databases) == 0
}

// GenerationRequest is the request-scoped input to a streaming generation.
// Constructed from the incoming HTTP body, consumed once, discarded.
type GenerationRequest struct {
	SystemPrompt string           `json:"systemPrompt"`
	UserPrompt   string           `json:"userPrompt,omitempty"`
	Messages     []ChatMessage    `json:"messages,omitempty"`
	Tools        []ToolInstance   `json:"tools,omitempty"`
	Model        string           `json:"model,omitempty"`
	// MaxOutputTokens accepts a JSON number or string; coercion to a
	// positive integer (default 32768) happens in the provider layer.
	MaxOutputTokens any              `json:"maxOutputTokens,omitempty"`
	ThinkingEnabled bool             `json:"thinkingEnabled,omitempty"`
	ThinkingBudget  int              `json:"thinkingBudget,omitempty"`
	AttachedContext *AttachedContext `json:"attachedContext,omitempty"`
	ProjectID       string           `json:"projectId,omitempty"`
	ShareToken      string           `json:"shareToken,omitempty"`
}

// InlineImage is one image submitted directly in a batch request body.
type InlineImage struct {
	ID           string `json:"id"`
	Base64       string `json:"base64"`
	MimeType     string `json:"mimeType"`
	ExistingText string `json:"existingText,omitempty"`
}

// BatchImageRequest is the body of the batch vision endpoint. Either
// ArtifactIDs (persisted mode) or Images (inline mode) is set.
type BatchImageRequest struct {
	ArtifactIDs []string      `json:"artifactIds,omitempty"`
	ProjectID   string        `json:"projectId,omitempty"`
	ShareToken  string        `json:"shareToken,omitempty"`
	Images      []InlineImage `json:"images,omitempty"`
	Model       string        `json:"model,omitempty"`
	Mode        string        `json:"mode,omitempty"` // "replace" | "augment"
}
