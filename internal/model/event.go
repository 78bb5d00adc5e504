package model

// StreamEvent is the normalized event pushed to the caller over SSE.
// Ordering invariant per stream: at most one "tools" event (first, if any
// tools ran), any number of "delta" events in upstream order, exactly one
// terminal event ("done" or "error").
type StreamEvent struct {
	Type         string       `json:"type"` // "tools" | "delta" | "done" | "error"
	ToolOutputs  []ToolOutput `json:"toolOutputs,omitempty"`
	Text         string       `json:"text,omitempty"`
	FinishReason string       `json:"finishReason,omitempty"`
	Truncated    bool         `json:"truncated,omitempty"`
	Error        string       `json:"error,omitempty"`
}

const (
	EventTools = "tools"
	EventDelta = "delta"
	EventDone  = "done"
	EventError = "error"
)

func ToolsEvent(outputs []ToolOutput) StreamEvent {
	return StreamEvent{Type: EventTools, ToolOutputs: outputs}
}

func DeltaEvent(text string) StreamEvent {
	return StreamEvent{Type: EventDelta, Text: text}
}

func DoneEvent(finishReason string, truncated bool) StreamEvent {
	return StreamEvent{Type: EventDone, FinishReason: finishReason, Truncated: truncated}
}

func ErrorEvent(msg string) StreamEvent {
	return StreamEvent{Type: EventError, Error: msg}
}

// Terminal reports whether the event ends the stream.
func (e StreamEvent) Terminal() bool {
	return e.Type == EventDone || e.Type == EventError
}

// VisionEvent is one frame of the batch vision stream.
type VisionEvent struct {
	Type       string `json:"type"` // "start" | "result" | "progress" | "complete" | "error"
	JobID      string `json:"jobId,omitempty"`
	Total      int    `json:"total,omitempty"`
	Processed  int    `json:"processed,omitempty"`
	Successful int    `json:"successful,omitempty"`
	Failed     int    `json:"failed,omitempty"`
	ID         string `json:"id,omitempty"`
	Success    *bool  `json:"success,omitempty"`
	Content    string `json:"content,omitempty"`
	Error      string `json:"error,omitempty"`
}
