// Package enrich merges caller-attached project context into the system
// prompt before dispatch to a provider.
package enrich

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/blueprinthub/gateway/internal/model"
)

const (
	contextHeader = "===== ATTACHED PROJECT CONTEXT ====="
	dataHeader    = "===== FULL CONTEXT DATA ====="

	truncationMarker = "... [context truncated]"
)

// SystemPrompt appends a one-line-per-field summary block plus the full
// JSON-serialized attached context to the system prompt. When no
// recognized field is attached, the prompt is returned unchanged. A
// positive charLimit bounds the serialized JSON; exceeding it keeps a
// trailing truncation marker. Pure function of its inputs.
func SystemPrompt(systemPrompt string, attached *model.AttachedContext, charLimit int) string {
	if attached.IsEmpty() {
		return systemPrompt
	}

	var summary []string
	add := func(line string) { summary = append(summary, line) }

	if len(attached.ProjectMetadata) > 0 {
		add("PROJECT METADATA: attached")
	}
	addCount(add, "ARTIFACTS", "artifacts", len(attached.Artifacts))
	addCount(add, "CHAT SESSIONS", "chat sessions", len(attached.ChatSessions))
	addCount(add, "REQUIREMENTS", "requirements", len(attached.Requirements))
	addCount(add, "STANDARDS", "standards", len(attached.Standards))
	addCount(add, "TECH STACKS", "tech stacks", len(attached.TechStacks))
	addCount(add, "CANVAS NODES", "canvas nodes", len(attached.CanvasNodes))
	addCount(add, "CANVAS EDGES", "canvas edges", len(attached.CanvasEdges))
	addCount(add, "CANVAS LAYERS", "canvas layers", len(attached.CanvasLayers))
	addCount(add, "FILES", "files", len(attached.Files))
	addCount(add, "DATABASES", "databases", len(attached.Databases))

	data, err := json.Marshal(attached)
	if err != nil {
		// Serialization of caller JSON should not fail; degrade to the
		// summary alone rather than dropping the whole block.
		log.Printf("attached context marshal: %v", err)
		data = []byte("{}")
	}
	serialized := string(data)
	if charLimit > 0 && len(serialized) > charLimit {
		serialized = serialized[:charLimit] + truncationMarker
	}

	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")
	b.WriteString(contextHeader)
	b.WriteString("\n")
	b.WriteString(strings.Join(summary, "\n"))
	b.WriteString("\n")
	b.WriteString(dataHeader)
	b.WriteString("\n")
	b.WriteString(serialized)
	return b.String()
}

func addCount(add func(string), label, noun string, n int) {
	if n > 0 {
		add(fmt.Sprintf("%s: %d %s attached", label, n, noun))
	}
}
