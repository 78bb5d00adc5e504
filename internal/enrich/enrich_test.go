package enrich

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/blueprinthub/gateway/internal/model"
)

func raw(items ...string) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		out = append(out, json.RawMessage(it))
	}
	return out
}

func TestSystemPromptUnchangedWithoutAttachedContext(t *testing.T) {
	if got := SystemPrompt("base", nil, 0); got != "base" {
		t.Fatalf("nil context must not alter the prompt, got %q", got)
	}
	if got := SystemPrompt("base", &model.AttachedContext{}, 0); got != "base" {
		t.Fatalf("empty context must not alter the prompt, got %q", got)
	}
}

func TestSystemPromptSummarizesPresentFieldsOnly(t *testing.T) {
	attached := &model.AttachedContext{
		Artifacts:    raw(`{"id":"a1"}`, `{"id":"a2"}`, `{"id":"a3"}`),
		Requirements: raw(`{"id":"r1"}`),
	}

	got := SystemPrompt("base", attached, 0)
	if !strings.Contains(got, "ARTIFACTS: 3 artifacts attached") {
		t.Fatalf("missing artifacts summary line:\n%s", got)
	}
	if !strings.Contains(got, "REQUIREMENTS: 1 requirements attached") {
		t.Fatalf("missing requirements summary line:\n%s", got)
	}
	if strings.Contains(got, "CANVAS NODES") {
		t.Fatalf("absent field must not be summarized:\n%s", got)
	}
	if !strings.Contains(got, `{"id":"a2"}`) {
		t.Fatalf("full context JSON must follow the summary:\n%s", got)
	}
}

func TestSystemPromptSummaryBlockAppearsExactlyOncePerInvocation(t *testing.T) {
	attached := &model.AttachedContext{Artifacts: raw(`{"id":"a1"}`)}

	once := SystemPrompt("base", attached, 0)
	twice := SystemPrompt(once, attached, 0)

	if strings.Count(once, "===== ATTACHED PROJECT CONTEXT =====") != 1 {
		t.Fatalf("summary block duplicated within one invocation:\n%s", once)
	}
	// Re-enriching an already-enriched prompt adds exactly one more block,
	// never a cumulative pile-up.
	if strings.Count(twice, "===== ATTACHED PROJECT CONTEXT =====") != 2 {
		t.Fatalf("expected exactly one block added per invocation:\n%s", twice)
	}
}

func TestSystemPromptTruncatesWithMarker(t *testing.T) {
	attached := &model.AttachedContext{
		Files: raw(`{"name":"` + strings.Repeat("x", 500) + `"}`),
	}

	got := SystemPrompt("base", attached, 100)
	if !strings.HasSuffix(got, "... [context truncated]") {
		t.Fatalf("expected trailing truncation marker:\n%s", got)
	}

	idx := strings.Index(got, "===== FULL CONTEXT DATA =====\n")
	data := got[idx+len("===== FULL CONTEXT DATA =====\n"):]
	if len(data) != 100+len("... [context truncated]") {
		t.Fatalf("data section not bounded: %d chars", len(data))
	}
}

func TestSystemPromptDeterministic(t *testing.T) {
	attached := &model.AttachedContext{
		ProjectMetadata: json.RawMessage(`{"name":"p"}`),
		CanvasNodes:     raw(`{"id":"n1"}`, `{"id":"n2"}`),
	}
	a := SystemPrompt("base", attached, 0)
	b := SystemPrompt("base", attached, 0)
	if a != b {
		t.Fatalf("enrichment must be a pure function of its inputs")
	}
}
