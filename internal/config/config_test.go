package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("expected default driver sqlite, got %q", cfg.DBDriver)
	}
	if cfg.VisionBatchSize != 5 {
		t.Fatalf("expected default vision batch size 5, got %d", cfg.VisionBatchSize)
	}
}

func TestLoadReadsProviderKeys(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("ANTHROPIC_API_KEY", "a-key")
	t.Setenv("XAI_API_KEY", "x-key")

	cfg := Load()
	if cfg.GeminiAPIKey != "g-key" || cfg.AnthropicAPIKey != "a-key" || cfg.XAIAPIKey != "x-key" {
		t.Fatalf("provider keys not loaded: %+v", cfg)
	}
}

func TestLoadInvalidIntFallsBack(t *testing.T) {
	t.Setenv("BPH_VISION_BATCH_SIZE", "not-a-number")

	cfg := Load()
	if cfg.VisionBatchSize != 5 {
		t.Fatalf("expected fallback batch size 5, got %d", cfg.VisionBatchSize)
	}
}
