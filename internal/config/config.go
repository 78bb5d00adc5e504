package config

import (
	"os"
	"strconv"
)

type Config struct {
	// Server
	Port     string
	LogLevel string

	// Provider API keys
	GeminiAPIKey    string
	AnthropicAPIKey string
	XAIAPIKey       string

	// Provider base URLs (overridable for tests)
	GeminiBaseURL    string
	AnthropicBaseURL string
	XAIBaseURL       string

	// Tool backends
	ToolsBaseURL         string
	ToolsConfigPath      string // optional YAML registry overriding endpoints
	GoogleSearchAPIKey   string
	GoogleSearchEngineID string

	// Project store
	DBDriver string // "sqlite" | "postgres"
	DBPath   string // SQLite path
	DBUrl    string // Postgres DSN

	// Access-decision cache (optional)
	RedisAddr string

	// Artifact object storage (optional; required for persisted vision jobs)
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Vision
	VisionBatchSize int // concurrent items per batch; default 5
	VisionModel     string
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		XAIAPIKey:       getEnv("XAI_API_KEY", ""),

		GeminiBaseURL:    getEnv("BPH_GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		AnthropicBaseURL: getEnv("BPH_ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		XAIBaseURL:       getEnv("BPH_XAI_BASE_URL", "https://api.x.ai"),

		ToolsBaseURL:         getEnv("BPH_TOOLS_BASE_URL", ""),
		ToolsConfigPath:      getEnv("BPH_TOOLS_CONFIG", ""),
		GoogleSearchAPIKey:   getEnv("GOOGLE_SEARCH_API_KEY", ""),
		GoogleSearchEngineID: getEnv("GOOGLE_SEARCH_ENGINE_ID", ""),

		DBDriver: getEnv("BPH_DB_DRIVER", "sqlite"),
		DBPath:   getEnv("BPH_DB_PATH", "./data/gateway.db"),
		DBUrl:    getEnv("BPH_DATABASE_URL", ""),

		RedisAddr: getEnv("BPH_REDIS_ADDR", ""),

		MinioEndpoint:  getEnv("BPH_MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("BPH_MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("BPH_MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("BPH_MINIO_BUCKET", "artifacts"),
		MinioUseSSL:    getEnvBool("BPH_MINIO_USE_SSL", false),

		VisionBatchSize: getEnvInt("BPH_VISION_BATCH_SIZE", 5),
		VisionModel:     getEnv("BPH_VISION_MODEL", "gemini-2.5-flash"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
