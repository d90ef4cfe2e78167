// Package matricconfig loads the engine's environment-variable configuration
// surface. There is no file-based configuration layer: every recognised
// option is read once at process startup through EnvConfig.
package matricconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvConfig reads environment variables with an optional common prefix.
type EnvConfig struct {
	prefix string
}

// NewEnvConfig creates a loader. An empty prefix reads bare variable names.
func NewEnvConfig(prefix string) *EnvConfig {
	return &EnvConfig{prefix: prefix}
}

func (ec *EnvConfig) buildKey(key string) string {
	if ec.prefix != "" {
		return ec.prefix + "_" + key
	}
	return key
}

func (ec *EnvConfig) GetString(key, defaultValue string) string {
	if value := os.Getenv(ec.buildKey(key)); value != "" {
		return value
	}
	return defaultValue
}

func (ec *EnvConfig) MustGetString(key string) string {
	fullKey := ec.buildKey(key)
	value := os.Getenv(fullKey)
	if value == "" {
		panic(fmt.Sprintf("required environment variable %s not set", fullKey))
	}
	return value
}

func (ec *EnvConfig) GetInt(key string, defaultValue int) int {
	if value := os.Getenv(ec.buildKey(key)); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (ec *EnvConfig) GetBool(key string, defaultValue bool) bool {
	if value := os.Getenv(ec.buildKey(key)); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func (ec *EnvConfig) GetDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(ec.buildKey(key)); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func (ec *EnvConfig) GetStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(ec.buildKey(key))
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Config is the full recognised environment-variable surface (spec §6).
type Config struct {
	// Job scheduler / worker (C8, C9)
	JobWorkerEnabled  bool
	JobMaxConcurrent  int
	JobPollInterval   time.Duration
	JobTimeoutSecs    time.Duration
	JobMaxRetries     int
	EventBusCapacity  int

	// Ollama provider (C6)
	OllamaURL        string
	OllamaGenModel   string
	OllamaEmbedModel string

	// OpenAI-compatible provider (C6), opt-in: registered only if APIKey != ""
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAITimeout time.Duration

	// OpenRouter provider (C6), opt-in: registered only if APIKey != ""
	OpenRouterAPIKey      string
	OpenRouterBaseURL     string
	OpenRouterHTTPReferer string
	OpenRouterXTitle      string

	// Attachment store (C2) / extraction (C7)
	MaxUploadSizeBytes   int64
	FileInlineThreshold  int64
	ExtractionCmdTimeout time.Duration

	// Storage backend (C1)
	StorageBackend string // "filesystem" | "s3" | "database"
	StorageRoot    string

	// Archive data plane (C4)
	DatabaseURL string

	// Wake-signal pub/sub (C8)
	RedisURL string

	// Structured logging
	LogLevel  string
	LogFormat string
}

// Load assembles Config from the environment. It never opens a network
// connection or a file: everything here is a direct os.Getenv read.
func Load() Config {
	env := NewEnvConfig("")
	return Config{
		JobWorkerEnabled: env.GetBool("JOB_WORKER_ENABLED", true),
		JobMaxConcurrent: env.GetInt("JOB_MAX_CONCURRENT", 4),
		JobPollInterval:  time.Duration(env.GetInt("JOB_POLL_INTERVAL_MS", 60000)) * time.Millisecond,
		JobTimeoutSecs:   time.Duration(env.GetInt("JOB_TIMEOUT_SECS", 300)) * time.Second,
		JobMaxRetries:    env.GetInt("JOB_MAX_RETRIES", 5),
		EventBusCapacity: env.GetInt("EVENT_BUS_CAPACITY", 256),

		OllamaURL:        env.GetString("OLLAMA_URL", "http://localhost:11434"),
		OllamaGenModel:   env.GetString("OLLAMA_GEN_MODEL", ""),
		OllamaEmbedModel: env.GetString("OLLAMA_EMBED_MODEL", ""),

		OpenAIAPIKey:  env.GetString("OPENAI_API_KEY", ""),
		OpenAIBaseURL: env.GetString("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAITimeout: time.Duration(env.GetInt("OPENAI_TIMEOUT", 300)) * time.Second,

		OpenRouterAPIKey:      env.GetString("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL:     env.GetString("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterHTTPReferer: env.GetString("OPENROUTER_HTTP_REFERER", ""),
		OpenRouterXTitle:      env.GetString("OPENROUTER_X_TITLE", ""),

		MaxUploadSizeBytes:   int64(env.GetInt("MAX_UPLOAD_SIZE_BYTES", 100*1024*1024)),
		FileInlineThreshold:  int64(env.GetInt("FILE_INLINE_THRESHOLD", 8192)),
		ExtractionCmdTimeout: time.Duration(env.GetInt("EXTRACTION_CMD_TIMEOUT_SECS", 120)) * time.Second,

		StorageBackend: env.GetString("STORAGE_BACKEND", "filesystem"),
		StorageRoot:    env.GetString("STORAGE_ROOT", "./data/blobs"),

		DatabaseURL: env.GetString("DATABASE_URL", "postgres://localhost:5432/matric"),

		RedisURL: env.GetString("REDIS_URL", "redis://localhost:6379/0"),

		LogLevel:  env.GetString("LOG_LEVEL", "info"),
		LogFormat: env.GetString("LOG_FORMAT", "text"),
	}
}
