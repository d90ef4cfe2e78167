package provider

import (
	"time"

	"github.com/fortemi/matric/internal/matriclog"
	"github.com/fortemi/matric/internal/matricconfig"
)

// FromEnv builds a Registry from environment variables. Ollama is always
// registered as the default provider. OpenAI and OpenRouter register
// themselves only if their API key environment variable is set.
func FromEnv(env *matricconfig.EnvConfig, log *matriclog.Context) *Registry {
	registry := NewRegistry(localProviderID, log)

	registry.Register(Config{
		ID:      localProviderID,
		BaseURL: env.GetString("OLLAMA_URL", "http://localhost:11434"),
		Capabilities: []Capability{
			CapabilityGeneration,
			CapabilityEmbedding,
			CapabilityVision,
		},
		Timeout:   300 * time.Second,
		IsDefault: true,
		Health:    HealthUnknown,
	})

	if apiKey := env.GetString("OPENAI_API_KEY", ""); apiKey != "" {
		registry.Register(Config{
			ID:      "openai",
			BaseURL: env.GetString("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:  apiKey,
			Capabilities: []Capability{
				CapabilityGeneration,
				CapabilityEmbedding,
			},
			Timeout: time.Duration(env.GetInt("OPENAI_TIMEOUT", 300)) * time.Second,
			Health:  HealthUnknown,
		})
	}

	if apiKey := env.GetString("OPENROUTER_API_KEY", ""); apiKey != "" {
		registry.Register(Config{
			ID:           "openrouter",
			BaseURL:      env.GetString("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			APIKey:       apiKey,
			Capabilities: []Capability{CapabilityGeneration},
			Timeout:      time.Duration(env.GetInt("OPENROUTER_TIMEOUT", 300)) * time.Second,
			Health:       HealthUnknown,
			HTTPReferer:  env.GetString("OPENROUTER_HTTP_REFERER", ""),
			XTitle:       env.GetString("OPENROUTER_X_TITLE", ""),
		})
	}

	if log != nil {
		log.WithFields(map[string]any{
			"providers": registry.ProviderIDs(),
			"default":   registry.DefaultProvider(),
		}).Debug("provider registry initialized from environment")
	}

	return registry
}
