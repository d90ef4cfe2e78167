package provider

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testRegistry() *Registry {
	r := NewRegistry(localProviderID, nil)

	r.Register(Config{
		ID:           localProviderID,
		BaseURL:      "http://localhost:11434",
		Capabilities: []Capability{CapabilityGeneration, CapabilityEmbedding, CapabilityVision},
		Timeout:      300 * time.Second,
		IsDefault:    true,
		Health:       HealthHealthy,
	})
	r.Register(Config{
		ID:           "openai",
		BaseURL:      "https://api.openai.com/v1",
		APIKey:       "sk-test-key",
		Capabilities: []Capability{CapabilityGeneration, CapabilityEmbedding},
		Timeout:      300 * time.Second,
		Health:       HealthHealthy,
	})
	r.Register(Config{
		ID:           "openrouter",
		BaseURL:      "https://openrouter.ai/api/v1",
		APIKey:       "sk-or-test-key",
		Capabilities: []Capability{CapabilityGeneration},
		Timeout:      300 * time.Second,
		Health:       HealthHealthy,
		HTTPReferer:  "https://fortemi.com",
		XTitle:       "Fortemi",
	})

	return r
}

func TestParseBareOllamaSlug(t *testing.T) {
	parsed := testRegistry().ParseSlug("qwen3:8b")
	assert.Equal(t, "ollama", parsed.ProviderID)
	assert.Equal(t, "qwen3:8b", parsed.Model)
}

func TestParseBareEmbedSlug(t *testing.T) {
	parsed := testRegistry().ParseSlug("nomic-embed-text")
	assert.Equal(t, "ollama", parsed.ProviderID)
	assert.Equal(t, "nomic-embed-text", parsed.Model)
}

func TestParseExplicitOllamaSlug(t *testing.T) {
	parsed := testRegistry().ParseSlug("ollama:qwen3:8b")
	assert.Equal(t, "ollama", parsed.ProviderID)
	assert.Equal(t, "qwen3:8b", parsed.Model)
}

func TestParseOpenAISlug(t *testing.T) {
	parsed := testRegistry().ParseSlug("openai:gpt-4o")
	assert.Equal(t, "openai", parsed.ProviderID)
	assert.Equal(t, "gpt-4o", parsed.Model)
}

func TestParseOpenRouterSlug(t *testing.T) {
	parsed := testRegistry().ParseSlug("openrouter:anthropic/claude-sonnet-4-20250514")
	assert.Equal(t, "openrouter", parsed.ProviderID)
	assert.Equal(t, "anthropic/claude-sonnet-4-20250514", parsed.Model)
}

func TestParseUnknownPrefixAsDefaultModel(t *testing.T) {
	parsed := testRegistry().ParseSlug("llava:34b")
	assert.Equal(t, "ollama", parsed.ProviderID)
	assert.Equal(t, "llava:34b", parsed.Model)
}

func TestParseEmptyModelAfterPrefixUsesDefault(t *testing.T) {
	parsed := testRegistry().ParseSlug("openai:")
	assert.Equal(t, "ollama", parsed.ProviderID)
	assert.Equal(t, "openai:", parsed.Model)
}

func TestParseModelNoColon(t *testing.T) {
	parsed := testRegistry().ParseSlug("mistral")
	assert.Equal(t, "ollama", parsed.ProviderID)
	assert.Equal(t, "mistral", parsed.Model)
}

func TestDefaultProviderIsOllama(t *testing.T) {
	assert.Equal(t, "ollama", testRegistry().DefaultProvider())
}

func TestProviderIDsReturnsAllInRegistrationOrder(t *testing.T) {
	ids := testRegistry().ProviderIDs()
	assert.Equal(t, []string{"ollama", "openai", "openrouter"}, ids)
}

func TestHasProviderChecksRegistration(t *testing.T) {
	r := testRegistry()
	assert.True(t, r.Has("ollama"))
	assert.True(t, r.Has("openai"))
	assert.False(t, r.Has("azure"))
}

func TestProvidersWithGenerationCapability(t *testing.T) {
	assert.Len(t, testRegistry().ProvidersWithCapability(CapabilityGeneration), 3)
}

func TestProvidersWithEmbeddingCapability(t *testing.T) {
	assert.Len(t, testRegistry().ProvidersWithCapability(CapabilityEmbedding), 2)
}

func TestProvidersWithVisionCapability(t *testing.T) {
	assert.Len(t, testRegistry().ProvidersWithCapability(CapabilityVision), 1)
}

func TestUnhealthyProvidersExcludedFromCapabilityQuery(t *testing.T) {
	r := testRegistry()
	r.SetHealth("openai", HealthUnhealthy)
	assert.Len(t, r.ProvidersWithCapability(CapabilityGeneration), 2)
}

func TestIsExternalDetectsNonDefault(t *testing.T) {
	r := testRegistry()
	assert.False(t, r.IsExternal("qwen3:8b"))
	assert.False(t, r.IsExternal("ollama:qwen3:8b"))
	assert.True(t, r.IsExternal("openai:gpt-4o"))
	assert.True(t, r.IsExternal("openrouter:anthropic/claude-sonnet-4-20250514"))
}

func TestIsExternalFalseForUnknownPrefix(t *testing.T) {
	assert.False(t, testRegistry().IsExternal("llava:34b"))
}

func TestResolveGenerationProviderWithoutGenerationErrors(t *testing.T) {
	r := testRegistry()
	r.Register(Config{
		ID:           "whisper",
		BaseURL:      "http://localhost:8000",
		Capabilities: []Capability{CapabilityTranscription},
		Timeout:      60 * time.Second,
		Health:       HealthHealthy,
	})
	_, err := r.ResolveGeneration("whisper:large-v3")
	assert.ErrorContains(t, err, "does not support generation")
}

func TestResolveGenerationUnregisteredPrefixUsesDefaultProvider(t *testing.T) {
	r := testRegistry()
	_, err := r.ResolveGeneration("azure:gpt-4")
	// "azure" is not registered, so the whole string is treated as an
	// Ollama model — resolution should succeed, not error.
	assert.NoError(t, err)
}

func TestGetFallbackChainExcludesCurrent(t *testing.T) {
	chain := testRegistry().GetFallbackChain("openai")
	assert.Equal(t, []string{"ollama", "openrouter"}, chain)
}

func TestReRegisterKeepsOriginalPosition(t *testing.T) {
	r := testRegistry()
	r.Register(Config{ID: "openai", BaseURL: "https://updated", Health: HealthHealthy})
	assert.Equal(t, []string{"ollama", "openai", "openrouter"}, r.ProviderIDs())
	cfg, ok := r.Get("openai")
	assert.True(t, ok)
	assert.Equal(t, "https://updated", cfg.BaseURL)
}
