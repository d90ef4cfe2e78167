package provider

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fortemi/matric/internal/matriclog"
)

// localProviderID is the built-in local inference provider. It is always
// registered and is the fallback when a slug carries no recognised prefix.
const localProviderID = "ollama"

// Registry holds configured inference providers in registration order.
//
// Registration order matters: slug prefix matching tries providers in the
// order they were registered, not in any hash-derived order, so that
// "first registered prefix match wins" is deterministic and reproducible
// across restarts — a HashMap-backed registry would make prefix resolution
// depend on hash iteration order, which is exactly the ambiguity this
// registry exists to avoid.
type Registry struct {
	mu              sync.RWMutex
	order           []string
	providers       map[string]*Config
	defaultProvider string
	log             *matriclog.Context
}

// NewRegistry creates an empty registry with the given default provider id.
// The default provider need not be registered yet.
func NewRegistry(defaultProvider string, log *matriclog.Context) *Registry {
	return &Registry{
		providers:       make(map[string]*Config),
		defaultProvider: defaultProvider,
		log:             log,
	}
}

// Register adds or replaces a provider. If cfg.IsDefault is set, it becomes
// the registry's default provider. Re-registering an id keeps its original
// position in the registration order.
func (r *Registry) Register(cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[cfg.ID]; !exists {
		r.order = append(r.order, cfg.ID)
	}
	if cfg.IsDefault {
		r.defaultProvider = cfg.ID
	}
	stored := cfg
	r.providers[cfg.ID] = &stored

	if r.log != nil {
		r.log.WithFields(map[string]any{
			"provider":     cfg.ID,
			"base_url":     cfg.BaseURL,
			"capabilities": cfg.Capabilities,
			"is_default":   cfg.IsDefault,
		}).Debug("registered inference provider")
	}
}

// DefaultProvider returns the current default provider id.
func (r *Registry) DefaultProvider() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultProvider
}

// ProviderIDs returns every registered provider id, in registration order.
func (r *Registry) ProviderIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Get returns the config for id, if registered.
func (r *Registry) Get(id string) (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.providers[id]
	if !ok {
		return Config{}, false
	}
	return *cfg, true
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[id]
	return ok
}

// SetHealth updates a registered provider's health status.
func (r *Registry) SetHealth(id string, health Health) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cfg, ok := r.providers[id]; ok {
		cfg.Health = health
	}
}

// HealthyProviders returns every provider whose health is not Unhealthy, in
// registration order.
func (r *Registry) HealthyProviders() []Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Config
	for _, id := range r.order {
		cfg := r.providers[id]
		if cfg.Health != HealthUnhealthy {
			out = append(out, *cfg)
		}
	}
	return out
}

// ProvidersWithCapability returns every healthy provider supporting cap, in
// registration order.
func (r *Registry) ProvidersWithCapability(cap Capability) []Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Config
	for _, id := range r.order {
		cfg := r.providers[id]
		if cfg.Health != HealthUnhealthy && cfg.hasCapability(cap) {
			out = append(out, *cfg)
		}
	}
	return out
}

// ParseSlug parses a provider-qualified model slug.
//
// Each registered provider id is tried as a "<id>:" prefix, in registration
// order; the first match with a non-empty remainder wins. A slug with no
// matching prefix names a model on the default provider. This is what lets
// "qwen3:8b" (a bare Ollama tag containing a colon) and "openai:gpt-4o" (an
// externally routed model) coexist in the same slug grammar.
func (r *Registry) ParseSlug(slug string) ParsedSlug {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		prefix := id + ":"
		if model, ok := strings.CutPrefix(slug, prefix); ok {
			if model != "" {
				return ParsedSlug{ProviderID: id, Model: model}
			}
		}
	}
	return ParsedSlug{ProviderID: r.defaultProvider, Model: slug}
}

// IsExternal reports whether slug resolves to a registered provider that is
// neither the default nor the local provider. Handlers use this to decide
// between a local fast path and a generic external-backend path.
func (r *Registry) IsExternal(slug string) bool {
	parsed := r.ParseSlug(slug)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if parsed.ProviderID == r.defaultProvider || parsed.ProviderID == localProviderID {
		return false
	}
	_, ok := r.providers[parsed.ProviderID]
	return ok
}

// ResolveGeneration resolves a provider-qualified slug to a GenerationBackend.
// It fails if the provider is not registered or does not support generation.
// An Unhealthy provider still resolves, after logging a warning, since a
// stale health reading should not block a request that might well succeed.
func (r *Registry) ResolveGeneration(slug string) (GenerationBackend, error) {
	parsed := r.ParseSlug(slug)
	cfg, ok := r.Get(parsed.ProviderID)
	if !ok {
		return nil, fmt.Errorf("provider %q is not registered", parsed.ProviderID)
	}
	if !cfg.hasCapability(CapabilityGeneration) {
		return nil, fmt.Errorf("provider %q does not support generation", parsed.ProviderID)
	}
	if cfg.Health == HealthUnhealthy && r.log != nil {
		r.log.WithFields(map[string]any{"provider": parsed.ProviderID}).Warn("resolving backend for unhealthy provider")
	}
	return newBackend(cfg, parsed.Model)
}

// ResolveEmbedding resolves a provider-qualified slug to an EmbeddingBackend.
func (r *Registry) ResolveEmbedding(slug string) (EmbeddingBackend, error) {
	parsed := r.ParseSlug(slug)
	cfg, ok := r.Get(parsed.ProviderID)
	if !ok {
		return nil, fmt.Errorf("provider %q is not registered", parsed.ProviderID)
	}
	if !cfg.hasCapability(CapabilityEmbedding) {
		return nil, fmt.Errorf("provider %q does not support embedding", parsed.ProviderID)
	}
	return newBackend(cfg, parsed.Model)
}

// GetFallbackChain returns the ordered list of provider ids to retry against
// after current fails, in registration order, excluding current itself.
// Callers retry once per successor until the chain is exhausted; only
// healthy providers with matching capability should typically be consulted,
// which is left to the caller via ProvidersWithCapability.
func (r *Registry) GetFallbackChain(current string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var chain []string
	for _, id := range r.order {
		if id != current {
			chain = append(chain, id)
		}
	}
	return chain
}
