package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/fortemi/matric/internal/matricerr"
)

// DiscoveredModel is one entry from an Ollama instance's /api/tags
// response, enriched with whatever capability data matric has for it.
type DiscoveredModel struct {
	Name          string
	SizeBytes     int64
	Family        string
	ParameterSize string
	Quantization  string
	HasKnownCapabilities bool
	Capabilities  ModelCapabilities
}

// IsLikelyEmbedding delegates to the name-based heuristic, used for models
// the capability table doesn't recognize.
func (m DiscoveredModel) IsLikelyEmbedding() bool {
	if m.HasKnownCapabilities {
		return m.Capabilities.IsEmbeddingModel
	}
	return IsLikelyEmbedding(m.Name)
}

// SizeHuman renders SizeBytes as a human-friendly size (e.g. "4.1 GB").
func (m DiscoveredModel) SizeHuman() string {
	return humanize.Bytes(uint64(m.SizeBytes))
}

// DiscoveryResult is the full outcome of probing an Ollama instance.
type DiscoveryResult struct {
	Models            []DiscoveredModel
	EmbeddingModels   []DiscoveredModel
	GenerationModels  []DiscoveredModel
	RecommendedConfig RecommendedConfig
	DiscoveredAt      time.Time
}

// HasModels reports whether discovery found anything at all.
func (r DiscoveryResult) HasModels() bool { return len(r.Models) > 0 }

// Summary renders a one-line human-readable count, e.g. "6 models found (2
// embedding, 4 generation)".
func (r DiscoveryResult) Summary() string {
	return fmt.Sprintf("%d models found (%d embedding, %d generation)", len(r.Models), len(r.EmbeddingModels), len(r.GenerationModels))
}

type ollamaTagsResponse struct {
	Models []struct {
		Name    string `json:"name"`
		Size    int64  `json:"size"`
		Details struct {
			Family        string `json:"family"`
			ParameterSize string `json:"parameter_size"`
			Quantization  string `json:"quantization_level"`
		} `json:"details"`
	} `json:"models"`
}

// ModelDiscovery probes a single Ollama instance's /api/tags endpoint and
// classifies each reported model against the known capability matrix.
type ModelDiscovery struct {
	baseURL string
	client  *http.Client
	tier    HardwareTier
}

// NewModelDiscovery returns a discoverer for the Ollama instance at
// baseURL (e.g. "http://localhost:11434"), scored against hardware tier.
func NewModelDiscovery(baseURL string, tier HardwareTier) *ModelDiscovery {
	return &ModelDiscovery{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		tier:    tier,
	}
}

// Discover lists models from Ollama and builds a scored recommendation.
// Network access here is a one-shot GET against a local/LAN instance; this
// deliberately does not reuse the generate/embed HTTP backend since that
// client is provider-config-shaped and discovery has no model to select
// yet.
func (d *ModelDiscovery) Discover(ctx context.Context) (DiscoveryResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/api/tags", nil)
	if err != nil {
		return DiscoveryResult{}, matricerr.Internalf("build ollama discovery request: %v", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return DiscoveryResult{}, matricerr.Inferencef(err, "ollama discovery request")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return DiscoveryResult{}, matricerr.Inferencef(nil, "ollama discovery returned status %d", resp.StatusCode)
	}

	var wire ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return DiscoveryResult{}, matricerr.Inferencef(err, "decode ollama discovery response")
	}

	selector := NewModelSelector(d.tier)
	result := DiscoveryResult{DiscoveredAt: nowFunc()}
	for _, w := range wire.Models {
		dm := DiscoveredModel{
			Name:          w.Name,
			SizeBytes:     w.Size,
			Family:        w.Details.Family,
			ParameterSize: w.Details.ParameterSize,
			Quantization:  w.Details.Quantization,
		}
		if caps, ok := KnownModelCapabilities(w.Name); ok {
			dm.HasKnownCapabilities = true
			dm.Capabilities = caps
			selector.AddModel(caps)
		}
		result.Models = append(result.Models, dm)
		if dm.IsLikelyEmbedding() {
			result.EmbeddingModels = append(result.EmbeddingModels, dm)
		} else {
			result.GenerationModels = append(result.GenerationModels, dm)
		}
	}

	result.RecommendedConfig = selector.RecommendedConfig()
	return result, nil
}

// nowFunc supplies DiscoveredAt; DiscoveredAt is cosmetic and never
// compared against wall-clock time by any caller.
var nowFunc = time.Now
