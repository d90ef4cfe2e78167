package discovery

import "sort"

// KmOperation is one of the knowledge-management tasks matric needs a
// model for (spec §4.12).
type KmOperation string

const (
	OperationTitleGeneration KmOperation = "title_generation"
	OperationAIRevision      KmOperation = "ai_revision"
	OperationEmbedding       KmOperation = "embedding"
	OperationSemanticLinking KmOperation = "semantic_linking"
	OperationContextGeneration KmOperation = "context_generation"
)

// RequiredCapabilities lists the capabilities a model must have to perform
// op at all.
func (op KmOperation) RequiredCapabilities() []Capability {
	switch op {
	case OperationTitleGeneration:
		return []Capability{CapabilityTitleGeneration, CapabilityFormatCompliance}
	case OperationAIRevision:
		return []Capability{CapabilityContentRevision, CapabilitySemanticUnderstanding}
	case OperationEmbedding:
		return []Capability{CapabilityEmbedding}
	case OperationSemanticLinking:
		return []Capability{CapabilitySemanticUnderstanding, CapabilityEmbedding}
	case OperationContextGeneration:
		return []Capability{CapabilitySemanticUnderstanding, CapabilityLongContext}
	default:
		return nil
	}
}

// primaryCapability is the single capability used to rank candidates once
// the minimum-tier gate has passed.
func (op KmOperation) primaryCapability() Capability {
	caps := op.RequiredCapabilities()
	if len(caps) == 0 {
		return ""
	}
	return caps[0]
}

// MinQualityTier is the lowest acceptable tier for every one of op's
// required capabilities.
func (op KmOperation) MinQualityTier() QualityTier {
	switch op {
	case OperationEmbedding:
		return QualityGood
	case OperationTitleGeneration, OperationAIRevision:
		return QualityGood
	default:
		return QualityBasic
	}
}

// MaxLatencyMs is the latency ceiling applied when PrefersSpeed is true.
func (op KmOperation) MaxLatencyMs() int {
	switch op {
	case OperationTitleGeneration:
		return 500
	case OperationEmbedding:
		return 200
	default:
		return 2000
	}
}

// PrefersSpeed reports whether op is latency-sensitive by default (spec
// §4.12: titles and embeddings run inline with a save, revisions run as
// background jobs).
func (op KmOperation) PrefersSpeed() bool {
	switch op {
	case OperationTitleGeneration, OperationEmbedding:
		return true
	default:
		return false
	}
}

// ModelSelection is the result of selecting a model for one operation.
type ModelSelection struct {
	Model             string
	Operation         KmOperation
	QualityTier       QualityTier
	ExpectedLatencyMs int
	Rationale         string
	Alternatives      []string
}

// RecommendedConfig is the overall configuration suggestion for an
// archive, covering the three operations matric runs routinely.
type RecommendedConfig struct {
	EmbeddingModel      string
	GenerationModel     string
	FastGenerationModel string
	HardwareTier        HardwareTier
}

// ToEnvConfig renders cfg as the MATRIC_*_MODEL environment assignments
// the operator would place in their deployment config.
func (cfg RecommendedConfig) ToEnvConfig() map[string]string {
	return map[string]string{
		"MATRIC_EMBED_MODEL":    cfg.EmbeddingModel,
		"MATRIC_GEN_MODEL":      cfg.GenerationModel,
		"MATRIC_FAST_GEN_MODEL": cfg.FastGenerationModel,
	}
}

// ModelSelector picks the best known model for a given operation out of
// the models discovered on an Ollama instance (or any caller-supplied
// candidate set), falling back to the hardware tier's conservative
// recommendation when nothing qualifies.
type ModelSelector struct {
	capabilities map[string]ModelCapabilities
	hardwareTier HardwareTier
	preferSpeed  bool
}

// NewModelSelector returns a selector preloaded with the fixed known-model
// capability matrix, for the given hardware tier.
func NewModelSelector(tier HardwareTier) *ModelSelector {
	s := &ModelSelector{
		capabilities: make(map[string]ModelCapabilities, len(knownModelCapabilities)),
		hardwareTier: tier,
	}
	for name, caps := range knownModelCapabilities {
		s.capabilities[name] = caps
	}
	return s
}

// WithSpeedPreference enables the latency-cutoff selection path.
func (s *ModelSelector) WithSpeedPreference(prefer bool) *ModelSelector {
	s.preferSpeed = prefer
	return s
}

// AddModel registers or overwrites a model's capability matrix, e.g. for a
// model discovered on the Ollama instance but absent from the known table.
func (s *ModelSelector) AddModel(caps ModelCapabilities) {
	s.capabilities[caps.ModelName] = caps
}

type candidate struct {
	name  string
	caps  ModelCapabilities
	tier  QualityTier
	rating CapabilityRating
	hasRating bool
}

// Select returns the best model for op among registered candidates, or the
// hardware tier's fallback recommendation if none qualify.
func (s *ModelSelector) Select(op KmOperation) ModelSelection {
	required := op.RequiredCapabilities()
	minTier := op.MinQualityTier()
	primary := op.primaryCapability()

	var candidates []candidate
	for name, caps := range s.capabilities {
		if op == OperationEmbedding && !caps.IsEmbeddingModel {
			continue
		}
		if op != OperationEmbedding && caps.IsEmbeddingModel {
			continue
		}
		if !caps.HasCapabilities(required, minTier) {
			continue
		}
		rating, hasRating := caps.RatingFor(primary)
		candidates = append(candidates, candidate{name: name, caps: caps, tier: caps.TierFor(primary), rating: rating, hasRating: hasRating})
	}

	if s.preferSpeed {
		maxLatency := op.MaxLatencyMs()
		filtered := candidates[:0:0]
		for _, c := range candidates {
			if fr, ok := c.caps.RatingFor(CapabilityFastInference); ok && fr.LatencyP95Ms > 0 && fr.LatencyP95Ms <= maxLatency {
				filtered = append(filtered, c)
			}
		}
		candidates = filtered
		sort.SliceStable(candidates, func(i, j int) bool {
			li, _ := candidates[i].caps.RatingFor(CapabilityFastInference)
			lj, _ := candidates[j].caps.RatingFor(CapabilityFastInference)
			return li.LatencyP95Ms < lj.LatencyP95Ms
		})
	} else {
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].tier != candidates[j].tier {
				return candidates[i].tier > candidates[j].tier
			}
			li, iok := candidates[i].caps.RatingFor(CapabilityFastInference)
			lj, jok := candidates[j].caps.RatingFor(CapabilityFastInference)
			if iok && jok {
				return li.LatencyP95Ms < lj.LatencyP95Ms
			}
			return iok
		})
	}

	if len(candidates) == 0 {
		return s.fallbackSelection(op)
	}

	best := candidates[0]
	alternatives := make([]string, 0, len(candidates)-1)
	for _, c := range candidates[1:] {
		alternatives = append(alternatives, c.name)
	}

	latency := 0
	if fr, ok := best.caps.RatingFor(CapabilityFastInference); ok {
		latency = fr.LatencyP95Ms
	}

	return ModelSelection{
		Model:             best.name,
		Operation:         op,
		QualityTier:       best.tier,
		ExpectedLatencyMs: latency,
		Rationale:         "selected from discovered models by " + string(primary) + " tier",
		Alternatives:      alternatives,
	}
}

// fallbackSelection is used when no discovered model meets an operation's
// minimum bar; it falls back to the conservative hardware-tier table
// rather than returning nothing.
func (s *ModelSelector) fallbackSelection(op KmOperation) ModelSelection {
	fallback := tierFallbackModels[s.hardwareTier]
	model := fallback.generation
	switch op {
	case OperationEmbedding:
		model = fallback.embedding
	case OperationTitleGeneration:
		if s.preferSpeed {
			model = fallback.fastGeneration
		}
	}
	return ModelSelection{
		Model:       model,
		Operation:   op,
		QualityTier: QualityBasic,
		Rationale:   "no discovered model met the minimum bar; using the " + s.hardwareTier.String() + " hardware tier's default",
	}
}

// SelectAll selects a model for every known operation.
func (s *ModelSelector) SelectAll() map[KmOperation]ModelSelection {
	ops := []KmOperation{
		OperationTitleGeneration,
		OperationAIRevision,
		OperationEmbedding,
		OperationSemanticLinking,
		OperationContextGeneration,
	}
	out := make(map[KmOperation]ModelSelection, len(ops))
	for _, op := range ops {
		out[op] = s.Select(op)
	}
	return out
}

// RecommendedConfig builds the overall embedding/generation/fast-generation
// recommendation matric would apply to a new archive.
func (s *ModelSelector) RecommendedConfig() RecommendedConfig {
	embedding := s.Select(OperationEmbedding)
	revision := s.Select(OperationAIRevision)
	fastTitle := s.WithSpeedPreference(true).Select(OperationTitleGeneration)
	s.preferSpeed = false

	cfg := RecommendedConfig{
		EmbeddingModel:      embedding.Model,
		GenerationModel:     revision.Model,
		FastGenerationModel: fastTitle.Model,
		HardwareTier:        s.hardwareTier,
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "nomic-embed-text"
	}
	if cfg.GenerationModel == "" {
		cfg.GenerationModel = "qwen2.5:14b"
	}
	if cfg.FastGenerationModel == "" {
		cfg.FastGenerationModel = cfg.GenerationModel
	}
	return cfg
}
