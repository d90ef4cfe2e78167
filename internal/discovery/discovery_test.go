package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierFromScoreBoundaries(t *testing.T) {
	assert.Equal(t, QualityElite, TierFromScore(95))
	assert.Equal(t, QualityExcellent, TierFromScore(94.9))
	assert.Equal(t, QualityExcellent, TierFromScore(90))
	assert.Equal(t, QualityGood, TierFromScore(89.9))
	assert.Equal(t, QualityGood, TierFromScore(80))
	assert.Equal(t, QualityBasic, TierFromScore(79.9))
	assert.Equal(t, QualityBasic, TierFromScore(70))
	assert.Equal(t, QualityUnsuitable, TierFromScore(69.9))
}

func TestQualityTierOrdering(t *testing.T) {
	assert.True(t, QualityElite > QualityExcellent)
	assert.True(t, QualityExcellent > QualityGood)
	assert.True(t, QualityGood > QualityBasic)
	assert.True(t, QualityBasic > QualityUnsuitable)
}

func TestModelCapabilitiesTierForUnratedReturnsUnsuitable(t *testing.T) {
	m := ModelCapabilities{ModelName: "unrated"}
	assert.Equal(t, QualityUnsuitable, m.TierFor(CapabilityEmbedding))
}

func TestModelCapabilitiesHasCapabilitiesRequiresAll(t *testing.T) {
	caps, ok := KnownModelCapabilities("qwen2.5:14b")
	require.True(t, ok)
	assert.True(t, caps.HasCapabilities([]Capability{CapabilityTitleGeneration, CapabilityFormatCompliance}, QualityGood))
	assert.False(t, caps.HasCapabilities([]Capability{CapabilityEmbedding}, QualityGood))
}

func TestKnownModelCapabilitiesUnknownModelReturnsFalse(t *testing.T) {
	_, ok := KnownModelCapabilities("does-not-exist:latest")
	assert.False(t, ok)
}

func TestKnownModelCapabilitiesEmbeddingModelsFlaggedCorrectly(t *testing.T) {
	for _, name := range []string{"nomic-embed-text", "mxbai-embed-large"} {
		caps, ok := KnownModelCapabilities(name)
		require.True(t, ok)
		assert.True(t, caps.IsEmbeddingModel)
	}
}

func TestDeepseekR1FlaggedSlowByLatency(t *testing.T) {
	caps, ok := KnownModelCapabilities("deepseek-r1:14b")
	require.True(t, ok)
	assert.False(t, caps.IsFastEnough(2000))
}

func TestDeepseekCoderNotGoodForTitles(t *testing.T) {
	caps, ok := KnownModelCapabilities("deepseek-coder-v2:16b")
	require.True(t, ok)
	assert.False(t, caps.IsGoodForTitles())
}

func TestIsLikelyEmbeddingMatchesKnownMarkers(t *testing.T) {
	assert.True(t, IsLikelyEmbedding("nomic-embed-text"))
	assert.True(t, IsLikelyEmbedding("BGE-large-en"))
	assert.False(t, IsLikelyEmbedding("qwen2.5:14b"))
}

func TestOperationRequiredCapabilities(t *testing.T) {
	assert.Contains(t, OperationEmbedding.RequiredCapabilities(), Capability(CapabilityEmbedding))
	assert.Contains(t, OperationTitleGeneration.RequiredCapabilities(), Capability(CapabilityTitleGeneration))
}

func TestOperationPrefersSpeed(t *testing.T) {
	assert.True(t, OperationTitleGeneration.PrefersSpeed())
	assert.True(t, OperationEmbedding.PrefersSpeed())
	assert.False(t, OperationAIRevision.PrefersSpeed())
}

func TestModelSelectorSelectEmbeddingPrefersKnownEmbeddingModel(t *testing.T) {
	sel := NewModelSelector(HardwarePerformance)
	choice := sel.Select(OperationEmbedding)
	assert.Contains(t, []string{"nomic-embed-text", "mxbai-embed-large"}, choice.Model)
}

func TestModelSelectorSelectTitleGenerationPicksHighTierModel(t *testing.T) {
	sel := NewModelSelector(HardwarePerformance)
	choice := sel.Select(OperationTitleGeneration)
	assert.NotEmpty(t, choice.Model)
	assert.GreaterOrEqual(t, choice.QualityTier, QualityGood)
}

func TestModelSelectorSpeedPreferenceExcludesSlowModels(t *testing.T) {
	sel := NewModelSelector(HardwarePerformance).WithSpeedPreference(true)
	choice := sel.Select(OperationTitleGeneration)
	assert.NotEqual(t, "deepseek-r1:14b", choice.Model)
	assert.NotEqual(t, "gpt-oss:20b", choice.Model)
}

func TestModelSelectorSelectAllCoversEveryOperation(t *testing.T) {
	sel := NewModelSelector(HardwareMainstream)
	all := sel.SelectAll()
	assert.Len(t, all, 5)
	for _, op := range []KmOperation{OperationTitleGeneration, OperationAIRevision, OperationEmbedding, OperationSemanticLinking, OperationContextGeneration} {
		_, ok := all[op]
		assert.True(t, ok, "missing selection for %s", op)
	}
}

func TestModelSelectorRecommendedConfigNeverEmpty(t *testing.T) {
	sel := NewModelSelector(HardwareBudget)
	cfg := sel.RecommendedConfig()
	assert.NotEmpty(t, cfg.EmbeddingModel)
	assert.NotEmpty(t, cfg.GenerationModel)
	assert.NotEmpty(t, cfg.FastGenerationModel)
}

func TestModelSelectorFallsBackToHardwareTierWhenNoCandidatesQualify(t *testing.T) {
	sel := &ModelSelector{capabilities: map[string]ModelCapabilities{}, hardwareTier: HardwareProfessional}
	choice := sel.Select(OperationEmbedding)
	assert.Equal(t, "mxbai-embed-large", choice.Model)
	assert.Equal(t, QualityBasic, choice.QualityTier)
}

func TestRecommendedConfigToEnvConfig(t *testing.T) {
	cfg := RecommendedConfig{EmbeddingModel: "nomic-embed-text", GenerationModel: "qwen2.5:14b", FastGenerationModel: "llama3.1:8b"}
	env := cfg.ToEnvConfig()
	assert.Equal(t, "nomic-embed-text", env["MATRIC_EMBED_MODEL"])
	assert.Equal(t, "qwen2.5:14b", env["MATRIC_GEN_MODEL"])
	assert.Equal(t, "llama3.1:8b", env["MATRIC_FAST_GEN_MODEL"])
}

func TestHardwareTierString(t *testing.T) {
	assert.Equal(t, "budget", HardwareBudget.String())
	assert.Equal(t, "professional", HardwareProfessional.String())
}

func TestDiscoveredModelSizeHuman(t *testing.T) {
	m := DiscoveredModel{SizeBytes: 4_300_000_000}
	assert.Contains(t, m.SizeHuman(), "GB")
}

func TestDiscoveryResultSummary(t *testing.T) {
	r := DiscoveryResult{
		Models:           []DiscoveredModel{{Name: "a"}, {Name: "b"}, {Name: "c"}},
		EmbeddingModels:  []DiscoveredModel{{Name: "a"}},
		GenerationModels: []DiscoveredModel{{Name: "b"}, {Name: "c"}},
	}
	assert.Equal(t, "3 models found (1 embedding, 2 generation)", r.Summary())
	assert.True(t, r.HasModels())
}

func TestDiscoveryResultHasModelsFalseWhenEmpty(t *testing.T) {
	var r DiscoveryResult
	assert.False(t, r.HasModels())
}
