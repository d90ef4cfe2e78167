// Package discovery implements the C12 model discovery and selection
// engine of spec §4.12: a fixed capability matrix for known models, a
// quality-tier scoring scheme, and task-based model selection against a
// caller-supplied hardware tier.
package discovery

import "strings"

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Capability is a knowledge-management-specific model capability (spec
// §4.12), distinct from general-purpose LLM benchmarks.
type Capability string

const (
	CapabilityEmbedding             Capability = "embedding"
	CapabilityTitleGeneration       Capability = "title_generation"
	CapabilityContentRevision       Capability = "content_revision"
	CapabilitySemanticUnderstanding Capability = "semantic_understanding"
	CapabilityFormatCompliance      Capability = "format_compliance"
	CapabilityFastInference         Capability = "fast_inference"
	CapabilityLongContext           Capability = "long_context"
)

// QualityTier buckets a 0-100 capability score (spec §4.12: Unsuitable<70,
// Basic 70-79, Good 80-89, Excellent 90-94, Elite 95+). Ordered so that
// a > b means a is the higher tier.
type QualityTier int

const (
	QualityUnsuitable QualityTier = iota
	QualityBasic
	QualityGood
	QualityExcellent
	QualityElite
)

// TierFromScore converts a percentage score into its quality tier.
func TierFromScore(score float64) QualityTier {
	switch {
	case score >= 95:
		return QualityElite
	case score >= 90:
		return QualityExcellent
	case score >= 80:
		return QualityGood
	case score >= 70:
		return QualityBasic
	default:
		return QualityUnsuitable
	}
}

// MinScore returns the lower bound of t's percentage range.
func (t QualityTier) MinScore() float64 {
	switch t {
	case QualityElite:
		return 95
	case QualityExcellent:
		return 90
	case QualityGood:
		return 80
	case QualityBasic:
		return 70
	default:
		return 0
	}
}

func (t QualityTier) String() string {
	switch t {
	case QualityElite:
		return "elite"
	case QualityExcellent:
		return "excellent"
	case QualityGood:
		return "good"
	case QualityBasic:
		return "basic"
	default:
		return "unsuitable"
	}
}

// CapabilityRating is a model's measured or estimated performance on one
// capability.
type CapabilityRating struct {
	Capability Capability
	Tier       QualityTier
	Score      float64 // 0-100
	// LatencyP95Ms is the measured p95 token-stream latency; relevant only
	// to CapabilityFastInference.
	LatencyP95Ms int
	// MeasuredTokensPerSecond records a throughput figure for
	// FastInference ratings alongside LatencyP95Ms. It is informational:
	// IsFastEnough and ModelSelector filter and rank on latency alone.
	MeasuredTokensPerSecond float64
	Notes                   string
}

func ratingFromScore(cap Capability, score float64) CapabilityRating {
	return CapabilityRating{Capability: cap, Tier: TierFromScore(score), Score: score}
}

// ModelCapabilities is the full capability matrix for one model.
type ModelCapabilities struct {
	ModelName        string
	Ratings          []CapabilityRating
	IsEmbeddingModel bool
}

// TierFor returns the rated tier for cap, or QualityUnsuitable if unrated.
func (m ModelCapabilities) TierFor(cap Capability) QualityTier {
	for _, r := range m.Ratings {
		if r.Capability == cap {
			return r.Tier
		}
	}
	return QualityUnsuitable
}

// RatingFor returns the rating for cap and whether one exists.
func (m ModelCapabilities) RatingFor(cap Capability) (CapabilityRating, bool) {
	for _, r := range m.Ratings {
		if r.Capability == cap {
			return r, true
		}
	}
	return CapabilityRating{}, false
}

// HasCapabilities reports whether every capability in required meets
// minTier.
func (m ModelCapabilities) HasCapabilities(required []Capability, minTier QualityTier) bool {
	for _, cap := range required {
		if m.TierFor(cap) < minTier {
			return false
		}
	}
	return true
}

// IsGoodForTitles mirrors the original's convenience predicate: Good+ on
// both title generation and format compliance.
func (m ModelCapabilities) IsGoodForTitles() bool {
	return m.TierFor(CapabilityTitleGeneration) >= QualityGood && m.TierFor(CapabilityFormatCompliance) >= QualityGood
}

// IsGoodForRevision mirrors the original's convenience predicate.
func (m ModelCapabilities) IsGoodForRevision() bool {
	return m.TierFor(CapabilityContentRevision) >= QualityGood
}

// IsFastEnough reports whether the model's FastInference p95 latency is at
// or below maxLatencyMs.
func (m ModelCapabilities) IsFastEnough(maxLatencyMs int) bool {
	r, ok := m.RatingFor(CapabilityFastInference)
	if !ok || r.LatencyP95Ms == 0 {
		return false
	}
	return r.LatencyP95Ms <= maxLatencyMs
}

// knownModelCapabilities is the fixed evaluation-data table (spec §4.12),
// ported from the original implementation's known-model matrix.
var knownModelCapabilities = map[string]ModelCapabilities{
	"nomic-embed-text": {
		ModelName:        "nomic-embed-text",
		IsEmbeddingModel: true,
		Ratings: []CapabilityRating{
			withLatency(ratingFromScore(CapabilityEmbedding, 90), 50),
			ratingFromScore(CapabilitySemanticUnderstanding, 90),
			withLatency(ratingFromScore(CapabilityFastInference, 95), 50),
		},
	},
	"mxbai-embed-large": {
		ModelName:        "mxbai-embed-large",
		IsEmbeddingModel: true,
		Ratings: []CapabilityRating{
			withLatency(ratingFromScore(CapabilityEmbedding, 90), 50),
			ratingFromScore(CapabilitySemanticUnderstanding, 90),
			withLatency(ratingFromScore(CapabilityFastInference, 95), 50),
		},
	},
	"qwen2.5:14b": {
		ModelName: "qwen2.5:14b",
		Ratings: []CapabilityRating{
			ratingFromScore(CapabilityTitleGeneration, 93.8),
			ratingFromScore(CapabilitySemanticUnderstanding, 91.2),
			ratingFromScore(CapabilityFormatCompliance, 100),
			ratingFromScore(CapabilityContentRevision, 92),
			withLatency(ratingFromScore(CapabilityFastInference, 85), 492),
			ratingFromScore(CapabilityLongContext, 85),
		},
	},
	"gpt-oss:20b": {
		ModelName: "gpt-oss:20b",
		Ratings: []CapabilityRating{
			ratingFromScore(CapabilityTitleGeneration, 91.1),
			ratingFromScore(CapabilitySemanticUnderstanding, 87.3),
			ratingFromScore(CapabilityFormatCompliance, 100),
			ratingFromScore(CapabilityContentRevision, 90),
			withLatency(ratingFromScore(CapabilityFastInference, 70), 1800),
			ratingFromScore(CapabilityLongContext, 95),
		},
	},
	"qwen2.5:7b": {
		ModelName: "qwen2.5:7b",
		Ratings: []CapabilityRating{
			ratingFromScore(CapabilityTitleGeneration, 88.9),
			ratingFromScore(CapabilitySemanticUnderstanding, 84.2),
			ratingFromScore(CapabilityFormatCompliance, 100),
			ratingFromScore(CapabilityContentRevision, 85),
			withLatency(ratingFromScore(CapabilityFastInference, 90), 375),
			ratingFromScore(CapabilityLongContext, 85),
		},
	},
	"llama3.1:8b": {
		ModelName: "llama3.1:8b",
		Ratings: []CapabilityRating{
			ratingFromScore(CapabilityTitleGeneration, 85.4),
			ratingFromScore(CapabilitySemanticUnderstanding, 83.4),
			ratingFromScore(CapabilityFormatCompliance, 90),
			ratingFromScore(CapabilityContentRevision, 82),
			withLatency(ratingFromScore(CapabilityFastInference, 95), 258),
			ratingFromScore(CapabilityLongContext, 95),
		},
	},
	"deepseek-r1:14b": {
		ModelName: "deepseek-r1:14b",
		Ratings: []CapabilityRating{
			ratingFromScore(CapabilityTitleGeneration, 85.4),
			ratingFromScore(CapabilitySemanticUnderstanding, 83.5),
			ratingFromScore(CapabilityFormatCompliance, 90),
			ratingFromScore(CapabilityContentRevision, 85),
			withNotes(withLatency(ratingFromScore(CapabilityFastInference, 30), 6600), "25x slower due to reasoning overhead"),
			ratingFromScore(CapabilityLongContext, 95),
		},
	},
	"deepseek-coder-v2:16b": {
		ModelName: "deepseek-coder-v2:16b",
		Ratings: []CapabilityRating{
			withNotes(ratingFromScore(CapabilityTitleGeneration, 66.1), "Optimized for code, not text generation"),
			ratingFromScore(CapabilitySemanticUnderstanding, 83.7),
			ratingFromScore(CapabilityFormatCompliance, 25),
			withLatency(ratingFromScore(CapabilityFastInference, 90), 319),
		},
	},
	"command-r7b:latest": {
		ModelName: "command-r7b:latest",
		Ratings: []CapabilityRating{
			ratingFromScore(CapabilityTitleGeneration, 86.1),
			ratingFromScore(CapabilitySemanticUnderstanding, 80.1),
			ratingFromScore(CapabilityFormatCompliance, 90),
			ratingFromScore(CapabilityContentRevision, 82),
			withLatency(ratingFromScore(CapabilityFastInference, 88), 400),
		},
	},
	"mistral:latest": {
		ModelName: "mistral:latest",
		Ratings: []CapabilityRating{
			ratingFromScore(CapabilityTitleGeneration, 66.1),
			ratingFromScore(CapabilitySemanticUnderstanding, 81.6),
			ratingFromScore(CapabilityFormatCompliance, 70),
			withLatency(ratingFromScore(CapabilityFastInference, 92), 360),
		},
	},
	"hermes3:8b": {
		ModelName: "hermes3:8b",
		Ratings: []CapabilityRating{
			ratingFromScore(CapabilityTitleGeneration, 78.2),
			ratingFromScore(CapabilitySemanticUnderstanding, 86.0),
			ratingFromScore(CapabilityFormatCompliance, 85),
			ratingFromScore(CapabilityContentRevision, 80),
			withLatency(ratingFromScore(CapabilityFastInference, 70), 1800),
		},
	},
	"granite4:3b": {
		ModelName: "granite4:3b",
		Ratings: []CapabilityRating{
			ratingFromScore(CapabilityTitleGeneration, 78.0),
			ratingFromScore(CapabilitySemanticUnderstanding, 75.0),
			ratingFromScore(CapabilityFormatCompliance, 85),
			withMeasuredThroughput(withLatency(ratingFromScore(CapabilityFastInference, 95), 180), 244),
			ratingFromScore(CapabilityLongContext, 98),
		},
	},
	"cogito:8b": {
		ModelName: "cogito:8b",
		Ratings: []CapabilityRating{
			ratingFromScore(CapabilityTitleGeneration, 85.2),
			ratingFromScore(CapabilitySemanticUnderstanding, 81.1),
			ratingFromScore(CapabilityFormatCompliance, 85),
			ratingFromScore(CapabilityContentRevision, 82),
			withLatency(ratingFromScore(CapabilityFastInference, 85), 450),
		},
	},
}

func withLatency(r CapabilityRating, latencyMs int) CapabilityRating {
	r.LatencyP95Ms = latencyMs
	return r
}

func withMeasuredThroughput(r CapabilityRating, tokensPerSecond float64) CapabilityRating {
	r.MeasuredTokensPerSecond = tokensPerSecond
	return r
}

func withNotes(r CapabilityRating, notes string) CapabilityRating {
	r.Notes = notes
	return r
}

// KnownModelCapabilities returns the fixed capability matrix for modelName,
// and false if the model is unrecognized.
func KnownModelCapabilities(modelName string) (ModelCapabilities, bool) {
	caps, ok := knownModelCapabilities[modelName]
	return caps, ok
}

// IsLikelyEmbedding makes a best-effort guess from the model name alone,
// used when discovering models the capability table doesn't recognize.
func IsLikelyEmbedding(modelName string) bool {
	for _, marker := range []string{"embed", "nomic", "mxbai", "bge"} {
		if containsFold(modelName, marker) {
			return true
		}
	}
	return false
}
