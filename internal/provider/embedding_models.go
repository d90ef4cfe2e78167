package provider

import "strings"

// EmbeddingSymmetry says whether a model encodes queries and passages the
// same way.
type EmbeddingSymmetry string

const (
	// EmbeddingSymmetric models use the same encoding for queries and
	// passages (nomic-embed-text, all-minilm, mxbai-embed-large).
	EmbeddingSymmetric EmbeddingSymmetry = "symmetric"
	// EmbeddingAsymmetric models require distinct query/passage prefixes
	// for good retrieval quality (E5, BGE).
	EmbeddingAsymmetric EmbeddingSymmetry = "asymmetric"
)

// EmbeddingModelProfile describes one known embedding model: its output
// dimension and, for asymmetric families, the prefixes that must be
// prepended before encoding a query versus a passage. Mixing prefixed and
// unprefixed vectors inside one embedding set corrupts relevance.
type EmbeddingModelProfile struct {
	Name          string
	Dimension     int
	Symmetry      EmbeddingSymmetry
	QueryPrefix   string
	PassagePrefix string
	MaxTokens     int
	Family        string
	Description   string
}

// IsAsymmetric reports whether this model requires task-specific prefixes.
func (p EmbeddingModelProfile) IsAsymmetric() bool {
	return p.Symmetry == EmbeddingAsymmetric
}

// PrefixQuery applies this model's query prefix, if any.
func (p EmbeddingModelProfile) PrefixQuery(text string) string {
	if p.QueryPrefix == "" {
		return text
	}
	return p.QueryPrefix + text
}

// PrefixPassage applies this model's passage prefix, if any.
func (p EmbeddingModelProfile) PrefixPassage(text string) string {
	if p.PassagePrefix == "" {
		return text
	}
	return p.PassagePrefix + text
}

// PrefixQueries applies PrefixQuery to a batch, preserving order.
func (p EmbeddingModelProfile) PrefixQueries(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = p.PrefixQuery(t)
	}
	return out
}

// PrefixPassages applies PrefixPassage to a batch, preserving order.
func (p EmbeddingModelProfile) PrefixPassages(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = p.PrefixPassage(t)
	}
	return out
}

// knownEmbeddingModels are the profiles recognised by name (case-insensitive,
// matched against the bare model name with any provider prefix already
// stripped by Registry.ParseSlug).
var knownEmbeddingModels = map[string]EmbeddingModelProfile{
	"e5-small-v2": {
		Name: "e5-small-v2", Dimension: 384, Symmetry: EmbeddingAsymmetric,
		QueryPrefix: "query: ", PassagePrefix: "passage: ", MaxTokens: 512,
		Family: "e5", Description: "E5-small-v2: fast asymmetric embeddings (384d)",
	},
	"e5-base-v2": {
		Name: "e5-base-v2", Dimension: 768, Symmetry: EmbeddingAsymmetric,
		QueryPrefix: "query: ", PassagePrefix: "passage: ", MaxTokens: 512,
		Family: "e5", Description: "E5-base-v2: balanced asymmetric embeddings (768d)",
	},
	"e5-large-v2": {
		Name: "e5-large-v2", Dimension: 1024, Symmetry: EmbeddingAsymmetric,
		QueryPrefix: "query: ", PassagePrefix: "passage: ", MaxTokens: 512,
		Family: "e5", Description: "E5-large-v2: high-quality asymmetric embeddings (1024d)",
	},
	"multilingual-e5-base": {
		Name: "multilingual-e5-base", Dimension: 768, Symmetry: EmbeddingAsymmetric,
		QueryPrefix: "query: ", PassagePrefix: "passage: ", MaxTokens: 512,
		Family: "e5", Description: "Multilingual E5-base: 100+ languages (768d)",
	},
	"nomic-embed-text": {
		Name: "nomic-embed-text", Dimension: 768, Symmetry: EmbeddingSymmetric,
		MaxTokens: 8192, Family: "nomic",
		Description: "Nomic Embed Text: long-context symmetric embeddings (768d)",
	},
	"bge-base-en-v1.5": {
		Name: "bge-base-en-v1.5", Dimension: 768, Symmetry: EmbeddingAsymmetric,
		QueryPrefix: "Represent this sentence for searching relevant passages: ",
		MaxTokens:   512, Family: "bge", Description: "BGE-base: BAAI general embedding (768d)",
	},
	"bge-large-en-v1.5": {
		Name: "bge-large-en-v1.5", Dimension: 1024, Symmetry: EmbeddingAsymmetric,
		QueryPrefix: "Represent this sentence for searching relevant passages: ",
		MaxTokens:   512, Family: "bge", Description: "BGE-large: high-quality BAAI embedding (1024d)",
	},
	"mxbai-embed-large": {
		Name: "mxbai-embed-large", Dimension: 1024, Symmetry: EmbeddingSymmetric,
		MaxTokens: 512, Family: "mxbai",
		Description: "MxBAI Embed Large: high-quality symmetric embeddings (1024d)",
	},
	"all-minilm": {
		Name: "all-minilm", Dimension: 384, Symmetry: EmbeddingSymmetric,
		MaxTokens: 256, Family: "minilm",
		Description: "all-MiniLM: fast lightweight embeddings (384d)",
	},
}

// EmbeddingProfileFor looks up a known profile by bare model name
// (case-insensitive, ignoring any ":tag" suffix as used by Ollama model
// references). Unknown models fall back to a safe symmetric 768d default
// rather than failing the search path outright.
func EmbeddingProfileFor(modelName string) EmbeddingModelProfile {
	key := strings.ToLower(modelName)
	if idx := strings.IndexByte(key, ':'); idx >= 0 {
		key = key[:idx]
	}
	if profile, ok := knownEmbeddingModels[key]; ok {
		return profile
	}
	return EmbeddingModelProfile{
		Name: modelName, Dimension: 768, Symmetry: EmbeddingSymmetric,
		MaxTokens: 512, Family: "unknown",
		Description: "unknown model: assuming symmetric 768d",
	}
}
