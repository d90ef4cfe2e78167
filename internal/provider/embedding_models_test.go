package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestE5IsAsymmetricWithQueryAndPassagePrefixes(t *testing.T) {
	p := EmbeddingProfileFor("e5-base-v2")
	assert.True(t, p.IsAsymmetric())
	assert.Equal(t, "query: What is Rust?", p.PrefixQuery("What is Rust?"))
	assert.Equal(t, "passage: Rust is a language.", p.PrefixPassage("Rust is a language."))
}

func TestNomicIsSymmetricNoPrefix(t *testing.T) {
	p := EmbeddingProfileFor("nomic-embed-text")
	assert.False(t, p.IsAsymmetric())
	assert.Equal(t, "hello", p.PrefixQuery("hello"))
	assert.Equal(t, "hello", p.PrefixPassage("hello"))
}

func TestBGEOnlyPrefixesQueries(t *testing.T) {
	p := EmbeddingProfileFor("bge-base-en-v1.5")
	assert.True(t, p.IsAsymmetric())
	assert.NotEmpty(t, p.QueryPrefix)
	assert.Empty(t, p.PassagePrefix)
	assert.Equal(t, "x", p.PrefixPassage("x"))
}

func TestEmbeddingProfileForStripsOllamaTagSuffix(t *testing.T) {
	p := EmbeddingProfileFor("nomic-embed-text:latest")
	assert.Equal(t, "nomic-embed-text", p.Name)
	assert.False(t, p.IsAsymmetric())
}

func TestEmbeddingProfileForUnknownModelDefaultsSymmetric768(t *testing.T) {
	p := EmbeddingProfileFor("some-custom-model")
	assert.False(t, p.IsAsymmetric())
	assert.Equal(t, 768, p.Dimension)
}

func TestPrefixBatchesPreserveOrder(t *testing.T) {
	p := EmbeddingProfileFor("e5-base-v2")
	queries := p.PrefixQueries([]string{"Q1", "Q2"})
	assert.Equal(t, []string{"query: Q1", "query: Q2"}, queries)
	passages := p.PrefixPassages([]string{"P1", "P2"})
	assert.Equal(t, []string{"passage: P1", "passage: P2"}, passages)
}
