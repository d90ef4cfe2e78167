package search

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRunLexicalUnknownStrategyReturnsError exercises the exact failure
// RunLexical can produce without ever touching a database connection,
// the same failure HybridSearch's lexical leg must degrade past rather
// than abort on.
func TestRunLexicalUnknownStrategyReturnsError(t *testing.T) {
	_, err := RunLexical(context.Background(), nil, LexicalStrategy("bogus"), "query", Config{}, 10)
	assert.Error(t, err)
}

func TestSafeSnippetTruncatesAtRuneBoundary(t *testing.T) {
	content := strings.Repeat("λ", 300) // 2-byte-in-UTF8 rune, would split mid-codepoint if byte-sliced
	snippet := safeSnippet(content)
	assert.Equal(t, snippetLength, len([]rune(snippet)))
	assert.True(t, strings.HasPrefix(content, snippet))
}

func TestSafeSnippetShorterThanLimitReturnsUnchanged(t *testing.T) {
	content := "short content"
	assert.Equal(t, content, safeSnippet(content))
}

func TestEscapeLikeEscapesMetacharacters(t *testing.T) {
	assert.Equal(t, `100\% done`, escapeLike("100% done"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `a\\b`, escapeLike(`a\b`))
}

func TestFilterOrTrueDefaultsEmptyToTrue(t *testing.T) {
	assert.Equal(t, "TRUE", filterOrTrue(""))
	assert.Equal(t, "n.archived = false", filterOrTrue("n.archived = false"))
}

func TestPlaceholderFormatsPositiveIndex(t *testing.T) {
	assert.Equal(t, "5", placeholder(5))
}
