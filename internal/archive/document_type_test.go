package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitleCaseFromSlugHyphenated(t *testing.T) {
	assert.Equal(t, "My Doc Type", titleCaseFromSlug("my-doc-type"))
}

func TestTitleCaseFromSlugUnderscored(t *testing.T) {
	assert.Equal(t, "Plain Text", titleCaseFromSlug("plain_text"))
}

func TestTitleCaseFromSlugSingleWord(t *testing.T) {
	assert.Equal(t, "Markdown", titleCaseFromSlug("markdown"))
}

func TestScoreMagicPatternsCountsMatches(t *testing.T) {
	assert.Equal(t, 2, scoreMagicPatterns([]string{"#!/bin/", "def ", "class "}, "#!/bin/bash\ndef run():\n"))
}

func TestScoreMagicPatternsNoMatches(t *testing.T) {
	assert.Equal(t, 0, scoreMagicPatterns([]string{"xyz"}, "hello world"))
}
