package versioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSnapshotTagsParsesFrontMatter(t *testing.T) {
	content := "---\ntitle: hello\nsnapshot_tags: [\"a\",\"b\"]\n---\nactual body\n"
	body, tags, ok := extractSnapshotTags(content)
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, tags)
	assert.Equal(t, "actual body\n", body)
}

func TestExtractSnapshotTagsNoFrontMatterReturnsUnchanged(t *testing.T) {
	content := "no front matter here\n"
	body, tags, ok := extractSnapshotTags(content)
	assert.False(t, ok)
	assert.Nil(t, tags)
	assert.Equal(t, content, body)
}

func TestExtractSnapshotTagsFrontMatterWithoutSnapshotTagsField(t *testing.T) {
	content := "---\ntitle: hello\n---\nbody text\n"
	body, tags, ok := extractSnapshotTags(content)
	assert.False(t, ok)
	assert.Nil(t, tags)
	assert.Equal(t, "body text\n", body)
}

func TestExtractSnapshotTagsUnterminatedFrontMatterReturnsUnchanged(t *testing.T) {
	content := "---\ntitle: hello\nno closing delimiter"
	body, _, ok := extractSnapshotTags(content)
	assert.False(t, ok)
	assert.Equal(t, content, body)
}

func TestContentHashIsStableAndChangesWithContent(t *testing.T) {
	h1 := contentHash("hello")
	h2 := contentHash("hello")
	h3 := contentHash("world")
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 32) // hex-encoded MD5 digest
}

func TestVersionLabelFormatsVersionNumber(t *testing.T) {
	assert.Equal(t, "version 3", versionLabel(3))
}
