package matricid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsV7(t *testing.T) {
	id := New()
	assert.Equal(t, uint8(7), id.Version())
}

func TestBlobPathShape(t *testing.T) {
	id := New()
	path := BlobPath(id)

	assert.Contains(t, path, "blobs/")
	assert.Contains(t, path, id.String())
	assert.True(t, len(path) > len("blobs//.bin"))
}

func TestBlobPathIsDeterministicPerID(t *testing.T) {
	id := New()
	assert.Equal(t, BlobPath(id), BlobPath(id))
}
