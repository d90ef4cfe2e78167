package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortemi/matric/internal/matricerr"
)

func TestFilesystemBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := NewFilesystemBackend(t.TempDir())

	path := "blobs/ab/cd/test.bin"
	require.NoError(t, b.Write(ctx, path, []byte("hello")))

	got, err := b.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	exists, err := b.Exists(ctx, path)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, b.Delete(ctx, path))

	exists, err = b.Exists(ctx, path)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFilesystemBackendReadMissing(t *testing.T) {
	b := NewFilesystemBackend(t.TempDir())
	_, err := b.Read(context.Background(), "blobs/00/00/missing.bin")
	assert.True(t, matricerr.Is(err, matricerr.KindNotFound))
}

func TestFilesystemBackendValidate(t *testing.T) {
	b := NewFilesystemBackend(t.TempDir())
	assert.NoError(t, b.Validate(context.Background()))
}

func TestFilesystemBackendWriteOverwritesAtomically(t *testing.T) {
	ctx := context.Background()
	b := NewFilesystemBackend(t.TempDir())
	path := "blobs/ab/cd/overwrite.bin"

	require.NoError(t, b.Write(ctx, path, []byte("v1")))
	require.NoError(t, b.Write(ctx, path, []byte("v2-longer")))

	got, err := b.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2-longer"), got)
}
