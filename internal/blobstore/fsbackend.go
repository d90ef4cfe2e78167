package blobstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fortemi/matric/internal/matricerr"
)

// FilesystemBackend stores blobs as ordinary files under Root, sharded two
// levels deep by the caller-supplied relative path (blobs/xx/yy/<uuid>.bin).
type FilesystemBackend struct {
	Root string
}

// NewFilesystemBackend returns a backend rooted at root. The root directory
// is created on first write if it does not already exist.
func NewFilesystemBackend(root string) *FilesystemBackend {
	return &FilesystemBackend{Root: root}
}

func (f *FilesystemBackend) abs(path string) string {
	return filepath.Join(f.Root, filepath.FromSlash(path))
}

// Write atomically stores data at path: write to a temp file in the same
// directory, fsync, then rename over the final path. Permissions are 0644
// (no execute, world-readable) per the spec's write contract.
func (f *FilesystemBackend) Write(ctx context.Context, path string, data []byte) error {
	full := f.abs(path)
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return matricerr.Internalf(err, "blobstore: mkdir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return matricerr.Internalf(err, "blobstore: create temp file in %s", dir)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return matricerr.Internalf(err, "blobstore: write temp file %s", tmpName)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return matricerr.Internalf(err, "blobstore: fsync temp file %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return matricerr.Internalf(err, "blobstore: close temp file %s", tmpName)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return matricerr.Internalf(err, "blobstore: chmod %s", tmpName)
	}
	if err := os.Rename(tmpName, full); err != nil {
		return matricerr.Internalf(err, "blobstore: rename %s -> %s", tmpName, full)
	}
	return nil
}

// Read returns the bytes at path, or ErrNotFound.
func (f *FilesystemBackend) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(f.abs(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, matricerr.NotFoundf("blob not found: %s", path)
		}
		return nil, matricerr.Internalf(err, "blobstore: read %s", path)
	}
	return data, nil
}

// Delete removes path. A missing path is not an error.
func (f *FilesystemBackend) Delete(ctx context.Context, path string) error {
	if err := os.Remove(f.abs(path)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return matricerr.Internalf(err, "blobstore: delete %s", path)
	}
	return nil
}

// Exists reports whether path currently holds data.
func (f *FilesystemBackend) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(f.abs(path))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, matricerr.Internalf(err, "blobstore: stat %s", path)
}

// Validate runs the generic round-trip self-check under a hidden path,
// failing fast on permission or filesystem-semantics quirks at start-up.
func (f *FilesystemBackend) Validate(ctx context.Context) error {
	if err := os.MkdirAll(f.Root, 0o755); err != nil {
		return fmt.Errorf("blobstore: create root %s: %w", f.Root, err)
	}
	return RoundTripValidate(ctx, f)
}

var _ Backend = (*FilesystemBackend)(nil)
