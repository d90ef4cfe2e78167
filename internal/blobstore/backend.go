// Package blobstore implements the C1 storage backend: atomic blob
// read/write/delete with a startup health probe. Paths are relative; each
// backend maps them onto its own physical location (local disk, an
// S3-compatible bucket, or an inline database row).
package blobstore

import (
	"context"
	"errors"

	"github.com/fortemi/matric/internal/matricerr"
)

// ErrNotFound matches, under errors.Is, the not-found error Read returns
// when path does not exist. Delete of a missing path returns nil.
var ErrNotFound = matricerr.NotFoundf("blob not found")

// Backend is the storage capability set every variant implements.
type Backend interface {
	// Write stores bytes at path, replacing any existing content atomically.
	Write(ctx context.Context, path string, data []byte) error
	// Read returns the bytes stored at path, or ErrNotFound.
	Read(ctx context.Context, path string) ([]byte, error)
	// Delete removes path. Deleting a missing path is not an error.
	Delete(ctx context.Context, path string) error
	// Exists reports whether path currently holds data.
	Exists(ctx context.Context, path string) (bool, error)
	// Validate performs a full round-trip self-check and returns a
	// descriptive error on any permission/filesystem-semantics quirk.
	Validate(ctx context.Context) error
}

// healthCheckPath is the hidden path every backend's Validate round-trips.
const healthCheckPath = ".health-check/probe.bin"

// RoundTripValidate runs the generic write/read/delete/exists sequence
// shared by every Backend implementation's Validate method.
func RoundTripValidate(ctx context.Context, b Backend) error {
	probe := []byte("matric-storage-health-check")

	if err := b.Write(ctx, healthCheckPath, probe); err != nil {
		return matricerr.Internalf(err, "storage validate: write probe failed")
	}
	got, err := b.Read(ctx, healthCheckPath)
	if err != nil {
		return matricerr.Internalf(err, "storage validate: read-back failed")
	}
	if string(got) != string(probe) {
		return matricerr.New(matricerr.KindInternal, "storage validate: read-back mismatch")
	}
	if err := b.Delete(ctx, healthCheckPath); err != nil {
		return matricerr.Internalf(err, "storage validate: cleanup failed")
	}
	exists, err := b.Exists(ctx, healthCheckPath)
	if err != nil {
		return matricerr.Internalf(err, "storage validate: exists-check failed")
	}
	if exists {
		return matricerr.New(matricerr.KindInternal, "storage validate: probe still present after delete")
	}
	return nil
}

// Kind identifies which Backend implementation a blob is stored under,
// matching the AttachmentBlob.storage_backend column.
type Kind string

const (
	KindFilesystem Kind = "filesystem"
	KindS3         Kind = "s3"
	KindDatabase   Kind = "database"
)

var errUnknownBackend = errors.New("blobstore: unknown backend kind")

// New constructs the configured Backend variant. The database and s3
// variants require their own dependencies (pgxpool.Pool, S3Config) and are
// constructed directly by the caller; New only covers the zero-dependency
// filesystem case plus dispatch validation for the others.
func New(kind Kind, root string) (Backend, error) {
	switch kind {
	case KindFilesystem, "":
		return NewFilesystemBackend(root), nil
	default:
		return nil, matricerr.Wrap(matricerr.KindConfig, errUnknownBackend, string(kind))
	}
}
