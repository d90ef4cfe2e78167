package blobstore

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fortemi/matric/internal/matricerr"
)

// DatabaseBackend stores blob bytes inline in the attachment_blob_data
// table of the default namespace, for small blobs below
// FILE_INLINE_THRESHOLD where a filesystem/S3 round-trip isn't worth it.
type DatabaseBackend struct {
	pool *pgxpool.Pool
}

// NewDatabaseBackend wraps an existing pool. The backend writes to the
// global attachment_blob_data table, keyed by the same relative path the
// other backends use (here, the blob's UUID string).
func NewDatabaseBackend(pool *pgxpool.Pool) *DatabaseBackend {
	return &DatabaseBackend{pool: pool}
}

func (d *DatabaseBackend) Write(ctx context.Context, path string, data []byte) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO attachment_blob_data (path, data)
		VALUES ($1, $2)
		ON CONFLICT (path) DO UPDATE SET data = EXCLUDED.data
	`, path, data)
	if err != nil {
		return matricerr.Databasef(err, "blobstore: db write %s", path)
	}
	return nil
}

func (d *DatabaseBackend) Read(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	err := d.pool.QueryRow(ctx, `SELECT data FROM attachment_blob_data WHERE path = $1`, path).Scan(&data)
	if err != nil {
		return nil, matricerr.NotFoundf("blob not found: %s", path)
	}
	return data, nil
}

func (d *DatabaseBackend) Delete(ctx context.Context, path string) error {
	_, err := d.pool.Exec(ctx, `DELETE FROM attachment_blob_data WHERE path = $1`, path)
	if err != nil {
		return matricerr.Databasef(err, "blobstore: db delete %s", path)
	}
	return nil
}

func (d *DatabaseBackend) Exists(ctx context.Context, path string) (bool, error) {
	var exists bool
	err := d.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM attachment_blob_data WHERE path = $1)`, path).Scan(&exists)
	if err != nil {
		return false, matricerr.Databasef(err, "blobstore: db exists %s", path)
	}
	return exists, nil
}

func (d *DatabaseBackend) Validate(ctx context.Context) error {
	return RoundTripValidate(ctx, d)
}

var _ Backend = (*DatabaseBackend)(nil)
