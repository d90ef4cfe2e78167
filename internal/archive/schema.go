// Package archive implements the C4 archive data plane: schema-scoped
// transactional execution and the repository façades layered on top of it.
// Every tenant-facing operation runs inside a SchemaContext bound to one
// archive's Postgres schema; the schema context is the ONLY way to touch
// archive-scoped tables, so cross-tenant joins are structurally impossible.
package archive

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fortemi/matric/internal/matricerr"
	"github.com/fortemi/matric/internal/matriclog"
)

// validSchemaName matches the DNS-safe archive-name token the spec requires;
// the schema name is derived from it 1:1.
var validSchemaName = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// Queryer is the pgx.Tx subset repositories depend on; every repository
// method takes one explicitly so it can run standalone (given a Tx from
// SchemaContext.Execute/Query) or be composed into a larger transaction.
type Queryer = pgx.Tx

// SchemaContext binds a connection pool to one archive's namespace. Every
// transaction opened through it sets search_path to "<schema>, public"
// before the caller's function runs, so unqualified table references
// resolve inside the tenant and nowhere else.
type SchemaContext struct {
	pool   *pgxpool.Pool
	schema string
	log    *matriclog.Context
}

// NewSchemaContext validates name and returns a context bound to its
// derived schema. It does not touch the network.
func NewSchemaContext(pool *pgxpool.Pool, archiveName string, log *matriclog.Context) (*SchemaContext, error) {
	if !validSchemaName.MatchString(archiveName) {
		return nil, matricerr.InvalidInputf("invalid archive name: %q", archiveName)
	}
	return &SchemaContext{
		pool:   pool,
		schema: "archive_" + archiveName,
		log:    log.WithArchive(archiveName),
	}, nil
}

// Schema returns the derived, immutable schema name for this archive.
func (s *SchemaContext) Schema() string { return s.schema }

// Execute runs fn inside a read-write transaction scoped to this archive's
// schema. The transaction commits on nil return and rolls back otherwise;
// no half-state is ever visible to other callers.
func (s *SchemaContext) Execute(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return s.runTx(ctx, pgx.ReadWrite, fn)
}

// Query runs fn inside a read-only transaction scoped to this archive's
// schema. Using a transaction (rather than a bare connection) still lets
// the search_path be set per-call without mutating pool-wide state.
func (s *SchemaContext) Query(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return s.runTx(ctx, pgx.ReadOnly, fn)
}

func (s *SchemaContext) runTx(ctx context.Context, mode pgx.TxAccessMode, fn func(ctx context.Context, tx pgx.Tx) error) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return matricerr.Databasef(err, "archive %s: acquire connection", s.schema)
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{AccessMode: mode})
	if err != nil {
		return matricerr.Databasef(err, "archive %s: begin transaction", s.schema)
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf(`SET LOCAL search_path TO "%s", public`, s.schema)); err != nil {
		_ = tx.Rollback(ctx)
		return matricerr.Databasef(err, "archive %s: set search_path", s.schema)
	}

	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return matricerr.Databasef(err, "archive %s: commit transaction", s.schema)
	}
	return nil
}

// CreateNamespace provisions the schema for a brand-new archive and seeds
// its default embedding set. Administrative-only: never reachable through
// the tenant-facing SchemaContext methods above.
func CreateNamespace(ctx context.Context, pool *pgxpool.Pool, archiveName string, defaultEmbeddingDimension int) error {
	if !validSchemaName.MatchString(archiveName) {
		return matricerr.InvalidInputf("invalid archive name: %q", archiveName)
	}
	schema := "archive_" + archiveName

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return matricerr.Databasef(err, "create namespace %s: acquire connection", schema)
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return matricerr.Databasef(err, "create namespace %s: begin transaction", schema)
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, schema)); err != nil {
		_ = tx.Rollback(ctx)
		return matricerr.Databasef(err, "create namespace %s", schema)
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf(`SET LOCAL search_path TO "%s", public`, schema)); err != nil {
		_ = tx.Rollback(ctx)
		return matricerr.Databasef(err, "create namespace %s: set search_path", schema)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO embedding_set (slug, dimension, model_name, is_default, is_system, is_active)
		VALUES ('default', $1, 'default', true, true, true)
		ON CONFLICT DO NOTHING
	`, defaultEmbeddingDimension); err != nil {
		_ = tx.Rollback(ctx)
		return matricerr.Databasef(err, "create namespace %s: seed default embedding set", schema)
	}

	if err := tx.Commit(ctx); err != nil {
		return matricerr.Databasef(err, "create namespace %s: commit transaction", schema)
	}
	return nil
}

// DropNamespace atomically removes an archive's entire namespace.
func DropNamespace(ctx context.Context, pool *pgxpool.Pool, archiveName string) error {
	if !validSchemaName.MatchString(archiveName) {
		return matricerr.InvalidInputf("invalid archive name: %q", archiveName)
	}
	schema := "archive_" + archiveName
	_, err := pool.Exec(ctx, fmt.Sprintf(`DROP SCHEMA IF EXISTS "%s" CASCADE`, schema))
	if err != nil {
		return matricerr.Databasef(err, "drop namespace %s", schema)
	}
	return nil
}
