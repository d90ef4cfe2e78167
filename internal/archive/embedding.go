package archive

import (
	"context"
	"strconv"
	"strings"

	"github.com/fortemi/matric/internal/matricerr"
)

// EmbeddingSet is a named family of embeddings within an archive (spec §3
// "EmbeddingSet"). Exactly one set per archive has IsDefault set; new
// archives are seeded with one at creation (see CreateNamespace).
type EmbeddingSet struct {
	ID        string
	Slug      string
	Dimension int
	ModelName string
	IsDefault bool
	IsSystem  bool
	IsActive  bool
}

// EmbeddingSetRepository is the C4 façade over embedding_set.
type EmbeddingSetRepository struct{}

// NewEmbeddingSetRepository returns a stateless façade.
func NewEmbeddingSetRepository() *EmbeddingSetRepository { return &EmbeddingSetRepository{} }

// GetDefault returns the archive's default embedding set, the one C5
// hybrid search embeds queries against when no set is explicitly named.
func (r *EmbeddingSetRepository) GetDefault(ctx context.Context, tx Queryer) (*EmbeddingSet, error) {
	var s EmbeddingSet
	err := tx.QueryRow(ctx, `
		SELECT id, slug, dimension, model_name, is_default, is_system, is_active
		FROM embedding_set WHERE is_default = true LIMIT 1
	`).Scan(&s.ID, &s.Slug, &s.Dimension, &s.ModelName, &s.IsDefault, &s.IsSystem, &s.IsActive)
	if err != nil {
		return nil, matricerr.Databasef(err, "get default embedding set")
	}
	return &s, nil
}

// GetBySlug returns one embedding set by its archive-unique slug.
func (r *EmbeddingSetRepository) GetBySlug(ctx context.Context, tx Queryer, slug string) (*EmbeddingSet, error) {
	var s EmbeddingSet
	err := tx.QueryRow(ctx, `
		SELECT id, slug, dimension, model_name, is_default, is_system, is_active
		FROM embedding_set WHERE slug = $1
	`, slug).Scan(&s.ID, &s.Slug, &s.Dimension, &s.ModelName, &s.IsDefault, &s.IsSystem, &s.IsActive)
	if err != nil {
		return nil, matricerr.NotFoundf("embedding set not found: %s", slug)
	}
	return &s, nil
}

// Chunk is one (note, chunk-index) unit of embedded text within a set.
type Chunk struct {
	NoteID     string
	ChunkIndex int
	Text       string
	Vector     []float32
}

// vectorLiteral renders v in pgvector's text input format, e.g. "[0.1,0.2]",
// for binding as a `$n::vector` parameter. No driver in the pack ships a
// pgvector binary-codec type, so a shortest-round-trip text literal is the
// plain, dependency-free way to round-trip a vector through pgx.
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// EmbeddingRepository is the C4 façade over the embedding table.
//
// Only StoreForSet is exposed, never a set-destructive bare Store: the
// spec's open question about whether re-embedding one set may clobber
// another set's chunks is resolved in favor of the safe reading — a
// re-embed always names its set and only ever deletes that set's prior
// chunks for the note (spec §3 Embedding invariant).
type EmbeddingRepository struct{}

// NewEmbeddingRepository returns a stateless façade.
func NewEmbeddingRepository() *EmbeddingRepository { return &EmbeddingRepository{} }

// StoreForSet replaces all of a note's chunks within setID with chunks, in
// the caller's transaction. Chunks belonging to other sets are untouched.
func (r *EmbeddingRepository) StoreForSet(ctx context.Context, tx Queryer, setID, noteID string, chunks []Chunk) error {
	if _, err := tx.Exec(ctx, `DELETE FROM embedding WHERE note_id = $1 AND embedding_set_id = $2`, noteID, setID); err != nil {
		return matricerr.Databasef(err, "clear prior embeddings for note %s set %s", noteID, setID)
	}
	for _, c := range chunks {
		if _, err := tx.Exec(ctx, `
			INSERT INTO embedding (note_id, chunk_index, text, vector, embedding_set_id)
			VALUES ($1, $2, $3, $4::vector, $5)
		`, noteID, c.ChunkIndex, c.Text, vectorLiteral(c.Vector), setID); err != nil {
			return matricerr.Databasef(err, "store embedding chunk %d for note %s", c.ChunkIndex, noteID)
		}
	}
	return nil
}

// NearestNeighbor is one candidate row from SearchNearest: a note's
// closest-matching chunk to the query vector, ahead of RRF fusion.
type NearestNeighbor struct {
	NoteID     string
	ChunkIndex int
	Similarity float64 // cosine similarity in [-1, 1]; higher is closer
}

// SearchNearest runs a cosine nearest-neighbour query over setID's chunks,
// restricted by filterSQL (a C3 predicate fragment referencing alias "n",
// "TRUE" when there is no filter), returning at most one row per note (its
// best-matching chunk), ordered by similarity descending, truncated to
// limit. excludeArchived implements the spec §4.5 visibility rule;
// soft-deleted notes are always excluded.
func (r *EmbeddingRepository) SearchNearest(ctx context.Context, tx Queryer, setID string, query []float32, filterSQL string, filterParams []any, excludeArchived bool, limit int) ([]NearestNeighbor, error) {
	args := []any{vectorLiteral(query), setID}
	archiveClause := ""
	if excludeArchived {
		archiveClause = "AND n.archived = false"
	}
	for _, p := range filterParams {
		args = append(args, p)
	}
	args = append(args, limit)
	limitPos := len(args)

	sql := `
		SELECT note_id, chunk_index, similarity FROM (
			SELECT DISTINCT ON (n.id)
			       n.id AS note_id, e.chunk_index AS chunk_index,
			       1 - (e.vector <=> $1::vector) AS similarity
			FROM embedding e
			JOIN note n ON n.id = e.note_id
			WHERE e.embedding_set_id = $2
			  AND n.deleted_at IS NULL
			  ` + archiveClause + `
			  AND (` + filterSQL + `)
			ORDER BY n.id, e.vector <=> $1::vector
		) AS best
		ORDER BY similarity DESC
		LIMIT $` + strconv.Itoa(limitPos)

	rows, err := tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, matricerr.Databasef(err, "nearest-neighbour search set %s", setID)
	}
	defer rows.Close()

	var out []NearestNeighbor
	for rows.Next() {
		var n NearestNeighbor
		if err := rows.Scan(&n.NoteID, &n.ChunkIndex, &n.Similarity); err != nil {
			return nil, matricerr.Databasef(err, "scan nearest-neighbour row")
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, matricerr.Databasef(err, "iterate nearest-neighbour rows")
	}
	return out, nil
}
