package archive

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fortemi/matric/internal/matricerr"
)

// Note is the domain entity for note.* tables (spec §3 "Note").
type Note struct {
	ID              string
	Content         string
	Format          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Archived        bool
	DeletedAt       *time.Time
	Title           *string
	Tags            []string
	Metadata        map[string]any
	DocumentTypeID  *string
	CollectionID    *string
}

// NoteRepository is the C4 façade over the note table. Every method takes
// an explicit Queryer (a pgx.Tx obtained from SchemaContext.Execute/Query)
// so the caller controls transaction boundaries.
type NoteRepository struct{}

// NewNoteRepository returns a stateless façade; all state lives in the
// SchemaContext-scoped transaction passed to each call.
func NewNoteRepository() *NoteRepository { return &NoteRepository{} }

// Create inserts a new note and returns it with generated timestamps.
func (r *NoteRepository) Create(ctx context.Context, tx Queryer, id, content, format string, title *string, tags []string, metadata map[string]any) (*Note, error) {
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, matricerr.InvalidInputf("marshal note metadata: %v", err)
	}

	n := &Note{ID: id, Content: content, Format: format, Title: title, Tags: tags, Metadata: metadata}
	err = tx.QueryRow(ctx, `
		INSERT INTO note (id, content, format, title, tags, metadata, archived)
		VALUES ($1, $2, $3, $4, $5, $6, false)
		RETURNING created_at, updated_at
	`, id, content, format, title, tags, metadataJSON).Scan(&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, matricerr.Databasef(err, "create note")
	}
	return n, nil
}

// Get fetches a note by id, excluding soft-deleted rows unless
// includeDeleted is set (administrative paths only).
func (r *NoteRepository) Get(ctx context.Context, tx Queryer, id string, includeDeleted bool) (*Note, error) {
	query := `
		SELECT id, content, format, created_at, updated_at, archived, deleted_at,
		       title, tags, metadata, document_type_id, collection_id
		FROM note WHERE id = $1
	`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}

	var n Note
	var metadataJSON []byte
	err := tx.QueryRow(ctx, query, id).Scan(
		&n.ID, &n.Content, &n.Format, &n.CreatedAt, &n.UpdatedAt, &n.Archived, &n.DeletedAt,
		&n.Title, &n.Tags, &metadataJSON, &n.DocumentTypeID, &n.CollectionID,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, matricerr.NotFoundf("note not found: %s", id)
		}
		return nil, matricerr.Databasef(err, "get note %s", id)
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &n.Metadata); err != nil {
			return nil, matricerr.Internalf(err, "unmarshal note metadata %s", id)
		}
	}
	return &n, nil
}

// UpdateContent mutates content and bumps updated_at.
func (r *NoteRepository) UpdateContent(ctx context.Context, tx Queryer, id, content string) error {
	tag, err := tx.Exec(ctx, `UPDATE note SET content = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`, id, content)
	if err != nil {
		return matricerr.Databasef(err, "update note content %s", id)
	}
	if tag.RowsAffected() == 0 {
		return matricerr.NotFoundf("note not found: %s", id)
	}
	return nil
}

// SetTags replaces a note's tag set (used by restore-with-snapshot-tags, C11).
func (r *NoteRepository) SetTags(ctx context.Context, tx Queryer, id string, tags []string) error {
	tag, err := tx.Exec(ctx, `UPDATE note SET tags = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`, id, tags)
	if err != nil {
		return matricerr.Databasef(err, "set note tags %s", id)
	}
	if tag.RowsAffected() == 0 {
		return matricerr.NotFoundf("note not found: %s", id)
	}
	return nil
}

// SoftDelete marks a note invisible to all non-admin queries without
// removing its row (spec §3: deleted_at != NULL implies invisibility).
func (r *NoteRepository) SoftDelete(ctx context.Context, tx Queryer, id string) error {
	tag, err := tx.Exec(ctx, `UPDATE note SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return matricerr.Databasef(err, "soft delete note %s", id)
	}
	if tag.RowsAffected() == 0 {
		return matricerr.NotFoundf("note not found: %s", id)
	}
	return nil
}

// SetArchived toggles the orthogonal archived visibility flag.
func (r *NoteRepository) SetArchived(ctx context.Context, tx Queryer, id string, archived bool) error {
	tag, err := tx.Exec(ctx, `UPDATE note SET archived = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`, id, archived)
	if err != nil {
		return matricerr.Databasef(err, "set note archived %s", id)
	}
	if tag.RowsAffected() == 0 {
		return matricerr.NotFoundf("note not found: %s", id)
	}
	return nil
}
