package archive

import (
	"context"

	"github.com/fortemi/matric/internal/matricerr"
)

// Tag is a legacy flat tag: a plain string label with no hierarchy,
// distinct from the SKOS concept graph (see skos.go). Archives that
// predate taxonomy adoption, or that simply don't need one, tag notes
// this way (spec §4.13, internal/tagresolver's simple-tag fallback).
type Tag struct {
	ID   string
	Name string
}

// TagRepository is the C4 façade over the flat tag table.
type TagRepository struct{}

// NewTagRepository returns a stateless façade.
func NewTagRepository() *TagRepository { return &TagRepository{} }

// GetOrCreate returns the existing tag named name, creating one under id
// if none exists yet. Tag names are unique per archive.
func (r *TagRepository) GetOrCreate(ctx context.Context, tx Queryer, id, name string) (*Tag, error) {
	var t Tag
	err := tx.QueryRow(ctx, `
		INSERT INTO tag (id, name) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name
	`, id, name).Scan(&t.ID, &t.Name)
	if err != nil {
		return nil, matricerr.Databasef(err, "get or create tag %s", name)
	}
	return &t, nil
}

// List returns every tag in the archive, ordered by name.
func (r *TagRepository) List(ctx context.Context, tx Queryer) ([]Tag, error) {
	rows, err := tx.Query(ctx, `SELECT id, name FROM tag ORDER BY name`)
	if err != nil {
		return nil, matricerr.Databasef(err, "list tags")
	}
	defer rows.Close()

	var out []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, matricerr.Databasef(err, "scan tag")
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, matricerr.Databasef(err, "iterate tags")
	}
	return out, nil
}

// Rename changes a tag's name in place and rewrites every note_tag row
// naming it (see NoteTagRepository): note_tag stores tag_name as a
// denormalised copy for filter-query convenience, matching the shape
// internal/filter's compiled SQL expects, so the copy is updated explicitly
// (before the tag row, while the old name can still be looked up).
func (r *TagRepository) Rename(ctx context.Context, tx Queryer, id, newName string) error {
	if _, err := tx.Exec(ctx, `UPDATE note_tag SET tag_name = $2 WHERE tag_name = (SELECT name FROM tag WHERE id = $1)`, id, newName); err != nil {
		return matricerr.Databasef(err, "propagate tag rename %s", id)
	}
	tag, err := tx.Exec(ctx, `UPDATE tag SET name = $2 WHERE id = $1`, id, newName)
	if err != nil {
		return matricerr.Databasef(err, "rename tag %s", id)
	}
	if tag.RowsAffected() == 0 {
		return matricerr.NotFoundf("tag not found: %s", id)
	}
	return nil
}

// Delete removes a tag and every note_tag row naming it.
func (r *TagRepository) Delete(ctx context.Context, tx Queryer, name string) error {
	tag, err := tx.Exec(ctx, `DELETE FROM tag WHERE name = $1`, name)
	if err != nil {
		return matricerr.Databasef(err, "delete tag %s", name)
	}
	if tag.RowsAffected() == 0 {
		return matricerr.NotFoundf("tag not found: %s", name)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM note_tag WHERE tag_name = $1`, name); err != nil {
		return matricerr.Databasef(err, "delete note_tag rows for tag %s", name)
	}
	return nil
}

// NoteTagRepository is the C4 façade over note_tag: the join table
// internal/filter's compiled SQL queries directly (nt.tag_name), kept
// separate from the flat tag table above because a note_tag row can name
// a tag that was never formally registered (hierarchical path tags like
// "project/alpha" in particular, per spec §4.3's slash-prefix matching).
type NoteTagRepository struct{}

// NewNoteTagRepository returns a stateless façade.
func NewNoteTagRepository() *NoteTagRepository { return &NoteTagRepository{} }

// Attach tags a note with tagName, idempotently.
func (r *NoteTagRepository) Attach(ctx context.Context, tx Queryer, noteID, tagName string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO note_tag (note_id, tag_name) VALUES ($1, $2)
		ON CONFLICT (note_id, tag_name) DO NOTHING
	`, noteID, tagName)
	if err != nil {
		return matricerr.Databasef(err, "attach tag %s to note %s", tagName, noteID)
	}
	return nil
}

// Detach removes one note/tag association, if it exists.
func (r *NoteTagRepository) Detach(ctx context.Context, tx Queryer, noteID, tagName string) error {
	_, err := tx.Exec(ctx, `DELETE FROM note_tag WHERE note_id = $1 AND tag_name = $2`, noteID, tagName)
	if err != nil {
		return matricerr.Databasef(err, "detach tag %s from note %s", tagName, noteID)
	}
	return nil
}

// Replace sets a note's complete tag_name set, replacing whatever was there
// before: one DELETE of the note's rows, then one INSERT per name, all in
// the caller's transaction.
func (r *NoteTagRepository) Replace(ctx context.Context, tx Queryer, noteID string, tagNames []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM note_tag WHERE note_id = $1`, noteID); err != nil {
		return matricerr.Databasef(err, "clear tags for note %s", noteID)
	}
	for _, name := range tagNames {
		if _, err := tx.Exec(ctx, `INSERT INTO note_tag (note_id, tag_name) VALUES ($1, $2)`, noteID, name); err != nil {
			return matricerr.Databasef(err, "insert tag %s for note %s", name, noteID)
		}
	}
	return nil
}

// ListForNote returns every tag_name attached to noteID, ordered
// alphabetically.
func (r *NoteTagRepository) ListForNote(ctx context.Context, tx Queryer, noteID string) ([]string, error) {
	rows, err := tx.Query(ctx, `SELECT tag_name FROM note_tag WHERE note_id = $1 ORDER BY tag_name`, noteID)
	if err != nil {
		return nil, matricerr.Databasef(err, "list tags for note %s", noteID)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, matricerr.Databasef(err, "scan tag name for note %s", noteID)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, matricerr.Databasef(err, "iterate tags for note %s", noteID)
	}
	return out, nil
}
