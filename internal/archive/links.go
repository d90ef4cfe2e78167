package archive

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/fortemi/matric/internal/matricerr"
)

// LinkKind classifies why two notes reference each other. "related" is
// the kind C7 semantic linking assigns; others are available for manual
// or extraction-derived links.
type LinkKind string

const (
	LinkRelated  LinkKind = "related"
	LinkManual   LinkKind = "manual"
	LinkDerived  LinkKind = "derived"
	LinkCitation LinkKind = "citation"
)

// Link is a weak, non-owning edge between two notes (spec §4.16 "Cyclic
// graphs / bidirectional links": neither endpoint owns the other, so
// deleting either note just decouples the link rather than cascading).
type Link struct {
	ID         string
	FromNoteID string
	ToNoteID   string
	Kind       LinkKind
	Confidence float64
	Context    *string
}

// LinkRepository is the C4 façade over the link table.
type LinkRepository struct{}

// NewLinkRepository returns a stateless façade.
func NewLinkRepository() *LinkRepository { return &LinkRepository{} }

// Create inserts a new link, storing confidence exactly as the caller
// supplies it (no default is applied for any kind).
func (r *LinkRepository) Create(ctx context.Context, tx Queryer, id, fromNoteID, toNoteID string, kind LinkKind, confidence float64, linkContext *string) (*Link, error) {
	_, err := tx.Exec(ctx, `
		INSERT INTO link (id, from_note_id, to_note_id, kind, confidence, context)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, fromNoteID, toNoteID, kind, confidence, linkContext)
	if err != nil {
		return nil, matricerr.Databasef(err, "create link %s -> %s", fromNoteID, toNoteID)
	}
	return &Link{ID: id, FromNoteID: fromNoteID, ToNoteID: toNoteID, Kind: kind, Confidence: confidence, Context: linkContext}, nil
}

// Get fetches one link by id.
func (r *LinkRepository) Get(ctx context.Context, tx Queryer, id string) (*Link, error) {
	var l Link
	l.ID = id
	err := tx.QueryRow(ctx, `
		SELECT from_note_id, to_note_id, kind, confidence, context FROM link WHERE id = $1
	`, id).Scan(&l.FromNoteID, &l.ToNoteID, &l.Kind, &l.Confidence, &l.Context)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, matricerr.NotFoundf("link not found: %s", id)
		}
		return nil, matricerr.Databasef(err, "get link %s", id)
	}
	return &l, nil
}

// ListForNote returns every link touching noteID on either side, so
// callers don't need to run the query twice to render a note's full
// neighbourhood.
func (r *LinkRepository) ListForNote(ctx context.Context, tx Queryer, noteID string) ([]Link, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, from_note_id, to_note_id, kind, confidence, context
		FROM link WHERE from_note_id = $1 OR to_note_id = $1
		ORDER BY confidence DESC
	`, noteID)
	if err != nil {
		return nil, matricerr.Databasef(err, "list links for note %s", noteID)
	}
	defer rows.Close()

	var out []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.ID, &l.FromNoteID, &l.ToNoteID, &l.Kind, &l.Confidence, &l.Context); err != nil {
			return nil, matricerr.Databasef(err, "scan link for note %s", noteID)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, matricerr.Databasef(err, "iterate links for note %s", noteID)
	}
	return out, nil
}

// ExistsBetween reports whether any link already connects the two notes,
// in either direction — used by C7 before inserting a new "related" link
// so repeated linking passes don't pile up duplicate edges.
func (r *LinkRepository) ExistsBetween(ctx context.Context, tx Queryer, noteAID, noteBID string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM link
			WHERE (from_note_id = $1 AND to_note_id = $2)
			   OR (from_note_id = $2 AND to_note_id = $1)
		)
	`, noteAID, noteBID).Scan(&exists)
	if err != nil {
		return false, matricerr.Databasef(err, "check link existence %s <-> %s", noteAID, noteBID)
	}
	return exists, nil
}

// Delete removes a link. Deleting either endpoint note does not require
// this to be called explicitly: ON DELETE CASCADE at the schema level
// handles the decoupling described in spec §4.16.
func (r *LinkRepository) Delete(ctx context.Context, tx Queryer, id string) error {
	tag, err := tx.Exec(ctx, `DELETE FROM link WHERE id = $1`, id)
	if err != nil {
		return matricerr.Databasef(err, "delete link %s", id)
	}
	if tag.RowsAffected() == 0 {
		return matricerr.NotFoundf("link not found: %s", id)
	}
	return nil
}
