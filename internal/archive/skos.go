package archive

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/fortemi/matric/internal/matricerr"
)

// ConceptStatus is a SKOS concept's lifecycle state (spec §3).
type ConceptStatus string

const (
	ConceptApproved   ConceptStatus = "approved"
	ConceptPending    ConceptStatus = "pending"
	ConceptDeprecated ConceptStatus = "deprecated"
)

// SkosConceptScheme is the unit of taxonomy-scoped-filter isolation (spec
// §3: "schemes are the unit of isolation for taxonomy-scoped filters").
type SkosConceptScheme struct {
	ID       string
	Notation string
	Title    string
}

// SkosConcept is one controlled-vocabulary term belonging to a scheme
// (spec §3 "Concepts form a many-to-many relationship with notes via
// note_skos_concept").
type SkosConcept struct {
	ID              string
	Notation        string
	PrefLabel       string
	AltLabels       []string
	PrimarySchemeID string
	Status          ConceptStatus
}

// SkosConceptSchemeRepository is the C4 façade over skos_concept_scheme.
type SkosConceptSchemeRepository struct{}

// NewSkosConceptSchemeRepository returns a stateless façade.
func NewSkosConceptSchemeRepository() *SkosConceptSchemeRepository {
	return &SkosConceptSchemeRepository{}
}

// Create inserts a new scheme under the caller-supplied id.
func (r *SkosConceptSchemeRepository) Create(ctx context.Context, tx Queryer, id, notation, title string) (*SkosConceptScheme, error) {
	_, err := tx.Exec(ctx, `
		INSERT INTO skos_concept_scheme (id, notation, title) VALUES ($1, $2, $3)
	`, id, notation, title)
	if err != nil {
		return nil, matricerr.Databasef(err, "create skos concept scheme %s", notation)
	}
	return &SkosConceptScheme{ID: id, Notation: notation, Title: title}, nil
}

// GetByNotation resolves a scheme by its exact notation. This is the same
// lookup internal/tagresolver performs, exposed here for administrative
// callers that need the full scheme record rather than just its id.
func (r *SkosConceptSchemeRepository) GetByNotation(ctx context.Context, tx Queryer, notation string) (*SkosConceptScheme, error) {
	var s SkosConceptScheme
	err := tx.QueryRow(ctx, `
		SELECT id, notation, title FROM skos_concept_scheme WHERE notation = $1
	`, notation).Scan(&s.ID, &s.Notation, &s.Title)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, matricerr.NotFoundf("skos concept scheme not found: %s", notation)
		}
		return nil, matricerr.Databasef(err, "get skos concept scheme %s", notation)
	}
	return &s, nil
}

// List returns every scheme in the archive, ordered by notation.
func (r *SkosConceptSchemeRepository) List(ctx context.Context, tx Queryer) ([]SkosConceptScheme, error) {
	rows, err := tx.Query(ctx, `SELECT id, notation, title FROM skos_concept_scheme ORDER BY notation`)
	if err != nil {
		return nil, matricerr.Databasef(err, "list skos concept schemes")
	}
	defer rows.Close()

	var out []SkosConceptScheme
	for rows.Next() {
		var s SkosConceptScheme
		if err := rows.Scan(&s.ID, &s.Notation, &s.Title); err != nil {
			return nil, matricerr.Databasef(err, "scan skos concept scheme")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, matricerr.Databasef(err, "iterate skos concept schemes")
	}
	return out, nil
}

// SkosConceptRepository is the C4 façade over skos_concept and its
// alt-label side table skos_concept_label.
type SkosConceptRepository struct{}

// NewSkosConceptRepository returns a stateless façade.
func NewSkosConceptRepository() *SkosConceptRepository { return &SkosConceptRepository{} }

// Create inserts a new concept with status 'pending' and attaches any
// initial alt labels. pref_label is stored both on skos_concept directly
// and mirrored into skos_concept_label with label_type 'pref_label', so
// internal/tagresolver's label-join queries find it uniformly regardless
// of whether the caller looks it up by notation or by label.
func (r *SkosConceptRepository) Create(ctx context.Context, tx Queryer, id, notation, prefLabel, primarySchemeID string, altLabels []string) (*SkosConcept, error) {
	_, err := tx.Exec(ctx, `
		INSERT INTO skos_concept (id, notation, pref_label, primary_scheme_id, status)
		VALUES ($1, $2, $3, $4, $5)
	`, id, notation, prefLabel, primarySchemeID, ConceptPending)
	if err != nil {
		return nil, matricerr.Databasef(err, "create skos concept %s", notation)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO skos_concept_label (concept_id, label_type, value) VALUES ($1, 'pref_label', $2)
	`, id, prefLabel); err != nil {
		return nil, matricerr.Databasef(err, "create pref label for concept %s", notation)
	}
	for _, alt := range altLabels {
		if _, err := tx.Exec(ctx, `
			INSERT INTO skos_concept_label (concept_id, label_type, value) VALUES ($1, 'alt_label', $2)
		`, id, alt); err != nil {
			return nil, matricerr.Databasef(err, "create alt label for concept %s", notation)
		}
	}
	return &SkosConcept{ID: id, Notation: notation, PrefLabel: prefLabel, AltLabels: altLabels, PrimarySchemeID: primarySchemeID, Status: ConceptPending}, nil
}

// Get fetches one concept and its alt labels by id.
func (r *SkosConceptRepository) Get(ctx context.Context, tx Queryer, id string) (*SkosConcept, error) {
	var c SkosConcept
	c.ID = id
	err := tx.QueryRow(ctx, `
		SELECT notation, pref_label, primary_scheme_id, status FROM skos_concept WHERE id = $1
	`, id).Scan(&c.Notation, &c.PrefLabel, &c.PrimarySchemeID, &c.Status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, matricerr.NotFoundf("skos concept not found: %s", id)
		}
		return nil, matricerr.Databasef(err, "get skos concept %s", id)
	}

	rows, err := tx.Query(ctx, `SELECT value FROM skos_concept_label WHERE concept_id = $1 AND label_type = 'alt_label'`, id)
	if err != nil {
		return nil, matricerr.Databasef(err, "list alt labels for concept %s", id)
	}
	defer rows.Close()
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, matricerr.Databasef(err, "scan alt label for concept %s", id)
		}
		c.AltLabels = append(c.AltLabels, v)
	}
	if err := rows.Err(); err != nil {
		return nil, matricerr.Databasef(err, "iterate alt labels for concept %s", id)
	}
	return &c, nil
}

// ListByScheme returns every concept belonging to schemeID, ordered by
// notation, regardless of status.
func (r *SkosConceptRepository) ListByScheme(ctx context.Context, tx Queryer, schemeID string) ([]SkosConcept, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, notation, pref_label, primary_scheme_id, status
		FROM skos_concept WHERE primary_scheme_id = $1 ORDER BY notation
	`, schemeID)
	if err != nil {
		return nil, matricerr.Databasef(err, "list skos concepts for scheme %s", schemeID)
	}
	defer rows.Close()

	var out []SkosConcept
	for rows.Next() {
		var c SkosConcept
		if err := rows.Scan(&c.ID, &c.Notation, &c.PrefLabel, &c.PrimarySchemeID, &c.Status); err != nil {
			return nil, matricerr.Databasef(err, "scan skos concept")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, matricerr.Databasef(err, "iterate skos concepts for scheme %s", schemeID)
	}
	return out, nil
}

// SetStatus transitions a concept between approved, pending and
// deprecated. The caller is responsible for enforcing any workflow rule
// about which transitions are legal; this method only persists the value.
func (r *SkosConceptRepository) SetStatus(ctx context.Context, tx Queryer, id string, status ConceptStatus) error {
	tag, err := tx.Exec(ctx, `UPDATE skos_concept SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return matricerr.Databasef(err, "set skos concept status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return matricerr.NotFoundf("skos concept not found: %s", id)
	}
	return nil
}

// AddAltLabel attaches an additional alternative label to an existing
// concept.
func (r *SkosConceptRepository) AddAltLabel(ctx context.Context, tx Queryer, conceptID, label string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO skos_concept_label (concept_id, label_type, value) VALUES ($1, 'alt_label', $2)
	`, conceptID, label)
	if err != nil {
		return matricerr.Databasef(err, "add alt label to concept %s", conceptID)
	}
	return nil
}

// TagNote attaches a concept to a note (spec §3 note_skos_concept
// many-to-many join); the concept's status is not checked. Attaching is
// idempotent: re-tagging an already tagged note is a no-op rather than a
// conflict.
func (r *SkosConceptRepository) TagNote(ctx context.Context, tx Queryer, noteID, conceptID string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO note_skos_concept (note_id, concept_id) VALUES ($1, $2)
		ON CONFLICT (note_id, concept_id) DO NOTHING
	`, noteID, conceptID)
	if err != nil {
		return matricerr.Databasef(err, "tag note %s with concept %s", noteID, conceptID)
	}
	return nil
}

// UntagNote removes a note/concept association, if it exists.
func (r *SkosConceptRepository) UntagNote(ctx context.Context, tx Queryer, noteID, conceptID string) error {
	_, err := tx.Exec(ctx, `DELETE FROM note_skos_concept WHERE note_id = $1 AND concept_id = $2`, noteID, conceptID)
	if err != nil {
		return matricerr.Databasef(err, "untag note %s concept %s", noteID, conceptID)
	}
	return nil
}

// ConceptsForNote lists every concept currently attached to noteID.
func (r *SkosConceptRepository) ConceptsForNote(ctx context.Context, tx Queryer, noteID string) ([]SkosConcept, error) {
	rows, err := tx.Query(ctx, `
		SELECT c.id, c.notation, c.pref_label, c.primary_scheme_id, c.status
		FROM skos_concept c
		JOIN note_skos_concept nsc ON nsc.concept_id = c.id
		WHERE nsc.note_id = $1
		ORDER BY c.notation
	`, noteID)
	if err != nil {
		return nil, matricerr.Databasef(err, "list concepts for note %s", noteID)
	}
	defer rows.Close()

	var out []SkosConcept
	for rows.Next() {
		var c SkosConcept
		if err := rows.Scan(&c.ID, &c.Notation, &c.PrefLabel, &c.PrimarySchemeID, &c.Status); err != nil {
			return nil, matricerr.Databasef(err, "scan concept for note %s", noteID)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, matricerr.Databasef(err, "iterate concepts for note %s", noteID)
	}
	return out, nil
}
