// Package filter implements the C3 strict tag filter compiler: it turns a
// StrictTagFilter into a parameterised SQL predicate fragment referencing
// the enclosing note alias "n", suitable for embedding into a larger
// hybrid-search or listing query (see internal/search).
package filter

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// maxFilterElements bounds the total size of every list field combined, so
// a pathological request cannot blow up query planning time.
const maxFilterElements = 1000

// ParamKind discriminates the Go value a Param carries, so the caller's
// query layer knows how to bind it (pgx infers most of this itself, but
// the explicit tag keeps the compiler's output self-describing and
// testable independent of any particular driver).
type ParamKind string

const (
	KindUUID        ParamKind = "uuid"
	KindUUIDArray   ParamKind = "uuid_array"
	KindInt         ParamKind = "int"
	KindBool        ParamKind = "bool"
	KindString      ParamKind = "string"
	KindStringArray ParamKind = "string_array"
	KindTimestamp   ParamKind = "timestamp"
)

// Param is one bound value in the emitted parameter list, in the order it
// appears in the SQL fragment.
type Param struct {
	Kind  ParamKind
	Value any
}

// StrictTagFilter is the compiler's input (spec §4.3 / §3 data model).
type StrictTagFilter struct {
	RequiredConcepts   []uuid.UUID
	AnyConcepts        []uuid.UUID
	ExcludedConcepts   []uuid.UUID
	RequiredSchemes    []uuid.UUID
	ExcludedSchemes    []uuid.UUID
	RequiredStringTags []string
	AnyStringTags      []string
	ExcludedStringTags []string
	MinTagCount        *int
	IncludeUntagged    bool
	MatchNone          bool
}

// totalElements sums every list field, for the DoS bound check.
func (f *StrictTagFilter) totalElements() int {
	return len(f.RequiredConcepts) + len(f.AnyConcepts) + len(f.ExcludedConcepts) +
		len(f.RequiredSchemes) + len(f.ExcludedSchemes) +
		len(f.RequiredStringTags) + len(f.AnyStringTags) + len(f.ExcludedStringTags)
}

// Builder compiles one StrictTagFilter, numbering its emitted parameters
// starting after paramOffset (the count of parameters already bound in the
// enclosing query).
type Builder struct {
	filter      StrictTagFilter
	paramOffset int
}

// NewBuilder constructs a Builder for filter, with parameter numbering
// continuing from paramOffset.
func NewBuilder(f StrictTagFilter, paramOffset int) *Builder {
	return &Builder{filter: f, paramOffset: paramOffset}
}

// Build returns the compiled SQL predicate fragment and its ordered
// parameter list. A filter with no constraints and IncludeUntagged set
// yields ("TRUE", nil); with IncludeUntagged false it yields the
// has-at-least-one-concept predicate. MatchNone, or a
// filter whose combined list lengths exceed maxFilterElements, yields
// ("FALSE", nil) — the deliberate "match nothing" escape hatch that keeps
// an unsatisfiable "any of {...}" request from degenerating into "no
// filter at all".
func (b *Builder) Build() (string, []Param) {
	if b.filter.MatchNone {
		return "FALSE", nil
	}
	if b.filter.totalElements() > maxFilterElements {
		return "FALSE", nil
	}

	var clauses []string
	var params []Param
	paramIdx := b.paramOffset

	for _, conceptID := range b.filter.RequiredConcepts {
		paramIdx++
		clauses = append(clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM note_skos_concept nsc WHERE nsc.note_id = n.id AND nsc.concept_id = $%d)",
			paramIdx,
		))
		params = append(params, Param{Kind: KindUUID, Value: conceptID})
	}

	if len(b.filter.AnyConcepts) > 0 {
		paramIdx++
		clauses = append(clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM note_skos_concept nsc WHERE nsc.note_id = n.id AND nsc.concept_id = ANY($%d::uuid[]))",
			paramIdx,
		))
		params = append(params, Param{Kind: KindUUIDArray, Value: b.filter.AnyConcepts})
	}

	if len(b.filter.ExcludedConcepts) > 0 {
		paramIdx++
		clauses = append(clauses, fmt.Sprintf(
			"NOT EXISTS (SELECT 1 FROM note_skos_concept nsc WHERE nsc.note_id = n.id AND nsc.concept_id = ANY($%d::uuid[]))",
			paramIdx,
		))
		params = append(params, Param{Kind: KindUUIDArray, Value: b.filter.ExcludedConcepts})
	}

	if len(b.filter.RequiredSchemes) > 0 {
		paramIdx++
		clauses = append(clauses, fmt.Sprintf(
			"(EXISTS (SELECT 1 FROM note_skos_concept nsc JOIN skos_concept sc ON sc.id = nsc.concept_id WHERE nsc.note_id = n.id AND sc.primary_scheme_id = ANY($%d::uuid[])) AND NOT EXISTS (SELECT 1 FROM note_skos_concept nsc JOIN skos_concept sc ON sc.id = nsc.concept_id WHERE nsc.note_id = n.id AND sc.primary_scheme_id != ALL($%d::uuid[])))",
			paramIdx, paramIdx,
		))
		params = append(params, Param{Kind: KindUUIDArray, Value: b.filter.RequiredSchemes})
	}

	if len(b.filter.ExcludedSchemes) > 0 {
		paramIdx++
		clauses = append(clauses, fmt.Sprintf(
			"NOT EXISTS (SELECT 1 FROM note_skos_concept nsc JOIN skos_concept sc ON sc.id = nsc.concept_id WHERE nsc.note_id = n.id AND sc.primary_scheme_id = ANY($%d::uuid[]))",
			paramIdx,
		))
		params = append(params, Param{Kind: KindUUIDArray, Value: b.filter.ExcludedSchemes})
	}

	for _, tag := range b.filter.RequiredStringTags {
		paramIdx++
		clauses = append(clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM note_tag nt WHERE nt.note_id = n.id AND (LOWER(nt.tag_name) = LOWER($%d::text) OR LOWER(nt.tag_name) LIKE LOWER($%d::text) || '/%%' ESCAPE '\\'))",
			paramIdx, paramIdx,
		))
		params = append(params, Param{Kind: KindString, Value: tag})
	}

	if len(b.filter.AnyStringTags) > 0 {
		paramIdx++
		clauses = append(clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM note_tag nt WHERE nt.note_id = n.id AND (LOWER(nt.tag_name) = ANY(SELECT LOWER(unnest($%d::text[]))) OR EXISTS (SELECT 1 FROM unnest($%d::text[]) AS t WHERE LOWER(nt.tag_name) LIKE LOWER(t) || '/%%' ESCAPE '\\')))",
			paramIdx, paramIdx,
		))
		params = append(params, Param{Kind: KindStringArray, Value: b.filter.AnyStringTags})
	}

	if len(b.filter.ExcludedStringTags) > 0 {
		paramIdx++
		clauses = append(clauses, fmt.Sprintf(
			"NOT EXISTS (SELECT 1 FROM note_tag nt WHERE nt.note_id = n.id AND (LOWER(nt.tag_name) = ANY(SELECT LOWER(unnest($%d::text[]))) OR EXISTS (SELECT 1 FROM unnest($%d::text[]) AS t WHERE LOWER(nt.tag_name) LIKE LOWER(t) || '/%%' ESCAPE '\\')))",
			paramIdx, paramIdx,
		))
		params = append(params, Param{Kind: KindStringArray, Value: b.filter.ExcludedStringTags})
	}

	if b.filter.MinTagCount != nil {
		paramIdx++
		clauses = append(clauses, fmt.Sprintf(
			"(SELECT COUNT(*) FROM note_skos_concept nsc WHERE nsc.note_id = n.id) >= $%d",
			paramIdx,
		))
		params = append(params, Param{Kind: KindInt, Value: *b.filter.MinTagCount})
	}

	if !b.filter.IncludeUntagged {
		if len(b.filter.RequiredConcepts) == 0 && len(b.filter.AnyConcepts) == 0 {
			clauses = append(clauses, "EXISTS (SELECT 1 FROM note_skos_concept nsc WHERE nsc.note_id = n.id)")
		}
	}

	if len(clauses) == 0 {
		return "TRUE", nil
	}
	return strings.Join(clauses, " AND "), params
}
