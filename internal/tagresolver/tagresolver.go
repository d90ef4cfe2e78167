// Package tagresolver implements the C13 tag resolution service: turning
// the notation strings a client supplies in a filter request into the
// concrete SKOS concept/scheme UUIDs (or legacy string tags) the C3 filter
// compiler operates on (spec §4.13).
//
// Resolution order for a concept notation:
//  1. LRU cache hit
//  2. Exact match on skos_concept.notation
//  3. Case-insensitive match on a pref_label
//  4. Case-insensitive match on an alt_label
package tagresolver

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fortemi/matric/internal/archive"
	"github.com/fortemi/matric/internal/filter"
	"github.com/fortemi/matric/internal/matricerr"
)

const cacheSize = 1000

// Resolver resolves tag notations to SKOS concept/scheme UUIDs, caching
// successful concept lookups.
type Resolver struct {
	mu    sync.Mutex
	cache *lru.Cache[string, uuid.UUID]
}

// New returns a Resolver with a bounded LRU cache.
func New() *Resolver {
	cache, err := lru.New[string, uuid.UUID](cacheSize)
	if err != nil {
		panic(err) // only fails for a non-positive size, which cacheSize never is
	}
	return &Resolver{cache: cache}
}

// ResolveConcept resolves notation to a concept UUID, or (uuid.Nil, false)
// if nothing matches in any of the three lookup strategies.
func (r *Resolver) ResolveConcept(ctx context.Context, tx archive.Queryer, notation string) (uuid.UUID, bool, error) {
	r.mu.Lock()
	if id, ok := r.cache.Get(notation); ok {
		r.mu.Unlock()
		return id, true, nil
	}
	r.mu.Unlock()

	id, found, err := r.queryConcept(ctx, tx, `SELECT id FROM skos_concept WHERE notation = $1 LIMIT 1`, notation)
	if err != nil || found {
		return id, found, err
	}

	id, found, err = r.queryConcept(ctx, tx, `
		SELECT c.id FROM skos_concept c
		JOIN skos_concept_label l ON l.concept_id = c.id
		WHERE l.label_type = 'pref_label' AND l.value ILIKE $1
		LIMIT 1
	`, notation)
	if err != nil || found {
		return id, found, err
	}

	id, found, err = r.queryConcept(ctx, tx, `
		SELECT c.id FROM skos_concept c
		JOIN skos_concept_label l ON l.concept_id = c.id
		WHERE l.label_type = 'alt_label' AND l.value ILIKE $1
		LIMIT 1
	`, notation)
	if err != nil || !found {
		return id, found, err
	}
	return id, true, nil
}

func (r *Resolver) queryConcept(ctx context.Context, tx archive.Queryer, query, notation string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := tx.QueryRow(ctx, query, notation).Scan(&id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, matricerr.Databasef(err, "resolve concept notation %q", notation)
	}
	r.mu.Lock()
	r.cache.Add(notation, id)
	r.mu.Unlock()
	return id, true, nil
}

// ResolveScheme resolves a scheme notation to a UUID. Schemes are not
// cached: there are orders of magnitude fewer of them than concepts and
// filter requests reference them far less often.
func (r *Resolver) ResolveScheme(ctx context.Context, tx archive.Queryer, notation string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM skos_concept_scheme WHERE notation = $1 LIMIT 1`, notation).Scan(&id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, matricerr.Databasef(err, "resolve scheme notation %q", notation)
	}
	return id, true, nil
}

// SimpleTagExists reports whether name exists in the legacy flat tag
// table, distinct from the SKOS concept hierarchy.
func (r *Resolver) SimpleTagExists(ctx context.Context, tx archive.Queryer, name string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tag WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, matricerr.Databasef(err, "check simple tag %q", name)
	}
	return exists, nil
}

// ResolveConcepts resolves each notation independently, silently skipping
// ones that don't resolve; returned in input order.
func (r *Resolver) ResolveConcepts(ctx context.Context, tx archive.Queryer, notations []string) ([]uuid.UUID, error) {
	var resolved []uuid.UUID
	for _, notation := range notations {
		id, ok, err := r.ResolveConcept(ctx, tx, notation)
		if err != nil {
			return nil, err
		}
		if ok {
			resolved = append(resolved, id)
		}
	}
	return resolved, nil
}

// StrictTagFilterInput is the notation-level request a client sends before
// resolution; ResolveFilter turns it into a filter.StrictTagFilter bound
// to concrete UUIDs.
type StrictTagFilterInput struct {
	RequiredTags     []string
	AnyTags          []string
	ExcludedTags     []string
	RequiredSchemes  []string
	ExcludedSchemes  []string
	MinTagCount      *int
	IncludeUntagged  bool
}

// ResolveFilter resolves input's notations into a filter.StrictTagFilter.
//
// Error handling (spec §4.13):
//   - required tags: resolved as a SKOS concept first, falling back to a
//     legacy simple tag; an error if neither resolves
//   - any/excluded tags: same fallback, but silently skipped if neither
//     resolves
//   - required schemes: error if not found
//   - excluded schemes: silently skipped if not found
//
// If any_tags is non-empty but none of its entries resolve to anything,
// the request is unsatisfiable ("at least one of these tags" when none
// exist matches no notes) and the returned filter has MatchNone set,
// rather than silently degrading into "no any-tags filter at all".
func (r *Resolver) ResolveFilter(ctx context.Context, tx archive.Queryer, input StrictTagFilterInput) (filter.StrictTagFilter, error) {
	var out filter.StrictTagFilter

	for _, notation := range input.RequiredTags {
		id, ok, err := r.ResolveConcept(ctx, tx, notation)
		if err != nil {
			return filter.StrictTagFilter{}, err
		}
		if ok {
			out.RequiredConcepts = append(out.RequiredConcepts, id)
			continue
		}
		simple, err := r.SimpleTagExists(ctx, tx, notation)
		if err != nil {
			return filter.StrictTagFilter{}, err
		}
		if !simple {
			return filter.StrictTagFilter{}, matricerr.NotFoundf("required tag %q not found (checked SKOS concepts and simple tags)", notation)
		}
		out.RequiredStringTags = append(out.RequiredStringTags, notation)
	}

	for _, notation := range input.AnyTags {
		id, ok, err := r.ResolveConcept(ctx, tx, notation)
		if err != nil {
			return filter.StrictTagFilter{}, err
		}
		if ok {
			out.AnyConcepts = append(out.AnyConcepts, id)
			continue
		}
		simple, err := r.SimpleTagExists(ctx, tx, notation)
		if err != nil {
			return filter.StrictTagFilter{}, err
		}
		if simple {
			out.AnyStringTags = append(out.AnyStringTags, notation)
		}
	}
	out.MatchNone = anyTagsUnsatisfiable(len(input.AnyTags), len(out.AnyConcepts), len(out.AnyStringTags))

	for _, notation := range input.ExcludedTags {
		id, ok, err := r.ResolveConcept(ctx, tx, notation)
		if err != nil {
			return filter.StrictTagFilter{}, err
		}
		if ok {
			out.ExcludedConcepts = append(out.ExcludedConcepts, id)
			continue
		}
		simple, err := r.SimpleTagExists(ctx, tx, notation)
		if err != nil {
			return filter.StrictTagFilter{}, err
		}
		if simple {
			out.ExcludedStringTags = append(out.ExcludedStringTags, notation)
		}
	}

	for _, notation := range input.RequiredSchemes {
		id, ok, err := r.ResolveScheme(ctx, tx, notation)
		if err != nil {
			return filter.StrictTagFilter{}, err
		}
		if !ok {
			return filter.StrictTagFilter{}, matricerr.NotFoundf("required scheme %q not found", notation)
		}
		out.RequiredSchemes = append(out.RequiredSchemes, id)
	}

	for _, notation := range input.ExcludedSchemes {
		id, ok, err := r.ResolveScheme(ctx, tx, notation)
		if err != nil {
			return filter.StrictTagFilter{}, err
		}
		if ok {
			out.ExcludedSchemes = append(out.ExcludedSchemes, id)
		}
	}

	out.MinTagCount = input.MinTagCount
	out.IncludeUntagged = input.IncludeUntagged
	return out, nil
}

// anyTagsUnsatisfiable reports whether an "any of these tags" request is
// unsatisfiable: requested entries but none resolved to anything, SKOS
// concept or legacy tag alike. Left as a pure function so the degradation
// rule (match nothing rather than silently matching everything) can be
// verified without a database.
func anyTagsUnsatisfiable(requested, resolvedConcepts, resolvedStringTags int) bool {
	return requested > 0 && resolvedConcepts == 0 && resolvedStringTags == 0
}
