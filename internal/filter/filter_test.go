package filter

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyFilterReturnsTrue(t *testing.T) {
	sql, params := NewBuilder(StrictTagFilter{IncludeUntagged: true}, 0).Build()
	assert.Equal(t, "TRUE", sql)
	assert.Empty(t, params)
}

func TestSingleRequiredConcept(t *testing.T) {
	conceptID := uuid.New()
	sql, params := NewBuilder(StrictTagFilter{
		RequiredConcepts: []uuid.UUID{conceptID},
		IncludeUntagged:  true,
	}, 0).Build()

	assert.Equal(t, "EXISTS (SELECT 1 FROM note_skos_concept nsc WHERE nsc.note_id = n.id AND nsc.concept_id = $1)", sql)
	require.Len(t, params, 1)
	assert.Equal(t, KindUUID, params[0].Kind)
	assert.Equal(t, conceptID, params[0].Value)
}

func TestMultipleRequiredConceptsAreAnded(t *testing.T) {
	sql, params := NewBuilder(StrictTagFilter{
		RequiredConcepts: []uuid.UUID{uuid.New(), uuid.New()},
		IncludeUntagged:  true,
	}, 0).Build()

	assert.Contains(t, sql, "$1")
	assert.Contains(t, sql, "$2")
	assert.Contains(t, sql, " AND ")
	assert.Len(t, params, 2)
}

func TestAnyConceptsUsesAnyArray(t *testing.T) {
	c1, c2 := uuid.New(), uuid.New()
	sql, params := NewBuilder(StrictTagFilter{
		AnyConcepts:     []uuid.UUID{c1, c2},
		IncludeUntagged: true,
	}, 0).Build()

	assert.Contains(t, sql, "ANY($1::uuid[])")
	require.Len(t, params, 1)
	assert.Equal(t, KindUUIDArray, params[0].Kind)
	assert.ElementsMatch(t, []uuid.UUID{c1, c2}, params[0].Value)
}

func TestExcludedConceptsUsesNotExists(t *testing.T) {
	sql, params := NewBuilder(StrictTagFilter{
		ExcludedConcepts: []uuid.UUID{uuid.New()},
		IncludeUntagged:  true,
	}, 0).Build()

	assert.Contains(t, sql, "NOT EXISTS")
	assert.Contains(t, sql, "ANY($1::uuid[])")
	assert.Len(t, params, 1)
}

func TestRequiredSchemesIsolation(t *testing.T) {
	sql, params := NewBuilder(StrictTagFilter{
		RequiredSchemes: []uuid.UUID{uuid.New(), uuid.New()},
		IncludeUntagged: true,
	}, 0).Build()

	assert.Contains(t, sql, "EXISTS")
	assert.Contains(t, sql, "NOT EXISTS")
	assert.Contains(t, sql, "primary_scheme_id = ANY($1::uuid[])")
	assert.Contains(t, sql, "primary_scheme_id != ALL($1::uuid[])")
	assert.Len(t, params, 1)
}

func TestExcludedSchemes(t *testing.T) {
	sql, params := NewBuilder(StrictTagFilter{
		ExcludedSchemes: []uuid.UUID{uuid.New()},
		IncludeUntagged: true,
	}, 0).Build()

	assert.Contains(t, sql, "NOT EXISTS")
	assert.Contains(t, sql, "primary_scheme_id = ANY($1::uuid[])")
	assert.Len(t, params, 1)
}

func TestMinTagCount(t *testing.T) {
	min := 3
	sql, params := NewBuilder(StrictTagFilter{
		MinTagCount:     &min,
		IncludeUntagged: true,
	}, 0).Build()

	assert.Contains(t, sql, "COUNT(*)")
	assert.Contains(t, sql, ">= $1")
	require.Len(t, params, 1)
	assert.Equal(t, 3, params[0].Value)
}

func TestExcludeUntagged(t *testing.T) {
	sql, params := NewBuilder(StrictTagFilter{IncludeUntagged: false}, 0).Build()
	assert.Contains(t, sql, "EXISTS (SELECT 1 FROM note_skos_concept nsc WHERE nsc.note_id = n.id)")
	assert.Empty(t, params)
}

func TestExcludeUntaggedRedundantWithRequiredConcepts(t *testing.T) {
	sql, params := NewBuilder(StrictTagFilter{
		RequiredConcepts: []uuid.UUID{uuid.New()},
		IncludeUntagged:  false,
	}, 0).Build()

	require.Len(t, params, 1)
	assert.NotContains(t, sql, "AND EXISTS (SELECT 1 FROM note_skos_concept nsc WHERE nsc.note_id = n.id)")
}

func TestParamOffsetContinuesNumbering(t *testing.T) {
	sql, params := NewBuilder(StrictTagFilter{
		RequiredConcepts: []uuid.UUID{uuid.New()},
		IncludeUntagged:  true,
	}, 5).Build()

	assert.Contains(t, sql, "$6")
	assert.Len(t, params, 1)
}

func TestMatchNoneShortCircuits(t *testing.T) {
	sql, params := NewBuilder(StrictTagFilter{
		AnyConcepts: []uuid.UUID{uuid.New()},
		MatchNone:   true,
	}, 0).Build()

	assert.Equal(t, "FALSE", sql)
	assert.Empty(t, params)
}

func TestOversizedFilterDegradesToFalse(t *testing.T) {
	huge := make([]uuid.UUID, maxFilterElements+1)
	for i := range huge {
		huge[i] = uuid.New()
	}
	sql, params := NewBuilder(StrictTagFilter{
		AnyConcepts:     huge,
		IncludeUntagged: true,
	}, 0).Build()

	assert.Equal(t, "FALSE", sql)
	assert.Empty(t, params)
}

func TestCombinedFiltersProduceFourParams(t *testing.T) {
	minCount := 2
	sql, params := NewBuilder(StrictTagFilter{
		RequiredConcepts: []uuid.UUID{uuid.New()},
		AnyConcepts:      []uuid.UUID{uuid.New(), uuid.New()},
		ExcludedConcepts: []uuid.UUID{uuid.New()},
		MinTagCount:      &minCount,
		IncludeUntagged:  true,
	}, 0).Build()

	require.Len(t, params, 4)
	assert.Contains(t, sql, " AND ")
	assert.Equal(t, KindUUID, params[0].Kind)
	assert.Equal(t, KindUUIDArray, params[1].Kind)
	assert.Equal(t, KindUUIDArray, params[2].Kind)
	assert.Equal(t, KindInt, params[3].Kind)
}
