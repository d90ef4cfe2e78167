package search

// EmbeddingStatus, when present on a SearchHit, reports the note's
// indexing state for the caller's UI (e.g. "pending", "indexed",
// "failed"); left empty when the caller didn't ask for it.
type EmbeddingStatus string

// SearchHit is one ranked result (spec §4.5: "SearchHit = (note_id, score
// in [0,1], snippet, title, tags, embedding_status)").
type SearchHit struct {
	NoteID          string
	Score           float64
	Snippet         string
	Title           string
	Tags            []string
	EmbeddingStatus EmbeddingStatus
}

// Config carries the weights, visibility, language hints and feature
// flags the spec's hybrid_search(query, limit, config) takes as its third
// argument.
type Config struct {
	Limit int

	// DetectScript turns script-aware strategy selection on; false pins
	// the lexical path to English-FTS (spec §4.5 step 2).
	DetectScript bool
	// BigramAvailable reports whether the archive's Postgres has the
	// bigram extension installed, gating the Cjk bigram path.
	BigramAvailable bool

	// TitleWeight, TagsWeight, ContentWeight are the English-FTS
	// field weights (spec §4.5 step 3: "title (weight A), tags (weight
	// B), content (weight C)").
	TitleWeight   float64
	TagsWeight    float64
	ContentWeight float64

	// ExcludeArchived defaults true at the call site constructing Config
	// (spec §4.5 "Visibility rule"); soft-deleted notes are always
	// excluded regardless of this flag.
	ExcludeArchived bool

	// EmbeddingSetSlug selects a non-default embedding set for the
	// semantic leg; empty means "use the archive's default set".
	EmbeddingSetSlug string

	// FilterSQL/FilterParams is a pre-compiled C3 predicate (see
	// internal/filter.Builder.Build) restricting the candidate note set
	// before scoring, referencing alias "n". "TRUE" with nil params when
	// there is no filter.
	FilterSQL    string
	FilterParams []any
}

// DefaultConfig returns a Config with the spec's documented defaults:
// script detection on, archived notes excluded, and the canonical
// title/tags/content FTS weights (A=1.0, B=0.6, C=0.4 — title matches
// outrank tag matches, which outrank body matches).
func DefaultConfig(limit int) Config {
	return Config{
		Limit:           limit,
		DetectScript:    true,
		TitleWeight:     1.0,
		TagsWeight:      0.6,
		ContentWeight:   0.4,
		ExcludeArchived: true,
		FilterSQL:       "TRUE",
	}
}
