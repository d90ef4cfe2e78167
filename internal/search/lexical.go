package search

import (
	"context"
	"strconv"
	"strings"

	"github.com/fortemi/matric/internal/archive"
	"github.com/fortemi/matric/internal/matricerr"
)

// snippetLength is the number of characters (not bytes) copied into a
// lexical hit's snippet (spec §4.5 step 3: "first 200 characters").
const snippetLength = 200

// safeSnippet truncates content to snippetLength runes, round-tripping
// through a rune slice rather than a byte slice so a 200-byte cut can
// never land mid-codepoint — some Postgres versions over-aggressively
// TOAST-compress long text columns and hand back truncated-looking byte
// runs that break naive byte slicing.
func safeSnippet(content string) string {
	runes := []rune(content)
	if len(runes) <= snippetLength {
		return content
	}
	return string(runes[:snippetLength])
}

// escapeLike escapes the LIKE/ILIKE metacharacters in q so a user's
// literal "%"/"_"/"\" cannot widen a pattern match.
func escapeLike(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(q)
}

// RunLexical executes the lexical leg of hybrid search for the already
// selected strategy, returning hits ranked best-first (spec §4.5 steps
// 2-4). cfg.FilterSQL/cfg.FilterParams is a C3 predicate referencing alias
// "n" whose placeholders start at $3, after the two query parameters.
func RunLexical(ctx context.Context, tx archive.Queryer, strategy LexicalStrategy, query string, cfg Config, limit int) ([]SearchHit, error) {
	switch strategy {
	case StrategyEnglishFTS:
		return runFTS(ctx, tx, "english", query, cfg, limit)
	case StrategySimpleFTS:
		return runFTS(ctx, tx, "simple", query, cfg, limit)
	case StrategyBigram:
		return runSimilarity(ctx, tx, query, cfg, limit, true)
	case StrategyTrigram:
		return runSimilarity(ctx, tx, query, cfg, limit, false)
	default:
		return nil, matricerr.Internalf(nil, "unknown lexical strategy %q", strategy)
	}
}

// runFTS implements spec §4.5 step 3: field-weighted tsvector ranking
// combining title (weight A), tags (weight B) and content (weight C),
// with a BM25-like rank/(rank+1) normalisation into [0,1).
func runFTS(ctx context.Context, tx archive.Queryer, tsConfig, query string, cfg Config, limit int) ([]SearchHit, error) {
	visibility := visibilityClause(cfg.ExcludeArchived)

	// ts_rank's weight array is ordered {D, C, B, A}; a Config with no
	// weights set keeps ts_rank's built-in defaults.
	weights := []float32{0.1, 0.2, 0.4, 1.0}
	if cfg.TitleWeight != 0 || cfg.TagsWeight != 0 || cfg.ContentWeight != 0 {
		weights = []float32{0.1, float32(cfg.ContentWeight), float32(cfg.TagsWeight), float32(cfg.TitleWeight)}
	}

	sql := `
		SELECT n.id, n.title, n.tags,
		       LEFT(n.content, 1000) AS content,
		       ts_rank(
		           $` + placeholder(4+len(cfg.FilterParams)) + `::float4[],
		           setweight(to_tsvector($1, coalesce(n.title, '')), 'A') ||
		           setweight(to_tsvector($1, array_to_string(n.tags, ' ')), 'B') ||
		           setweight(to_tsvector($1, n.content), 'C'),
		           plainto_tsquery($1, $2)
		       ) AS rank
		FROM note n
		WHERE n.deleted_at IS NULL
		  ` + visibility + `
		  AND (
		        setweight(to_tsvector($1, coalesce(n.title, '')), 'A') ||
		        setweight(to_tsvector($1, array_to_string(n.tags, ' ')), 'B') ||
		        setweight(to_tsvector($1, n.content), 'C')
		      ) @@ plainto_tsquery($1, $2)
		  AND (` + filterOrTrue(cfg.FilterSQL) + `)
		ORDER BY rank DESC
		LIMIT $` + placeholder(3+len(cfg.FilterParams))

	args := append([]any{tsConfig, query}, cfg.FilterParams...)
	args = append(args, limit, weights)

	hits, err := scanTitleTagRows(ctx, tx, sql, args)
	if err != nil {
		return nil, err
	}
	for i := range hits {
		hits[i].Score = hits[i].Score / (hits[i].Score + 1)
	}
	return hits, nil
}

// runSimilarity implements spec §4.5 step 4: GREATEST(similarity(content,
// q), similarity(title, q)) plus an escaped-ILIKE fall-back, ordered by
// score descending. bigram is documented for callers that have confirmed
// the bigram extension is installed; the similarity()/ILIKE expressions
// themselves are extension-agnostic (pg_trgm and pg_bigm both expose a
// `similarity()` function with the same signature).
func runSimilarity(ctx context.Context, tx archive.Queryer, query string, cfg Config, limit int, bigram bool) ([]SearchHit, error) {
	_ = bigram // unused: the SQL is identical for both extensions
	visibility := visibilityClause(cfg.ExcludeArchived)
	likePattern := "%" + escapeLike(query) + "%"

	sql := `
		SELECT n.id, n.title, n.tags, LEFT(n.content, 1000) AS content,
		       GREATEST(similarity(n.content, $1), similarity(coalesce(n.title, ''), $1)) AS score
		FROM note n
		WHERE n.deleted_at IS NULL
		  ` + visibility + `
		  AND (
		        n.content ILIKE $2 ESCAPE '\' OR coalesce(n.title, '') ILIKE $2 ESCAPE '\'
		        OR similarity(n.content, $1) > 0.1
		      )
		  AND (` + filterOrTrue(cfg.FilterSQL) + `)
		ORDER BY score DESC
		LIMIT $` + placeholder(3+len(cfg.FilterParams))

	args := append([]any{query, likePattern}, cfg.FilterParams...)
	args = append(args, limit)

	return scanTitleTagRows(ctx, tx, sql, args)
}

func visibilityClause(excludeArchived bool) string {
	if excludeArchived {
		return "AND n.archived = false"
	}
	return ""
}

// filterOrTrue substitutes the no-filter default. Callers build filterSQL
// via filter.NewBuilder(f, 2) so its $3.. placeholders already align with
// the two query-specific parameters bound ahead of it in this file.
func filterOrTrue(filterSQL string) string {
	if filterSQL == "" {
		return "TRUE"
	}
	return filterSQL
}

func placeholder(n int) string {
	return strconv.Itoa(n)
}

func scanTitleTagRows(ctx context.Context, tx archive.Queryer, sql string, args []any) ([]SearchHit, error) {
	rows, err := tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, matricerr.Databasef(err, "lexical search query")
	}
	defer rows.Close()

	var out []SearchHit
	for rows.Next() {
		var (
			id      string
			title   *string
			tags    []string
			content string
			score   float64
		)
		if err := rows.Scan(&id, &title, &tags, &content, &score); err != nil {
			return nil, matricerr.Databasef(err, "scan lexical hit row")
		}
		hit := SearchHit{
			NoteID:  id,
			Score:   score,
			Snippet: safeSnippet(content),
			Tags:    tags,
		}
		if title != nil {
			hit.Title = *title
		}
		out = append(out, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, matricerr.Databasef(err, "iterate lexical hit rows")
	}
	return out, nil
}
