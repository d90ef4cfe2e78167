package search

// LexicalStrategy is the lexical search path chosen for one query (spec
// §4.5 step 2).
type LexicalStrategy string

const (
	// StrategyTrigram uses pg_trgm similarity() plus an escaped ILIKE
	// fall-back; used for Emoji, Mixed, and (absent bigram support) Cjk.
	StrategyTrigram LexicalStrategy = "trigram"
	// StrategyBigram uses a bigram-indexed similarity function; used for
	// Cjk when the bigram extension is available.
	StrategyBigram LexicalStrategy = "bigram"
	// StrategyEnglishFTS uses English-config tsvector FTS with
	// field-weighted title/tags/content scoring; used for Latin script
	// and whenever script detection is disabled.
	StrategyEnglishFTS LexicalStrategy = "english_fts"
	// StrategySimpleFTS uses the "simple" tsvector config (no stemming;
	// unaccent is not applied); used for single non-Latin, non-Cjk scripts.
	StrategySimpleFTS LexicalStrategy = "simple_fts"
)

// SelectStrategy implements the spec §4.5 step 2 dispatch table.
// detectionEnabled false short-circuits straight to English-FTS,
// regardless of det, matching "if script-detection is disabled ->
// English-FTS".
func SelectStrategy(detectionEnabled bool, det Detection, bigramAvailable bool) LexicalStrategy {
	if !detectionEnabled {
		return StrategyEnglishFTS
	}
	switch det.Primary {
	case ScriptEmoji, ScriptMixed:
		return StrategyTrigram
	case ScriptCjk:
		if bigramAvailable {
			return StrategyBigram
		}
		return StrategyTrigram
	case ScriptLatin:
		return StrategyEnglishFTS
	default:
		return StrategySimpleFTS
	}
}
