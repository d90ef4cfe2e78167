// Package search implements the C5 hybrid search engine: script-aware
// strategy selection between full-text, trigram/bigram and semantic
// nearest-neighbour search, combined by reciprocal-rank fusion.
package search

import "unicode"

// Script is one Unicode script bucket counted during query-language
// detection (spec §4.5 step 1).
type Script string

const (
	ScriptLatin      Script = "latin"
	ScriptCjk        Script = "cjk"
	ScriptArabic     Script = "arabic"
	ScriptCyrillic   Script = "cyrillic"
	ScriptGreek      Script = "greek"
	ScriptHebrew     Script = "hebrew"
	ScriptDevanagari Script = "devanagari"
	ScriptThai       Script = "thai"
	ScriptEmoji      Script = "emoji"
	ScriptUnknown    Script = "unknown"
	// ScriptMixed is not a codepoint bucket; it is the Detection.Primary
	// value assigned when no single script dominates (step 1).
	ScriptMixed Script = "mixed"
)

// scriptTables maps each bucket to the stdlib Unicode range tables that
// identify it. Cjk merges Han, Hiragana, Katakana and Hangul, since CJK
// text in practice mixes them and the spec treats them as one strategy
// bucket, not four.
var scriptTables = []struct {
	script Script
	tables []*unicode.RangeTable
}{
	{ScriptCjk, []*unicode.RangeTable{unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul}},
	{ScriptArabic, []*unicode.RangeTable{unicode.Arabic}},
	{ScriptCyrillic, []*unicode.RangeTable{unicode.Cyrillic}},
	{ScriptGreek, []*unicode.RangeTable{unicode.Greek}},
	{ScriptHebrew, []*unicode.RangeTable{unicode.Hebrew}},
	{ScriptDevanagari, []*unicode.RangeTable{unicode.Devanagari}},
	{ScriptThai, []*unicode.RangeTable{unicode.Thai}},
	{ScriptLatin, []*unicode.RangeTable{unicode.Latin}},
}

// bucketOf classifies one rune, skipping the whitespace/punctuation test
// the caller already did.
func bucketOf(r rune) Script {
	if isEmoji(r) {
		return ScriptEmoji
	}
	for _, entry := range scriptTables {
		for _, table := range entry.tables {
			if unicode.Is(table, r) {
				return entry.script
			}
		}
	}
	return ScriptUnknown
}

// isEmoji reports whether r falls in one of the common emoji/pictograph
// blocks. unicode.Is has no built-in "Emoji" table, so this checks the
// well-known code-point ranges directly.
func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1FAFF: // misc symbols/pictographs through symbols&pictographs extended-A
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
		return true
	case r >= 0x1F1E6 && r <= 0x1F1FF: // regional indicators (flags)
		return true
	case r == 0x200D || r == 0xFE0F: // ZWJ, variation selector
		return true
	default:
		return false
	}
}

// Detection is the result of scanning a query string for its script mix
// (spec §4.5 step 1).
type Detection struct {
	Primary      Script
	ScriptsFound []Script
	Confidence   float64
}

// DetectScript buckets the codepoints of query, skipping whitespace and
// punctuation. The majority bucket becomes Primary, unless a second
// bucket holds at least 20% of counted codepoints, in which case Primary
// is ScriptMixed. Any bucket holding at least 5% is recorded in
// ScriptsFound. Confidence is the majority bucket's share of the total.
func DetectScript(query string) Detection {
	counts := make(map[Script]int)
	total := 0
	for _, r := range query {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			continue
		}
		counts[bucketOf(r)]++
		total++
	}

	if total == 0 {
		return Detection{Primary: ScriptUnknown, Confidence: 0}
	}

	type countedScript struct {
		script Script
		count  int
	}
	var ordered []countedScript
	for s, c := range counts {
		ordered = append(ordered, countedScript{s, c})
	}
	// Stable order by descending count for deterministic tie-breaking;
	// ties fall back to bucket name so repeated calls never flip the
	// reported primary script for the same input.
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0; j-- {
			a, b := ordered[j-1], ordered[j]
			if b.count > a.count || (b.count == a.count && b.script < a.script) {
				ordered[j-1], ordered[j] = ordered[j], ordered[j-1]
				continue
			}
			break
		}
	}

	primary := ordered[0].script
	if len(ordered) > 1 {
		secondShare := float64(ordered[1].count) / float64(total)
		if secondShare >= 0.20 {
			primary = ScriptMixed
		}
	}

	var found []Script
	for _, cs := range ordered {
		if float64(cs.count)/float64(total) >= 0.05 {
			found = append(found, cs.script)
		}
	}

	confidence := float64(ordered[0].count) / float64(total)
	return Detection{Primary: primary, ScriptsFound: found, Confidence: confidence}
}
