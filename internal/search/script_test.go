package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectScriptPureLatin(t *testing.T) {
	det := DetectScript("hello world")
	assert.Equal(t, ScriptLatin, det.Primary)
	assert.InDelta(t, 1.0, det.Confidence, 0.001)
}

func TestDetectScriptPureCjk(t *testing.T) {
	det := DetectScript("你好世界")
	assert.Equal(t, ScriptCjk, det.Primary)
}

func TestDetectScriptEmoji(t *testing.T) {
	det := DetectScript("🎉🎉🎉")
	assert.Equal(t, ScriptEmoji, det.Primary)
}

func TestDetectScriptMixedWhenSecondBucketAbove20Percent(t *testing.T) {
	// 5 Latin runes, 3 Cjk runes: second bucket share = 3/8 = 37.5% >= 20%.
	det := DetectScript("hello你好世")
	assert.Equal(t, ScriptMixed, det.Primary)
}

func TestDetectScriptSkipsWhitespaceAndPunctuation(t *testing.T) {
	det := DetectScript("hi, there!")
	assert.Equal(t, ScriptLatin, det.Primary)
}

func TestDetectScriptEmptyQuery(t *testing.T) {
	det := DetectScript("   ")
	assert.Equal(t, ScriptUnknown, det.Primary)
	assert.Equal(t, 0.0, det.Confidence)
}

func TestDetectScriptScriptsFoundIncludesMinorBucketsAbove5Percent(t *testing.T) {
	// 18 Latin + 2 Cyrillic = 10% Cyrillic share, at/above 5% threshold.
	det := DetectScript(strings.Repeat("a", 18) + "бб")
	assert.Contains(t, det.ScriptsFound, ScriptLatin)
	assert.Contains(t, det.ScriptsFound, ScriptCyrillic)
}

func TestSelectStrategyDetectionDisabledAlwaysEnglishFTS(t *testing.T) {
	det := DetectScript("你好")
	assert.Equal(t, StrategyEnglishFTS, SelectStrategy(false, det, true))
}

func TestSelectStrategyEmojiAndMixedUseTrigram(t *testing.T) {
	assert.Equal(t, StrategyTrigram, SelectStrategy(true, Detection{Primary: ScriptEmoji}, true))
	assert.Equal(t, StrategyTrigram, SelectStrategy(true, Detection{Primary: ScriptMixed}, true))
}

func TestSelectStrategyCjkPrefersBigramWhenAvailable(t *testing.T) {
	assert.Equal(t, StrategyBigram, SelectStrategy(true, Detection{Primary: ScriptCjk}, true))
	assert.Equal(t, StrategyTrigram, SelectStrategy(true, Detection{Primary: ScriptCjk}, false))
}

func TestSelectStrategyLatinUsesEnglishFTS(t *testing.T) {
	assert.Equal(t, StrategyEnglishFTS, SelectStrategy(true, Detection{Primary: ScriptLatin}, true))
}

func TestSelectStrategyOtherScriptsUseSimpleFTS(t *testing.T) {
	assert.Equal(t, StrategySimpleFTS, SelectStrategy(true, Detection{Primary: ScriptArabic}, true))
	assert.Equal(t, StrategySimpleFTS, SelectStrategy(true, Detection{Primary: ScriptHebrew}, true))
}
