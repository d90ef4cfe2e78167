package extraction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldFallbackToOCRBelowThreshold(t *testing.T) {
	assert.True(t, shouldFallbackToOCR("scanned page, barely any real text", 10))
}

func TestShouldFallbackToOCRAboveThreshold(t *testing.T) {
	text := strings.Repeat("a real text layer with plenty of extracted characters per page. ", 5)
	assert.False(t, shouldFallbackToOCR(text, 1))
}

func TestShouldFallbackToOCRTreatsZeroPagesAsOne(t *testing.T) {
	assert.Equal(t, shouldFallbackToOCR("short", 0), shouldFallbackToOCR("short", 1))
}

func TestShouldFallbackToOCREmptyTextAlwaysFallsBack(t *testing.T) {
	assert.True(t, shouldFallbackToOCR("", 3))
}

func TestPDFOCRAdapterUnreachableThroughMagicSelector(t *testing.T) {
	// PDFOCRAdapter is never selected through Registry.Select's normal
	// cascade; PDFTextAdapter.Extract is the only caller that invokes it,
	// once shouldFallbackToOCR reports the text layer is too sparse.
	adapter := PDFOCRAdapter{}
	assert.Nil(t, adapter.ExactFilenames())
	assert.Nil(t, adapter.MimePrefixes())
	assert.Nil(t, adapter.Extensions())
	assert.False(t, adapter.MatchesMagic([]byte("%PDF-1.4")))
}
