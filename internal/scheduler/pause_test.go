package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPauseStateGlobal(t *testing.T) {
	p := NewPauseState()
	assert.False(t, p.IsGloballyPaused())
	p.SetGloballyPaused(true)
	assert.True(t, p.IsGloballyPaused())
	p.SetGloballyPaused(false)
	assert.False(t, p.IsGloballyPaused())
}

func TestPauseStatePerArchive(t *testing.T) {
	p := NewPauseState()
	assert.Empty(t, p.PausedArchiveNames())

	p.SetArchivePaused("acme", true)
	p.SetArchivePaused("other", true)
	assert.ElementsMatch(t, []string{"acme", "other"}, p.PausedArchiveNames())

	p.SetArchivePaused("acme", false)
	assert.Equal(t, []string{"other"}, p.PausedArchiveNames())
}
