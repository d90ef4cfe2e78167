package tagresolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewReturnsUsableResolver(t *testing.T) {
	r := New()
	assert.NotNil(t, r.cache)
	assert.Equal(t, 0, r.cache.Len())
}

func TestAnyTagsUnsatisfiableWhenNothingResolved(t *testing.T) {
	assert.True(t, anyTagsUnsatisfiable(3, 0, 0))
}

func TestAnyTagsSatisfiableWhenAtLeastOneConceptResolved(t *testing.T) {
	assert.False(t, anyTagsUnsatisfiable(3, 1, 0))
}

func TestAnyTagsSatisfiableWhenAtLeastOneStringTagResolved(t *testing.T) {
	assert.False(t, anyTagsUnsatisfiable(3, 0, 1))
}

func TestAnyTagsVacuouslySatisfiableWhenNoneRequested(t *testing.T) {
	assert.False(t, anyTagsUnsatisfiable(0, 0, 0))
}
