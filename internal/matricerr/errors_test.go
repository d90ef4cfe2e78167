package matricerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Databasef(cause, "query notes")

	require.ErrorIs(t, err, cause)
	assert.True(t, Is(err, KindDatabase))
	assert.False(t, Is(err, KindNotFound))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestIsMatchesKindOnly(t *testing.T) {
	a := NotFoundf("note %s not found", "abc")
	assert.True(t, errors.Is(a, NotFound))
	assert.False(t, errors.Is(a, Conflict))
}

func TestWithFieldCopies(t *testing.T) {
	base := InvalidInputf("bad filter")
	withField := base.WithField("archive", "tenant-a")

	assert.Empty(t, base.Fields)
	assert.Equal(t, "tenant-a", withField.Fields["archive"])
}
