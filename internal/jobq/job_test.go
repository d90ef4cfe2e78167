package jobq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobSchemaExtractsRoutingKey(t *testing.T) {
	j := &Job{Payload: []byte(`{"schema":"acme","note_id":"n1"}`)}
	schema, err := j.Schema()
	require.NoError(t, err)
	assert.Equal(t, "acme", schema)
}

func TestJobSchemaMissingKeyReturnsEmpty(t *testing.T) {
	j := &Job{Payload: []byte(`{"note_id":"n1"}`)}
	schema, err := j.Schema()
	require.NoError(t, err)
	assert.Equal(t, "", schema)
}

func TestJobSchemaInvalidJSON(t *testing.T) {
	j := &Job{Payload: []byte(`not-json`)}
	_, err := j.Schema()
	assert.Error(t, err)
}

func TestRetryBackoffDoublesPerAttempt(t *testing.T) {
	assert.Equal(t, 30*time.Second, RetryBackoff(1))
	assert.Equal(t, 60*time.Second, RetryBackoff(2))
	assert.Equal(t, 120*time.Second, RetryBackoff(3))
	assert.Equal(t, 240*time.Second, RetryBackoff(4))
}

func TestRetryBackoffCapsAtThirtyMinutes(t *testing.T) {
	assert.Equal(t, 30*time.Minute, RetryBackoff(10))
	assert.Equal(t, 30*time.Minute, RetryBackoff(1000))
}

func TestRetryBackoffTreatsNonPositiveAttemptAsFirst(t *testing.T) {
	assert.Equal(t, RetryBackoff(1), RetryBackoff(0))
	assert.Equal(t, RetryBackoff(1), RetryBackoff(-5))
}
