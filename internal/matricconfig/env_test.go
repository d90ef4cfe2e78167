package matricconfig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JOB_MAX_CONCURRENT", "")
	cfg := Load()

	assert.True(t, cfg.JobWorkerEnabled)
	assert.Equal(t, 4, cfg.JobMaxConcurrent)
	assert.Equal(t, 60*time.Second, cfg.JobPollInterval)
	assert.Equal(t, "http://localhost:11434", cfg.OllamaURL)
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, "filesystem", cfg.StorageBackend)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JOB_MAX_CONCURRENT", "16")
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := Load()

	assert.Equal(t, 16, cfg.JobMaxConcurrent)
	assert.Equal(t, "s3", cfg.StorageBackend)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
}

func TestEnvConfigPrefix(t *testing.T) {
	t.Setenv("MATRIC_FOO", "bar")
	env := NewEnvConfig("MATRIC")
	assert.Equal(t, "bar", env.GetString("FOO", "default"))
	assert.Equal(t, "default", env.GetString("MISSING", "default"))
}
