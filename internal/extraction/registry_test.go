package extraction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrySelectsByExtensionThenFallsBackToText(t *testing.T) {
	registry := NewDefaultRegistry(nil, "")

	adapter := registry.Select("main.go", "application/octet-stream", []byte("package main"))
	require.NotNil(t, adapter)
	assert.Equal(t, StrategyCodeAST, adapter.Strategy())

	fallback := registry.Select("notes.txt", "", []byte("hello"))
	require.NotNil(t, fallback)
	assert.Equal(t, StrategyTextNative, fallback.Strategy())
}

func TestRegistrySelectsByMimePrefix(t *testing.T) {
	registry := NewDefaultRegistry(nil, "")
	adapter := registry.Select("photo.bin", "image/jpeg", []byte{0xFF, 0xD8, 0xFF})
	require.NotNil(t, adapter)
	assert.Equal(t, StrategyVision, adapter.Strategy())
}

func TestRegistrySelectsByMagicBytesWhenMimeAndExtensionUnknown(t *testing.T) {
	registry := NewDefaultRegistry(nil, "")
	data := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	adapter := registry.Select("attachment", "application/octet-stream", data)
	require.NotNil(t, adapter)
	assert.Equal(t, StrategyVision, adapter.Strategy())
}

func TestExtractRejectsEmptyInput(t *testing.T) {
	registry := NewDefaultRegistry(nil, "")
	_, _, err := registry.Extract(context.Background(), Input{Filename: "a.txt"})
	assert.Error(t, err)
}

func TestExtractRunsTextNativeAdapter(t *testing.T) {
	registry := NewDefaultRegistry(nil, "")
	result, strategy, err := registry.Extract(context.Background(), Input{
		Filename: "notes.txt",
		Bytes:    []byte("line one\nline two\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, StrategyTextNative, strategy)
	assert.Equal(t, 3, result.Metadata["line_count"])
}
