package extraction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredExtractParsesJSON(t *testing.T) {
	result, err := StructuredExtractAdapter{}.Extract(context.Background(), Input{
		Filename: "doc.json",
		Bytes:    []byte(`{"title": "hello", "tags": ["a", "b"]}`),
	})
	require.NoError(t, err)
	assert.Contains(t, result.ExtractedText, "hello")
	assert.Equal(t, "json", result.Metadata["format"])
}

func TestStructuredExtractParsesCSV(t *testing.T) {
	result, err := StructuredExtractAdapter{}.Extract(context.Background(), Input{
		Filename: "data.csv",
		Bytes:    []byte("name,age\nalice,30\nbob,25\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, "csv", result.Metadata["format"])
	assert.Equal(t, 2, result.Metadata["row_count"])
}

func TestStructuredExtractParsesXML(t *testing.T) {
	result, err := StructuredExtractAdapter{}.Extract(context.Background(), Input{
		Filename: "doc.xml",
		Bytes:    []byte(`<root><title>hello</title></root>`),
	})
	require.NoError(t, err)
	assert.Contains(t, result.ExtractedText, "hello")
	assert.Equal(t, "root", result.Metadata["root_tag"])
}
