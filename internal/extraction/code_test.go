package extraction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeASTAdapterScansGoDeclarations(t *testing.T) {
	src := "package main\n\nfunc Hello() {}\n\ntype Greeting struct {\n\tName string\n}\n"
	result, err := CodeASTAdapter{}.Extract(context.Background(), Input{
		Filename: "hello.go",
		Bytes:    []byte(src),
	})
	require.NoError(t, err)

	decls, ok := result.Metadata["declarations"].([]Declaration)
	require.True(t, ok)
	require.Len(t, decls, 2)
	assert.Equal(t, "function", decls[0].Kind)
	assert.Equal(t, "Hello", decls[0].Name)
	assert.Equal(t, "struct", decls[1].Kind)
	assert.Equal(t, "Greeting", decls[1].Name)
}

func TestCodeASTAdapterScansPythonDeclarations(t *testing.T) {
	src := "class Foo:\n    def bar(self):\n        pass\n"
	result, err := CodeASTAdapter{}.Extract(context.Background(), Input{
		Filename: "foo.py",
		Bytes:    []byte(src),
	})
	require.NoError(t, err)

	decls := result.Metadata["declarations"].([]Declaration)
	require.Len(t, decls, 2)
	assert.Equal(t, "class", decls[0].Kind)
	assert.Equal(t, "Foo", decls[0].Name)
	assert.Equal(t, "function", decls[1].Kind)
	assert.Equal(t, "bar", decls[1].Name)
}
