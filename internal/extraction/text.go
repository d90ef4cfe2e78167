package extraction

import (
	"context"
	"strings"
)

// textExtensions maps a recognised source/text extension to the language
// name recorded in extracted metadata.
var textExtensions = map[string]string{
	".txt":  "plaintext",
	".md":   "markdown",
	".rst":  "restructuredtext",
	".rs":   "rust",
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".go":   "go",
	".java": "java",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".hpp":  "cpp",
	".rb":   "ruby",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
	".toml": "toml",
}

// TextNativeAdapter implements StrategyTextNative: it returns the input
// bytes verbatim as UTF-8 text, with line/character counts and a
// best-effort language guess from the file extension.
type TextNativeAdapter struct{}

func (TextNativeAdapter) Strategy() Strategy { return StrategyTextNative }

func (TextNativeAdapter) ExactFilenames() []string { return nil }

// MimePrefixes intentionally excludes the bare "text/" prefix: a broad
// match there would shadow CodeASTAdapter's extension-based selection for
// any source file whose detected MIME type happens to start with "text/"
// (e.g. "text/x-rust"). Only the narrow, genuinely-plain-text types are
// claimed at the MIME step; everything else falls through to extension
// matching, and ultimately to this adapter as the registry's fallback.
func (TextNativeAdapter) MimePrefixes() []string {
	return []string{"text/plain", "text/markdown", "text/x-rst"}
}

func (TextNativeAdapter) Extensions() []string {
	exts := make([]string, 0, len(textExtensions))
	for ext := range textExtensions {
		exts = append(exts, ext)
	}
	return exts
}

func (TextNativeAdapter) MatchesMagic(data []byte) bool { return false }

func (TextNativeAdapter) Extract(ctx context.Context, in Input) (Result, error) {
	text := string(in.Bytes)
	language := languageFor(in.Filename)

	return Result{
		ExtractedText: text,
		Metadata: map[string]any{
			"line_count":      strings.Count(text, "\n") + 1,
			"character_count": len(text),
			"language":        language,
		},
	}, nil
}

func languageFor(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return "plaintext"
	}
	ext := strings.ToLower(filename[idx:])
	if lang, ok := textExtensions[ext]; ok {
		return lang
	}
	return "plaintext"
}
