package extraction

import (
	"context"
	"regexp"
	"strings"
)

// Declaration is one regex-matched top-level declaration found by
// CodeASTAdapter. LineStart/LineEnd are 1-indexed; this scanner is
// line-oriented, not a real parser, so LineEnd is always the declaration's
// opening line (equal to LineStart).
type Declaration struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	LineStart int    `json:"line_start"`
	LineEnd   int    `json:"line_end"`
}

type declPattern struct {
	kind string
	re   *regexp.Regexp
}

// declPatterns maps a file extension to the ordered list of regexes used to
// recognise declarations in that language. This is a best-effort scan, not
// a parser: it is meant to surface a structural outline for search and
// summarisation, not to be a source of truth for refactoring tools.
var declPatterns = map[string][]declPattern{
	".rs": {
		{"function", regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?fn\s+(\w+)`)},
		{"struct", regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?struct\s+(\w+)`)},
		{"enum", regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?enum\s+(\w+)`)},
		{"trait", regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?trait\s+(\w+)`)},
		{"impl", regexp.MustCompile(`^\s*impl(?:<[^>]*>)?\s+(?:\w+\s+for\s+)?(\w+)`)},
	},
	".py": {
		{"function", regexp.MustCompile(`^\s*(?:async\s+)?def\s+(\w+)`)},
		{"class", regexp.MustCompile(`^\s*class\s+(\w+)`)},
	},
	".js": {
		{"function", regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s+(\w+)`)},
		{"class", regexp.MustCompile(`^\s*(?:export\s+)?class\s+(\w+)`)},
		{"const", regexp.MustCompile(`^\s*(?:export\s+)?const\s+(\w+)\s*=\s*(?:async\s*)?\(`)},
	},
	".ts": {
		{"function", regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s+(\w+)`)},
		{"class", regexp.MustCompile(`^\s*(?:export\s+)?class\s+(\w+)`)},
		{"interface", regexp.MustCompile(`^\s*(?:export\s+)?interface\s+(\w+)`)},
		{"type", regexp.MustCompile(`^\s*(?:export\s+)?type\s+(\w+)`)},
	},
	".go": {
		{"function", regexp.MustCompile(`^func\s+(?:\([^)]*\)\s+)?(\w+)`)},
		{"struct", regexp.MustCompile(`^type\s+(\w+)\s+struct`)},
		{"interface", regexp.MustCompile(`^type\s+(\w+)\s+interface`)},
	},
	".java": {
		{"class", regexp.MustCompile(`^\s*(?:public|private|protected)?\s*(?:static\s+)?(?:final\s+)?class\s+(\w+)`)},
		{"interface", regexp.MustCompile(`^\s*(?:public\s+)?interface\s+(\w+)`)},
		{"method", regexp.MustCompile(`^\s*(?:public|private|protected)\s+(?:static\s+)?[\w<>\[\]]+\s+(\w+)\s*\(`)},
	},
	".c": {
		{"function", regexp.MustCompile(`^\w[\w\s\*]*\s+(\w+)\s*\([^;]*\)\s*\{`)},
		{"struct", regexp.MustCompile(`^struct\s+(\w+)`)},
	},
	".cpp": {
		{"function", regexp.MustCompile(`^\w[\w\s:<>\*]*\s+(\w+)\s*\([^;]*\)\s*\{`)},
		{"class", regexp.MustCompile(`^class\s+(\w+)`)},
		{"struct", regexp.MustCompile(`^struct\s+(\w+)`)},
	},
	".rb": {
		{"method", regexp.MustCompile(`^\s*def\s+(\w+[\?\!]?)`)},
		{"class", regexp.MustCompile(`^\s*class\s+(\w+)`)},
		{"module", regexp.MustCompile(`^\s*module\s+(\w+)`)},
	},
}

// CodeASTAdapter implements StrategyCodeAST: a regex-based declaration scan
// over source files, emitting one Declaration per matched line.
type CodeASTAdapter struct{}

func (CodeASTAdapter) Strategy() Strategy { return StrategyCodeAST }

func (CodeASTAdapter) ExactFilenames() []string { return nil }
func (CodeASTAdapter) MimePrefixes() []string   { return nil }

func (CodeASTAdapter) Extensions() []string {
	exts := make([]string, 0, len(declPatterns))
	for ext := range declPatterns {
		exts = append(exts, ext)
	}
	return exts
}

func (CodeASTAdapter) MatchesMagic(data []byte) bool { return false }

func (CodeASTAdapter) Extract(ctx context.Context, in Input) (Result, error) {
	ext := extensionOf(in.Filename)
	patterns := declPatterns[ext]

	lines := strings.Split(string(in.Bytes), "\n")
	var decls []Declaration
	for i, line := range lines {
		for _, p := range patterns {
			m := p.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			decls = append(decls, Declaration{
				Kind:      p.kind,
				Name:      m[1],
				LineStart: i + 1,
				LineEnd:   i + 1,
			})
			break
		}
	}

	return Result{
		ExtractedText: string(in.Bytes),
		Metadata: map[string]any{
			"language":     languageFor(in.Filename),
			"declarations": decls,
			"line_count":   len(lines),
		},
	}, nil
}

func extensionOf(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(filename[idx:])
}
