package attachment

import (
	"path/filepath"
	"strings"
)

// maxFilenameLength is the limit after which SanitizeFilename truncates,
// preserving the extension.
const maxFilenameLength = 255

var replacedChars = map[rune]bool{
	'<': true, '>': true, ':': true, '"': true, '|': true, '?': true, '*': true, 0: true,
}

// SanitizeFilename strips path separators, replaces reserved/control
// characters with "_", collapses an empty result to "unnamed_file", and
// truncates to maxFilenameLength while preserving the extension.
func SanitizeFilename(filename string) string {
	// Strip any path component; only the base name is ever trusted.
	name := filepath.Base(filename)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case replacedChars[r]:
			b.WriteByte('_')
		case r < 0x20:
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	name = b.String()

	if name == "" || name == "." || name == ".." {
		return "unnamed_file"
	}

	if len(name) > maxFilenameLength {
		ext := filepath.Ext(name)
		base := name[:len(name)-len(ext)]
		keep := maxFilenameLength - len(ext)
		if keep < 1 {
			keep = 1
		}
		if keep > len(base) {
			keep = len(base)
		}
		name = base[:keep] + ext
	}

	return name
}
