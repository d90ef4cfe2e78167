package attachment

import (
	"bytes"
	"strings"
)

// blockedExtensions are rejected regardless of declared content type.
// Text scripts (.sh, .py, .js, .ps1) are intentionally not blocked.
var blockedExtensions = map[string]bool{
	"exe": true, "dll": true, "so": true, "dylib": true,
	"jar": true, "war": true, "class": true,
	"deb": true, "rpm": true, "apk": true, "dmg": true,
	"xlsm": true, "docm": true, "reg": true, "lnk": true, "hta": true,
}

// executableMagic are byte signatures that identify a file as a native
// executable regardless of its claimed content type or extension.
var executableMagic = []struct {
	name  string
	magic []byte
}{
	{"pe", []byte{'M', 'Z'}},
	{"elf", []byte{0x7F, 'E', 'L', 'F'}},
	{"macho32", []byte{0xFE, 0xED, 0xFA, 0xCE}},
	{"macho32be", []byte{0xCE, 0xFA, 0xED, 0xFE}},
	{"macho64", []byte{0xFE, 0xED, 0xFA, 0xCF}},
	{"macho64be", []byte{0xCF, 0xFA, 0xED, 0xFE}},
	{"wasm", []byte{0x00, 'a', 's', 'm'}},
	// CA FE BA BE is a Java class file OR a Mach-O "fat" binary; the
	// ambiguity itself is the reason it is always blocked.
	{"class-or-fat", []byte{0xCA, 0xFE, 0xBA, 0xBE}},
}

// ValidationResult is the outcome of a pre-store safety check.
type ValidationResult struct {
	Allowed      bool
	Reason       string
	DetectedType string
}

// ValidateUpload enforces the size limit, blocked-extension list and
// executable magic-byte check, in that order, before a blob is ever written.
func ValidateUpload(filename string, data []byte, maxSize int64) ValidationResult {
	if int64(len(data)) > maxSize {
		return ValidationResult{Allowed: false, Reason: "file exceeds maximum upload size"}
	}

	ext := strings.ToLower(strings.TrimPrefix(extOf(filename), "."))
	if blockedExtensions[ext] {
		return ValidationResult{Allowed: false, Reason: "blocked file extension: " + ext}
	}

	for _, sig := range executableMagic {
		if bytes.HasPrefix(data, sig.magic) {
			return ValidationResult{Allowed: false, Reason: "blocked executable magic bytes: " + sig.name}
		}
	}

	return ValidationResult{Allowed: true, DetectedType: DetectContentType(filename, data, "")}
}

func extOf(filename string) string {
	idx := strings.LastIndexByte(filename, '.')
	if idx < 0 {
		return ""
	}
	return filename[idx:]
}
