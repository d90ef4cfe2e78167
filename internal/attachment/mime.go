package attachment

import (
	"bytes"
	"strings"
)

// magicSignature associates a byte prefix with the MIME type it identifies.
type magicSignature struct {
	mime   string
	prefix []byte
}

var magicSignatures = []magicSignature{
	{"image/png", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}},
	{"image/jpeg", []byte{0xFF, 0xD8, 0xFF}},
	{"image/gif", []byte("GIF87a")},
	{"image/gif", []byte("GIF89a")},
	{"image/webp", []byte("RIFF")}, // refined by "WEBP" at offset 8 below
	{"application/pdf", []byte("%PDF-")},
	{"application/zip", []byte{'P', 'K', 0x03, 0x04}},
	{"application/wasm", []byte{0x00, 'a', 's', 'm'}},
	{"audio/mpeg", []byte{0xFF, 0xFB}},
	{"audio/mpeg", []byte("ID3")},
	{"video/mp4", []byte{0x00, 0x00, 0x00}}, // refined by ftyp box check below
}

// extensionTextTypes maps known text/code extensions to a MIME type, used
// for the extension-fallback step of content-type re-detection.
var extensionTextTypes = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".markdown": "text/markdown",
	".json": "application/json",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
	".toml": "application/toml",
	".csv":  "text/csv",
	".xml":  "application/xml",
	".html": "text/html",
	".css":  "text/css",
	".go":   "text/x-go",
	".rs":   "text/x-rust",
	".py":   "text/x-python",
	".js":   "text/javascript",
	".ts":   "text/x-typescript",
	".java": "text/x-java",
	".c":    "text/x-c",
	".h":    "text/x-c",
	".cpp":  "text/x-c++",
	".rb":   "text/x-ruby",
	".sh":   "text/x-shellscript",
	".ps1":  "text/x-powershell",
}

// binaryMediaPrefixes are the claimed content-type families the spec treats
// as "should have matched magic bytes"; a mismatch downgrades to octet-stream.
var binaryMediaPrefixes = []string{
	"image/", "audio/", "video/", "application/pdf", "application/zip",
	"application/wasm", "font/",
}

// sniffMagic returns the MIME type identified by data's leading bytes, or
// "" if none of the known signatures match.
func sniffMagic(data []byte) string {
	if bytes.HasPrefix(data, []byte("RIFF")) && len(data) >= 12 && bytes.Equal(data[8:12], []byte("WEBP")) {
		return "image/webp"
	}
	if len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")) {
		return "video/mp4"
	}
	for _, sig := range magicSignatures {
		if sig.mime == "image/webp" || sig.mime == "video/mp4" {
			continue // handled above with the extra disambiguating check
		}
		if bytes.HasPrefix(data, sig.prefix) {
			return sig.mime
		}
	}
	return ""
}

// DetectContentType re-derives the actual content type of an upload,
// treating the caller-claimed type as advisory only:
//  1. magic-byte sniffing;
//  2. unknown + known text/code extension -> extension mapping;
//  3. unknown + claimed binary media type -> downgrade to octet-stream;
//  4. otherwise trust the claimed type.
func DetectContentType(filename string, data []byte, claimedType string) string {
	if sniffed := sniffMagic(data); sniffed != "" {
		return sniffed
	}

	ext := strings.ToLower(extOf(filename))
	if mapped, ok := extensionTextTypes[ext]; ok {
		return mapped
	}

	for _, prefix := range binaryMediaPrefixes {
		if strings.HasPrefix(claimedType, prefix) {
			return "application/octet-stream"
		}
	}

	if claimedType != "" {
		return claimedType
	}
	return "application/octet-stream"
}
