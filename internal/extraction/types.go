// Package extraction implements the C7 extraction framework: a registry of
// adapters that turn raw attachment bytes into searchable text and
// metadata, selected by filename, MIME type, extension, or content magic
// pattern, falling back to plain text.
package extraction

import (
	"context"
	"encoding/json"
)

// unmarshalConfig decodes an adapter's raw per-call config JSON into dst.
func unmarshalConfig(raw json.RawMessage, dst any) error {
	return json.Unmarshal(raw, dst)
}

// Strategy names one of the built-in extraction adapters. It is stored
// verbatim on the attachment row (see internal/attachment), so values are
// stable identifiers, not display strings.
type Strategy string

const (
	StrategyTextNative       Strategy = "text_native"
	StrategyCodeAST          Strategy = "code_ast"
	StrategyVision           Strategy = "vision"
	StrategyAudioTranscribe  Strategy = "audio_transcribe"
	StrategyVideoMultimodal  Strategy = "video_multimodal"
	StrategyGLB3DModel       Strategy = "glb_3d_model"
	StrategyPDFText          Strategy = "pdf_text"
	StrategyPDFOCR           Strategy = "pdf_ocr"
	StrategyOfficeConvert    Strategy = "office_convert"
	StrategyStructuredExtract Strategy = "structured_extract"
)

// Result is what an adapter hands back. ExtractedText and AIDescription are
// both optional: an adapter fills whichever is meaningful for its input
// kind (a code file sets ExtractedText; a photo sets AIDescription).
type Result struct {
	ExtractedText  string
	Metadata       map[string]any
	AIDescription  string
	PreviewData    []byte
}

// Input bundles everything an adapter needs. Bytes have already passed C2's
// blocklist and magic-byte validation before reaching an adapter.
type Input struct {
	Bytes      []byte
	Filename   string
	MimeType   string
	ConfigJSON json.RawMessage
}

// Adapter implements one extraction strategy.
type Adapter interface {
	Strategy() Strategy
	Extract(ctx context.Context, in Input) (Result, error)
}

// Selector decides whether an adapter applies to a given input, used by the
// registry's selection order before falling back to Adapter.Extract.
type Selector interface {
	// ExactFilenames lists filenames this adapter claims outright (case
	// sensitive), e.g. "Makefile", "Dockerfile". Optional.
	ExactFilenames() []string
	// MimePrefixes lists MIME type prefixes this adapter claims, e.g.
	// "image/", "audio/". Optional.
	MimePrefixes() []string
	// Extensions lists file extensions this adapter claims, including the
	// leading dot, e.g. ".rs", ".py". Optional.
	Extensions() []string
	// MatchesMagic reports whether data's content magic bytes identify it
	// as this adapter's input kind. Optional (return false if unused).
	MatchesMagic(data []byte) bool
}
