package extraction

import (
	"bytes"
	"context"
	"os"
	"strings"
	"time"
)

const (
	pdfSubprocessTimeout = 2 * time.Minute
	// ocrTextDensityThreshold is characters-per-page below which pdf_text
	// output is considered too sparse to be a real text layer, triggering
	// an OCR fallback.
	ocrTextDensityThreshold = 40
)

// PDFTextAdapter implements StrategyPDFText via poppler's pdftotext.
type PDFTextAdapter struct{}

func (PDFTextAdapter) Strategy() Strategy              { return StrategyPDFText }
func (PDFTextAdapter) ExactFilenames() []string        { return nil }
func (PDFTextAdapter) MimePrefixes() []string          { return []string{"application/pdf"} }
func (PDFTextAdapter) Extensions() []string            { return []string{".pdf"} }
func (PDFTextAdapter) MatchesMagic(data []byte) bool   { return bytes.HasPrefix(data, []byte("%PDF-")) }
func (PDFTextAdapter) Healthy() bool                   { return binaryAvailable("pdftotext") }

func (a PDFTextAdapter) Extract(ctx context.Context, in Input) (Result, error) {
	path, err := writeTempFile(in.Bytes, ".pdf")
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(path)

	out, err := runBounded(ctx, pdfSubprocessTimeout, nil, "pdftotext", path, "-")
	if err != nil {
		return Result{}, err
	}
	text := string(out)
	pageCount := strings.Count(text, "\f") + 1 // pdftotext separates pages with a form feed

	if shouldFallbackToOCR(text, pageCount) && PDFOCRAdapter{}.Healthy() {
		ocrResult, ocrErr := (PDFOCRAdapter{}).Extract(ctx, in)
		if ocrErr == nil {
			if ocrResult.Metadata == nil {
				ocrResult.Metadata = map[string]any{}
			}
			ocrResult.Metadata["fallback_reason"] = "text_density_below_threshold"
			return ocrResult, nil
		}
		// OCR attempted and failed: fall through to the sparse text layer
		// below rather than losing the extraction entirely.
	}

	return Result{
		ExtractedText: text,
		Metadata: map[string]any{
			"character_count": len(out),
			"page_count":      pageCount,
			"extraction_mode": "text",
		},
	}, nil
}

// PDFOCRAdapter implements StrategyPDFOCR: it renders each page to an image
// with pdftoppm then OCRs with tesseract. Callers typically invoke this
// only after PDFTextAdapter's output falls below ocrTextDensityThreshold.
type PDFOCRAdapter struct{}

func (PDFOCRAdapter) Strategy() Strategy            { return StrategyPDFOCR }
func (PDFOCRAdapter) ExactFilenames() []string      { return nil }
func (PDFOCRAdapter) MimePrefixes() []string        { return nil }
func (PDFOCRAdapter) Extensions() []string          { return nil }
func (PDFOCRAdapter) MatchesMagic(data []byte) bool { return false }
func (PDFOCRAdapter) Healthy() bool                 { return binaryAvailable("pdftoppm") && binaryAvailable("tesseract") }

func (a PDFOCRAdapter) Extract(ctx context.Context, in Input) (Result, error) {
	pdfPath, err := writeTempFile(in.Bytes, ".pdf")
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(pdfPath)

	imgPrefix := pdfPath + "-page"
	if _, err := runBounded(ctx, pdfSubprocessTimeout, nil, "pdftoppm", "-png", "-r", "200", pdfPath, imgPrefix); err != nil {
		return Result{}, err
	}
	defer cleanupGlob(imgPrefix + "*.png")

	pages, err := globFiles(imgPrefix + "*.png")
	if err != nil {
		return Result{}, err
	}

	var combined strings.Builder
	for _, page := range pages {
		out, err := runBounded(ctx, pdfSubprocessTimeout, nil, "tesseract", page, "stdout")
		if err != nil {
			return Result{}, err
		}
		combined.Write(out)
		combined.WriteByte('\n')
	}

	return Result{
		ExtractedText: combined.String(),
		Metadata: map[string]any{
			"page_count":      len(pages),
			"extraction_mode": "ocr",
		},
	}, nil
}

// shouldFallbackToOCR reports whether pdf_text's output is too sparse to
// trust, per spec 4.7's density threshold.
func shouldFallbackToOCR(extractedText string, pageCount int) bool {
	if pageCount <= 0 {
		pageCount = 1
	}
	return len(extractedText)/pageCount < ocrTextDensityThreshold
}
