package extraction

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const officeConvertTimeout = 3 * time.Minute

// OfficeConvertAdapter implements StrategyOfficeConvert: it shells out to a
// headless LibreOffice to convert docx/xlsx/pptx to plain text.
type OfficeConvertAdapter struct{}

func (OfficeConvertAdapter) Strategy() Strategy { return StrategyOfficeConvert }

func (OfficeConvertAdapter) ExactFilenames() []string { return nil }
func (OfficeConvertAdapter) MimePrefixes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument",
		"application/msword",
		"application/vnd.ms-excel",
		"application/vnd.ms-powerpoint",
	}
}
func (OfficeConvertAdapter) Extensions() []string {
	return []string{".docx", ".xlsx", ".pptx", ".doc", ".xls", ".ppt"}
}
func (OfficeConvertAdapter) MatchesMagic(data []byte) bool { return false }
func (OfficeConvertAdapter) Healthy() bool                 { return binaryAvailable("soffice") }

func (a OfficeConvertAdapter) Extract(ctx context.Context, in Input) (Result, error) {
	inPath, err := writeTempFile(in.Bytes, extensionOf(in.Filename))
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(inPath)

	outDir := filepath.Dir(inPath)
	if _, err := runBounded(ctx, officeConvertTimeout, nil, "soffice",
		"--headless", "--convert-to", "txt:Text", "--outdir", outDir, inPath); err != nil {
		return Result{}, err
	}

	outPath := strings.TrimSuffix(inPath, filepath.Ext(inPath)) + ".txt"
	defer os.Remove(outPath)

	text, err := os.ReadFile(outPath)
	if err != nil {
		return Result{}, fmt.Errorf("read converted output: %w", err)
	}

	return Result{
		ExtractedText: string(text),
		Metadata: map[string]any{
			"source_extension": extensionOf(in.Filename),
			"character_count":  len(text),
		},
	}, nil
}
