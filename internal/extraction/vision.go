package extraction

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/fortemi/matric/internal/provider"
)

const visionPreviewMaxWidth = 512

const defaultVisionPrompt = "Describe this image in one or two sentences, focusing on its subject matter and any visible text."

// VisionAdapter implements StrategyVision: it delegates to a generation
// backend capable of image input and records the model's natural-language
// description as AIDescription, plus a best-effort EXIF/orientation
// summary and a downscaled preview JPEG.
type VisionAdapter struct {
	Backend provider.GenerationBackend
	Model   string
}

func (VisionAdapter) Strategy() Strategy { return StrategyVision }

func (VisionAdapter) ExactFilenames() []string { return nil }
func (VisionAdapter) MimePrefixes() []string   { return []string{"image/"} }
func (VisionAdapter) Extensions() []string     { return []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp"} }

func (VisionAdapter) MatchesMagic(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}): // JPEG
		return true
	case bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47}): // PNG
		return true
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return true
	}
	return false
}

func (a VisionAdapter) Extract(ctx context.Context, in Input) (Result, error) {
	if a.Backend == nil {
		return Result{}, fmt.Errorf("vision adapter has no generation backend configured")
	}

	img, format, err := image.Decode(bytes.NewReader(in.Bytes))
	if err != nil {
		return Result{}, fmt.Errorf("decode image: %w", err)
	}

	metadata := map[string]any{
		"format": format,
		"width":  img.Bounds().Dx(),
		"height": img.Bounds().Dy(),
	}
	if exifData, err := exif.Decode(bytes.NewReader(in.Bytes)); err == nil {
		if tag, err := exifData.Get(exif.Orientation); err == nil {
			if v, err := tag.Int(0); err == nil {
				metadata["exif_orientation"] = v
			}
		}
	}

	preview, err := renderPreviewJPEG(img)
	if err != nil {
		return Result{}, fmt.Errorf("render preview: %w", err)
	}

	resp, err := a.Backend.Generate(ctx, provider.GenerationRequest{
		Model:  a.Model,
		Prompt: defaultVisionPrompt,
		Images: [][]byte{in.Bytes},
	})
	if err != nil {
		return Result{}, fmt.Errorf("vision backend: %w", err)
	}

	return Result{
		AIDescription: resp.Text,
		Metadata:      metadata,
		PreviewData:   preview,
	}, nil
}

// renderPreviewJPEG downscales img to at most visionPreviewMaxWidth wide,
// preserving aspect ratio, and encodes it as a JPEG thumbnail.
func renderPreviewJPEG(img image.Image) ([]byte, error) {
	width := img.Bounds().Dx()
	var resized image.Image = img
	if width > visionPreviewMaxWidth {
		resized = resize.Resize(uint(visionPreviewMaxWidth), 0, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
