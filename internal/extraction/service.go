package extraction

import "github.com/fortemi/matric/internal/provider"

// NewDefaultRegistry wires every built-in adapter in the order spec 4.7
// expects them to be tried, with text_native registered last and used as
// the final fallback, so any other adapter claiming the same MIME type or
// extension (code_ast for ".go", structured_extract for ".json") wins.
// visionBackend/visionModel may be nil/empty if no vision-capable provider
// is configured; the vision adapter then returns an error from Extract and
// video/GLB extraction records no frame descriptions, rather than the
// registry itself refusing to build.
func NewDefaultRegistry(visionBackend provider.GenerationBackend, visionModel string) *Registry {
	vision := VisionAdapter{Backend: visionBackend, Model: visionModel}
	audio := AudioTranscribeAdapter{}

	registry := NewRegistry(nil)
	registry.Register(CodeASTAdapter{})
	registry.Register(vision)
	registry.Register(audio)
	registry.Register(VideoMultimodalAdapter{Audio: audio, Vision: vision})
	registry.Register(GLB3DModelAdapter{Vision: vision, Synthesizer: visionBackend})
	registry.Register(PDFTextAdapter{})
	registry.Register(PDFOCRAdapter{})
	registry.Register(OfficeConvertAdapter{})
	registry.Register(StructuredExtractAdapter{})
	registry.Register(TextNativeAdapter{})
	registry.fallback = TextNativeAdapter{}
	return registry
}
