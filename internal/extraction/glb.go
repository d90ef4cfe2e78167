package extraction

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fortemi/matric/internal/provider"
)

const (
	glbSubprocessTimeout = 5 * time.Minute
	defaultCameraViews   = 6
	maxCameraViews       = 15
)

// glbRenderScript is the blender Python driver invoked in background mode
// to render N camera views of a GLB/GLTF model from points on a circle of
// fixed radius (4.0) around the scene origin.
// It is embedded rather than shipped as a separate asset file so the
// extraction package has no runtime dependency beyond the blender binary.
const glbRenderScript = `
import bpy, sys, math, os

argv = sys.argv[sys.argv.index("--") + 1:]
model_path, out_prefix, n_views = argv[0], argv[1], int(argv[2])

bpy.ops.object.select_all(action="SELECT")
bpy.ops.object.delete()
bpy.ops.import_scene.gltf(filepath=model_path)

bpy.ops.object.camera_add()
cam = bpy.context.object
bpy.context.scene.camera = cam

radius = 4.0
for i in range(n_views):
    angle = 2 * math.pi * i / n_views
    cam.location = (radius * math.cos(angle), radius * math.sin(angle), radius * 0.4)
    direction = -cam.location
    cam.rotation_euler = direction.to_track_quat("-Z", "Y").to_euler()
    bpy.context.scene.render.filepath = f"{out_prefix}-{i:03d}.png"
    bpy.ops.render.render(write_still=True)
`

// GLB3DModelAdapter implements StrategyGLB3DModel: it renders N camera
// views of a GLB/GLTF model headlessly via blender, describes each view
// with a vision backend, and synthesises a composite description.
type GLB3DModelAdapter struct {
	Vision      VisionAdapter
	Synthesizer provider.GenerationBackend
}

func (GLB3DModelAdapter) Strategy() Strategy { return StrategyGLB3DModel }

func (GLB3DModelAdapter) ExactFilenames() []string      { return nil }
func (GLB3DModelAdapter) MimePrefixes() []string        { return []string{"model/gltf-binary", "model/gltf+json"} }
func (GLB3DModelAdapter) Extensions() []string          { return []string{".glb", ".gltf"} }
func (GLB3DModelAdapter) MatchesMagic(data []byte) bool { return bytes.HasPrefix(data, []byte("glTF")) }
func (GLB3DModelAdapter) Healthy() bool                 { return binaryAvailable("blender") }

type glbConfig struct {
	CameraViews int `json:"camera_views"`
}

func (a GLB3DModelAdapter) Extract(ctx context.Context, in Input) (Result, error) {
	views := defaultCameraViews
	var cfg glbConfig
	if len(in.ConfigJSON) > 0 {
		if err := unmarshalConfig(in.ConfigJSON, &cfg); err == nil && cfg.CameraViews > 0 {
			views = cfg.CameraViews
		}
	}
	if views > maxCameraViews {
		views = maxCameraViews
	}

	modelPath, err := writeTempFile(in.Bytes, extensionOf(in.Filename))
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(modelPath)

	scriptPath, err := writeTempFile([]byte(glbRenderScript), ".py")
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(scriptPath)

	framePrefix := modelPath + "-view"
	if _, err := runBounded(ctx, glbSubprocessTimeout, nil, "blender", "--background",
		"--python", scriptPath, "--", modelPath, framePrefix, fmt.Sprintf("%d", views)); err != nil {
		return Result{}, fmt.Errorf("render camera views: %w", err)
	}
	defer cleanupGlob(framePrefix + "*.png")

	frames, err := globFiles(framePrefix + "*.png")
	if err != nil {
		return Result{}, err
	}

	var descriptions []string
	for _, frame := range frames {
		data, readErr := os.ReadFile(frame)
		if readErr != nil {
			continue
		}
		result, err := a.Vision.Extract(ctx, Input{Bytes: data, Filename: "view.png", MimeType: "image/png"})
		if err != nil {
			continue
		}
		descriptions = append(descriptions, result.AIDescription)
	}

	composite := strings.Join(descriptions, "\n")
	if a.Synthesizer != nil && len(descriptions) > 0 {
		prompt := "Synthesize a single concise description of a 3D model from these per-view descriptions:\n" + composite
		if resp, err := a.Synthesizer.Generate(ctx, provider.GenerationRequest{Prompt: prompt}); err == nil {
			composite = resp.Text
		}
	}

	return Result{
		AIDescription: composite,
		Metadata: map[string]any{
			"camera_view_count":  len(frames),
			"view_descriptions":  descriptions,
		},
	}, nil
}
