package extraction

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	videoSubprocessTimeout  = 5 * time.Minute
	defaultKeyframeInterval = 10 // seconds
	maxKeyframes            = 12
)

// VideoMultimodalAdapter implements StrategyVideoMultimodal: it extracts
// the audio track for transcription and samples keyframes at a configurable
// interval for per-frame vision description, then fuses both into one
// extracted text plus structured metadata.
type VideoMultimodalAdapter struct {
	Audio  AudioTranscribeAdapter
	Vision VisionAdapter
}

func (VideoMultimodalAdapter) Strategy() Strategy { return StrategyVideoMultimodal }

func (VideoMultimodalAdapter) ExactFilenames() []string      { return nil }
func (VideoMultimodalAdapter) MimePrefixes() []string        { return []string{"video/"} }
func (VideoMultimodalAdapter) Extensions() []string          { return []string{".mp4", ".mov", ".mkv", ".webm", ".avi"} }
func (VideoMultimodalAdapter) MatchesMagic(data []byte) bool { return false }
func (VideoMultimodalAdapter) Healthy() bool                 { return binaryAvailable("ffmpeg") }

type videoConfig struct {
	KeyframeIntervalSecs int `json:"keyframe_interval_secs"`
}

func (a VideoMultimodalAdapter) Extract(ctx context.Context, in Input) (Result, error) {
	interval := defaultKeyframeInterval
	var cfg videoConfig
	if len(in.ConfigJSON) > 0 {
		if err := unmarshalConfig(in.ConfigJSON, &cfg); err == nil && cfg.KeyframeIntervalSecs > 0 {
			interval = cfg.KeyframeIntervalSecs
		}
	}

	videoPath, err := writeTempFile(in.Bytes, extensionOf(in.Filename))
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(videoPath)

	audioPath := videoPath + ".wav"
	defer os.Remove(audioPath)
	if _, err := runBounded(ctx, videoSubprocessTimeout, nil, "ffmpeg", "-y", "-i", videoPath,
		"-ar", "16000", "-ac", "1", "-vn", audioPath); err != nil {
		return Result{}, fmt.Errorf("extract audio track: %w", err)
	}

	var transcript string
	if audioBytes, readErr := os.ReadFile(audioPath); readErr == nil {
		if result, err := a.Audio.Extract(ctx, Input{Bytes: audioBytes, Filename: "audio.wav", MimeType: "audio/wav"}); err == nil {
			transcript = result.ExtractedText
		}
	}

	framePrefix := videoPath + "-frame"
	if _, err := runBounded(ctx, videoSubprocessTimeout, nil, "ffmpeg", "-y", "-i", videoPath,
		"-vf", fmt.Sprintf("fps=1/%d", interval), "-frames:v", fmt.Sprintf("%d", maxKeyframes),
		framePrefix+"-%03d.jpg"); err != nil {
		return Result{}, fmt.Errorf("extract keyframes: %w", err)
	}
	defer cleanupGlob(framePrefix + "*.jpg")

	frames, err := globFiles(framePrefix + "*.jpg")
	if err != nil {
		return Result{}, err
	}

	var descriptions []string
	for _, frame := range frames {
		data, readErr := os.ReadFile(frame)
		if readErr != nil {
			continue
		}
		result, err := a.Vision.Extract(ctx, Input{Bytes: data, Filename: filepath.Base(frame), MimeType: "image/jpeg"})
		if err != nil {
			continue
		}
		descriptions = append(descriptions, result.AIDescription)
	}

	fused := strings.TrimSpace(transcript + "\n\n" + strings.Join(descriptions, "\n"))

	return Result{
		ExtractedText: fused,
		Metadata: map[string]any{
			"keyframe_count":         len(frames),
			"keyframe_interval_secs": interval,
			"frame_descriptions":     descriptions,
		},
	}, nil
}
