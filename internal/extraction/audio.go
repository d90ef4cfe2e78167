package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// whisperTimeout bounds how long the transcription subprocess may run.
const whisperTimeout = 5 * time.Minute

// Segment is one transcribed span, matching the spec's
// {start, end, text} shape.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type whisperJSON struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// AudioTranscribeAdapter implements StrategyAudioTranscribe by shelling out
// to whisper.cpp's "whisper" CLI (or a compatible drop-in that accepts a
// WAV path and --output-json). Healthy reports whether the binary is on
// PATH; Extract returns an Internal error when the binary cannot be run.
type AudioTranscribeAdapter struct {
	// BinaryName is the whisper-compatible executable to invoke; defaults
	// to "whisper" when empty.
	BinaryName string
}

func (AudioTranscribeAdapter) Strategy() Strategy { return StrategyAudioTranscribe }

func (AudioTranscribeAdapter) ExactFilenames() []string { return nil }
func (AudioTranscribeAdapter) MimePrefixes() []string   { return []string{"audio/"} }
func (AudioTranscribeAdapter) Extensions() []string {
	return []string{".mp3", ".wav", ".flac", ".ogg", ".m4a"}
}

func (AudioTranscribeAdapter) MatchesMagic(data []byte) bool {
	return bytes.HasPrefix(data, []byte("RIFF")) || bytes.HasPrefix(data, []byte("ID3")) ||
		bytes.HasPrefix(data, []byte("fLaC")) || bytes.HasPrefix(data, []byte("OggS"))
}

// Healthy reports whether the whisper binary is available on PATH.
func (a AudioTranscribeAdapter) Healthy() bool {
	return binaryAvailable(a.binary())
}

func (a AudioTranscribeAdapter) binary() string {
	if a.BinaryName != "" {
		return a.BinaryName
	}
	return "whisper"
}

func (a AudioTranscribeAdapter) Extract(ctx context.Context, in Input) (Result, error) {
	path, err := writeTempFile(in.Bytes, extensionOf(in.Filename))
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(path)

	jsonPath := path + ".json"
	defer os.Remove(jsonPath)

	_, err = runBounded(ctx, whisperTimeout, nil, a.binary(),
		"--output-json", "--output-file", path, "--file", path)
	if err != nil {
		return Result{}, err
	}

	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return Result{}, fmt.Errorf("read transcription output: %w", err)
	}
	var parsed whisperJSON
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Result{}, fmt.Errorf("parse transcription output: %w", err)
	}

	segments := make([]Segment, len(parsed.Segments))
	var duration float64
	for i, s := range parsed.Segments {
		segments[i] = Segment{Start: s.Start, End: s.End, Text: s.Text}
		if s.End > duration {
			duration = s.End
		}
	}

	return Result{
		ExtractedText: parsed.Text,
		Metadata: map[string]any{
			"segments": segments,
			"language": parsed.Language,
			"duration": duration,
		},
	}, nil
}
