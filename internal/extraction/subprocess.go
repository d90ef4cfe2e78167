package extraction

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/fortemi/matric/internal/matricerr"
)

// maxStderrExcerpt bounds how much of a failed subprocess's stderr is
// surfaced in the returned error, per the subprocess contract in spec 4.7.
const maxStderrExcerpt = 500

// runBounded runs name with args under a hard timeout, writing stdin (if
// non-nil) to the process and returning its stdout. On failure it returns
// an Internal error carrying the first maxStderrExcerpt bytes of stderr.
func runBounded(ctx context.Context, timeout time.Duration, stdin []byte, name string, args ...string) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if runCtx.Err() != nil {
		return nil, matricerr.Internalf(runCtx.Err(), "%s timed out after %s", name, timeout)
	}
	if err != nil {
		excerpt := stderr.String()
		if len(excerpt) > maxStderrExcerpt {
			excerpt = excerpt[:maxStderrExcerpt]
		}
		return nil, matricerr.Internalf(err, "%s failed: %s", name, excerpt)
	}
	return stdout.Bytes(), nil
}

// globFiles returns every file matching pattern, sorted lexically (which,
// for the zero-padded page numbering pdftoppm emits, is page order).
func globFiles(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	return matches, nil
}

// cleanupGlob removes every file matching pattern, best-effort.
func cleanupGlob(pattern string) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return
	}
	for _, m := range matches {
		os.Remove(m)
	}
}

// binaryAvailable reports whether name is on PATH. Health checks use this
// to probe for an external tool's availability; absence is not an error.
func binaryAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// writeTempFile writes data to a new temp file with the given extension and
// returns its path. Many subprocess tools (ffmpeg, tesseract) need a real
// path rather than stdin.
func writeTempFile(data []byte, ext string) (string, error) {
	f, err := os.CreateTemp("", "matric-extract-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	return f.Name(), nil
}
