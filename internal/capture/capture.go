// Package capture records the inputs and outputs of a run as JSON artifacts
// for building fixtures. It is off unless DIFFRISK_CAPTURE_DIR is set.
package capture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// envCaptureDir controls capture output; unset means disabled.
const envCaptureDir = "DIFFRISK_CAPTURE_DIR"

var (
	runID      = uuid.NewString()
	captureSeq uint64
)

// RunID identifies this process's capture session.
func RunID() string {
	return runID
}

// Enabled reports whether capture is active.
func Enabled() bool {
	return os.Getenv(envCaptureDir) != ""
}

// WriteJSON marshals payload and drops it in the capture directory under the
// given category. Failures are logged, never fatal.
func WriteJSON(category string, payload interface{}) {
	dir := os.Getenv(envCaptureDir)
	if dir == "" {
		return
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		log.Warn().Err(err).Str("category", category).Msg("capture: marshal failed")
		return
	}
	writeFile(dir, category, "json", data)
}

// WriteText drops raw text (for example the fetched diff) in the capture
// directory under the given category.
func WriteText(category, text string) {
	dir := os.Getenv(envCaptureDir)
	if dir == "" {
		return
	}
	writeFile(dir, category, "txt", []byte(text))
}

func writeFile(dir, category, ext string, data []byte) {
	seq := atomic.AddUint64(&captureSeq, 1)
	sessionDir := filepath.Join(dir, runID)
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		log.Warn().Err(err).Str("dir", sessionDir).Msg("capture: failed to create directory")
		return
	}

	path := filepath.Join(sessionDir, fmt.Sprintf("%s-%04d.%s", category, seq, ext))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("capture: failed to write artifact")
		return
	}
	log.Debug().Str("path", path).Msg("capture: wrote artifact")
}
