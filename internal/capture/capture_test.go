package capture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledByDefault(t *testing.T) {
	t.Setenv(envCaptureDir, "")
	assert.False(t, Enabled())

	// Must be a no-op, not an error.
	WriteJSON("meta", map[string]int{"n": 1})
	WriteText("diff", "raw")
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(envCaptureDir, dir)
	require.True(t, Enabled())

	WriteJSON("meta", map[string]int{"n": 1})
	WriteText("diff", "raw diff text")

	sessionDir := filepath.Join(dir, RunID())
	entries, err := os.ReadDir(sessionDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var sawJSON, sawText bool
	for _, e := range entries {
		switch filepath.Ext(e.Name()) {
		case ".json":
			sawJSON = true
			data, err := os.ReadFile(filepath.Join(sessionDir, e.Name()))
			require.NoError(t, err)
			assert.JSONEq(t, `{"n": 1}`, string(data))
		case ".txt":
			sawText = true
			data, err := os.ReadFile(filepath.Join(sessionDir, e.Name()))
			require.NoError(t, err)
			assert.Equal(t, "raw diff text", string(data))
		}
	}
	assert.True(t, sawJSON)
	assert.True(t, sawText)
}
