package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyberdrum/voice"
)

func TestParseTypes(t *testing.T) {
	all, err := parseTypes(nil)
	require.NoError(t, err)
	assert.Len(t, all, voice.NumTypes)

	some, err := parseTypes([]string{"kick", "ZAP"})
	require.NoError(t, err)
	assert.Equal(t, []voice.Type{voice.Kick, voice.Zap}, some)

	_, err = parseTypes([]string{"cowbell"})
	assert.ErrorIs(t, err, voice.ErrUnknownType)
}

func TestRenderCommandWritesFiles(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"render", "--rate", "8000", "--out", dir, "snare", "hihat"})
	require.NoError(t, rootCmd.Execute())

	for _, name := range []string{"snare.wav", "hihat.wav"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(44))
	}
	assert.Contains(t, out.String(), "Snare")
}
