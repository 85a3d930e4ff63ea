package debug

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogDisabledByDefault(t *testing.T) {
	Disable()
	Log("sched", "nothing %d", 1)
	assert.False(t, Enabled())
}

func TestLogFormat(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer Disable()

	Log("sched", "step=%d", 3)
	line := buf.String()
	assert.Contains(t, line, "sched")
	assert.Contains(t, line, "step=3")
	assert.True(t, strings.HasPrefix(line, "["))
}

func TestLogEveryRateLimits(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer Disable()

	for i := 0; i < 10; i++ {
		LogEvery(5, "audio", "overrun")
	}
	assert.Equal(t, 2, strings.Count(buf.String(), "overrun"))
}

func TestEnableWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")
	require.NoError(t, Enable(path))
	Log("config", "loaded")
	Disable()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Debug logging started")
	assert.Contains(t, string(data), "loaded")
}
