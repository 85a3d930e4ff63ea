package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	out     io.Writer
	file    *os.File
	mu      sync.Mutex
	enabled bool
)

// DefaultPath returns ~/.config/cyberdrum/debug.log
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cyberdrum", "debug.log")
}

// Enable starts debug logging to path (DefaultPath when empty), truncating it
func Enable(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}
	if path == "" {
		path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("open debug log: %w", err)
	}

	file = f
	out = f
	enabled = true

	// Write directly (can't call Log - we hold the mutex)
	write("debug", "=== Debug logging started ===")
	return nil
}

// SetOutput sends log lines to w instead of a file; nil disables logging
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	closeFile()
	out = w
	enabled = w != nil
}

// Disable stops debug logging
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	closeFile()
	out = nil
	enabled = false
}

// Enabled reports whether Log writes anywhere
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Log writes a message to the debug log
func Log(category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if !enabled || out == nil {
		return
	}
	write(category, fmt.Sprintf(format, args...))
}

// LogEvery logs only every N calls (use for high-frequency events)
var counters = make(map[string]int)

func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	if !enabled {
		mu.Unlock()
		return
	}
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if n <= 1 || count%n == 1 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}

// write assumes mu is held
func write(category, msg string) {
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(out, "[%s] %-10s %s\n", ts, category, msg)
	if file != nil {
		file.Sync() // flush immediately so we see logs even on crash
	}
}

func closeFile() {
	if file != nil {
		file.Close()
		file = nil
	}
}
