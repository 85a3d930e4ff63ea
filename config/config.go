package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/exp/constraints"
)

// AudioConfig controls the output device
type AudioConfig struct {
	SampleRate   int     `json:"sampleRate"`
	MasterVolume float64 `json:"masterVolume"` // 0-100
	BufferMillis int     `json:"bufferMillis,omitempty"`
	Headless     bool    `json:"headless,omitempty"`
}

// MIDIConfig defines controller input and the optional trigger mirror
type MIDIConfig struct {
	InputPorts []string `json:"inputPorts,omitempty"` // substring filters, empty = all
	OutputPort string   `json:"outputPort,omitempty"`
	Channel    int      `json:"channel,omitempty"` // 1-16
	Mirror     bool     `json:"mirror,omitempty"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	LastTempo   int    `json:"lastTempo,omitempty"`
	LastPattern int    `json:"lastPattern,omitempty"`
	Palette     string `json:"palette,omitempty"` // embedded palette name or .gpl path
}

// Config is the main configuration structure
type Config struct {
	Audio AudioConfig `json:"audio"`
	MIDI  MIDIConfig  `json:"midi,omitempty"`
	UI    UIConfig    `json:"ui,omitempty"`
	Debug bool        `json:"debug,omitempty"`

	path string // where Save writes; empty means ConfigPath()
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Audio: AudioConfig{
			SampleRate:   44100,
			MasterVolume: 75,
			BufferMillis: 10,
		},
		MIDI: MIDIConfig{
			Channel: 10, // GM percussion
		},
		UI: UIConfig{
			LastTempo: 128,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "cyberdrum"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads a config file at path. A missing file yields defaults bound
// to that path.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Path returns where Save will write
func (c *Config) Path() (string, error) {
	if c.path != "" {
		return c.path, nil
	}
	return ConfigPath()
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := c.Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Normalize clamps every field into its valid range
func (c *Config) Normalize() {
	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		c.Audio.SampleRate = 44100
	}
	c.Audio.MasterVolume = Clamp(c.Audio.MasterVolume, 0, 100)
	if c.Audio.BufferMillis <= 0 {
		c.Audio.BufferMillis = 10
	}
	c.Audio.BufferMillis = Clamp(c.Audio.BufferMillis, 1, 40)
	if c.MIDI.Channel < 1 || c.MIDI.Channel > 16 {
		c.MIDI.Channel = 10
	}
	if c.UI.LastTempo <= 0 {
		c.UI.LastTempo = 128
	}
	c.UI.LastTempo = Clamp(c.UI.LastTempo, 20, 300)
	if c.UI.LastPattern < 0 || c.UI.LastPattern > 3 {
		c.UI.LastPattern = 0
	}
}

// WantsInput reports whether an input port name passes the configured filters
func (c *Config) WantsInput(portName string) bool {
	if len(c.MIDI.InputPorts) == 0 {
		return true
	}
	name := strings.ToLower(portName)
	for _, f := range c.MIDI.InputPorts {
		if strings.Contains(name, strings.ToLower(f)) {
			return true
		}
	}
	return false
}

// Clamp limits v to [lo, hi]
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
