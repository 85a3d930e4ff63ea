package theme

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

//go:embed palettes/*.gpl
var palettes embed.FS

// DefaultPaletteName is the embedded palette used when none is configured
const DefaultPaletteName = "cyber"

type RGB [3]uint8

type Palette struct {
	Name   string
	Colors []RGB
}

// Default returns the embedded default palette
func Default() *Palette {
	p, err := Embedded(DefaultPaletteName)
	if err != nil {
		panic(fmt.Sprintf("embedded palette %s: %v", DefaultPaletteName, err))
	}
	return p
}

// Embedded loads a palette shipped with the binary
func Embedded(name string) (*Palette, error) {
	data, err := palettes.ReadFile("palettes/" + name + ".gpl")
	if err != nil {
		return nil, err
	}
	return ParseGPL(bytes.NewReader(data), name)
}

// LoadGPL reads a GIMP palette file
func LoadGPL(path string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseGPL(f, path)
}

// ParseGPL parses GIMP palette text; source names it in errors
func ParseGPL(r io.Reader, source string) (*Palette, error) {
	p := &Palette{}
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "Name:") {
			p.Name = strings.TrimSpace(strings.TrimPrefix(line, "Name:"))
			continue
		}

		// Skip headers and comments
		if line == "" || line[0] == '#' || strings.HasPrefix(line, "GIMP") || strings.HasPrefix(line, "Columns") {
			continue
		}

		// Parse RGB values (first 3 fields are R G B)
		fields := strings.Fields(line)
		if len(fields) >= 3 {
			r, err1 := strconv.Atoi(fields[0])
			g, err2 := strconv.Atoi(fields[1])
			b, err3 := strconv.Atoi(fields[2])
			if err1 == nil && err2 == nil && err3 == nil {
				p.Colors = append(p.Colors, RGB{clampByte(r), clampByte(g), clampByte(b)})
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(p.Colors) == 0 {
		return nil, fmt.Errorf("no colors found in palette %s", source)
	}

	return p, nil
}

// Lookup returns the color at normalized position 0-1, blended in Lab space
// between the two nearest entries.
func (p *Palette) Lookup(norm float64) RGB {
	if norm <= 0 || len(p.Colors) == 1 {
		return p.Colors[0]
	}
	if norm >= 1 {
		return p.Colors[len(p.Colors)-1]
	}

	pos := norm * float64(len(p.Colors)-1)
	i := int(pos)
	frac := pos - float64(i)
	if frac == 0 {
		return p.Colors[i]
	}

	c := p.Colors[i].colorful().BlendLab(p.Colors[i+1].colorful(), frac).Clamped()
	r, g, b := c.RGB255()
	return RGB{r, g, b}
}

// Index returns color at specific index (no interpolation)
func (p *Palette) Index(i int) RGB {
	if i < 0 {
		return p.Colors[0]
	}
	if i >= len(p.Colors) {
		return p.Colors[len(p.Colors)-1]
	}
	return p.Colors[i]
}

// Hex formats c as #rrggbb
func (c RGB) Hex() string {
	return c.colorful().Hex()
}

func (c RGB) colorful() colorful.Color {
	return colorful.Color{R: float64(c[0]) / 255, G: float64(c[1]) / 255, B: float64(c[2]) / 255}
}

func clampByte(v int) uint8 {
	return uint8(max(0, min(255, v)))
}
