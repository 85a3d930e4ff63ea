package theme

import (
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Meters
	Solid rune // █ filled
	Empty rune // ░ unfilled

	// Grid states (no cursor)
	StepEmpty    rune // · inactive step
	StepActive   rune // ● has hit
	StepPlayhead rune // ▶ current playing

	// Grid states (with cursor)
	CursorEmpty    rune // ○ cursor on empty
	CursorActive   rune // ◉ cursor on active
	CursorPlayhead rune // ▷ cursor on playhead
}

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = Default()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Solid: '█',
			Empty: '░',

			StepEmpty:    '·',
			StepActive:   '●',
			StepPlayhead: '▶',

			CursorEmpty:    '○',
			CursorActive:   '◉',
			CursorPlayhead: '▷',
		},
	}
}

// Load returns a theme from an embedded palette name or a .gpl path, or the
// embedded default when path is empty.
func Load(path string) (*Theme, error) {
	if path == "" {
		return New(Default()), nil
	}
	if p, err := Embedded(path); err == nil {
		return New(p), nil
	}
	p, err := LoadGPL(path)
	if err != nil {
		return nil, err
	}
	return New(p), nil
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0 // deep purple
	RoleSurface = 0.1 // dark purple
	RoleMuted   = 0.2 // purple-magenta
	RoleFG      = 0.4 // pink-purple (readable)
	RoleAccent  = 0.5 // vivid magenta
	RoleCursor  = 0.6 // rose pink
	RoleActive  = 0.7 // soft red
	RoleWarning = 0.8 // orange
	RoleSuccess = 1.0 // bright yellow
)

// Style helpers

func (t *Theme) BG() lipgloss.Color {
	return t.Color(RoleBG)
}

func (t *Theme) Surface() lipgloss.Color {
	return t.Color(RoleSurface)
}

func (t *Theme) FG() lipgloss.Color {
	return t.Color(RoleFG)
}

func (t *Theme) Accent() lipgloss.Color {
	return t.Color(RoleAccent)
}

func (t *Theme) Muted() lipgloss.Color {
	return t.Color(RoleMuted)
}

func (t *Theme) Active() lipgloss.Color {
	return t.Color(RoleActive)
}

func (t *Theme) Cursor() lipgloss.Color {
	return t.Color(RoleCursor)
}

func (t *Theme) Warning() lipgloss.Color {
	return t.Color(RoleWarning)
}

func (t *Theme) Success() lipgloss.Color {
	return t.Color(RoleSuccess)
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return lipgloss.Color(t.Palette.Lookup(norm).Hex())
}

// RGB returns raw RGB for any normalized value
func (t *Theme) RGB(norm float64) RGB {
	return t.Palette.Lookup(norm)
}
