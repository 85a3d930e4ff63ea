package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"cyberdrum/theme"
)

// StepGrid is everything needed to draw the step editor
type StepGrid struct {
	Labels    []string
	Cells     [][]bool
	CursorRow int
	CursorCol int
	Playhead  int // -1 when stopped
	BeatEvery int // extra gap after every n steps, 0 for none
}

// RenderStepGrid draws one line per row: the label then one symbol per step
func RenderStepGrid(g StepGrid, th *theme.Theme) string {
	labelStyle := lipgloss.NewStyle().Foreground(th.FG()).Width(labelWidth(g.Labels) + 1)
	selectedLabel := labelStyle.Foreground(th.Accent()).Bold(true)
	emptyStyle := lipgloss.NewStyle().Foreground(th.Muted())
	activeStyle := lipgloss.NewStyle().Foreground(th.Active())
	playStyle := lipgloss.NewStyle().Foreground(th.Success())
	cursorStyle := lipgloss.NewStyle().Foreground(th.Cursor()).Bold(true)

	sym := th.Symbols
	lines := make([]string, 0, len(g.Cells))
	for row, cells := range g.Cells {
		var line strings.Builder

		label := ""
		if row < len(g.Labels) {
			label = g.Labels[row]
		}
		if row == g.CursorRow {
			line.WriteString(selectedLabel.Render(label))
		} else {
			line.WriteString(labelStyle.Render(label))
		}

		for col, on := range cells {
			if col > 0 {
				line.WriteString(" ")
				if g.BeatEvery > 0 && col%g.BeatEvery == 0 {
					line.WriteString(" ")
				}
			}

			cursor := row == g.CursorRow && col == g.CursorCol
			playing := col == g.Playhead

			var r rune
			style := emptyStyle
			switch {
			case cursor && playing:
				r, style = sym.CursorPlayhead, cursorStyle
			case cursor && on:
				r, style = sym.CursorActive, cursorStyle
			case cursor:
				r, style = sym.CursorEmpty, cursorStyle
			case playing && on:
				r, style = sym.StepActive, playStyle
			case playing:
				r, style = sym.StepPlayhead, playStyle
			case on:
				r, style = sym.StepActive, activeStyle
			default:
				r = sym.StepEmpty
			}
			line.WriteString(style.Render(string(r)))
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// RenderMeter draws "LABEL ████░░░░ value" for v within [lo, hi]
func RenderMeter(label string, v, lo, hi float64, width int, th *theme.Theme) string {
	frac := 0.0
	if hi > lo {
		frac = (v - lo) / (hi - lo)
	}
	frac = max(0, min(1, frac))
	filled := int(frac*float64(width) + 0.5)

	bar := lipgloss.NewStyle().Foreground(th.Color(0.3 + 0.7*frac)).
		Render(strings.Repeat(string(th.Symbols.Solid), filled))
	rest := lipgloss.NewStyle().Foreground(th.Muted()).
		Render(strings.Repeat(string(th.Symbols.Empty), width-filled))

	return fmt.Sprintf("%-6s %s%s %5.2f", label, bar, rest, v)
}

// RenderTabs draws numbered tabs; the selected one is highlighted and tabs
// with content are marked.
func RenderTabs(n, selected int, used []bool, th *theme.Theme) string {
	on := lipgloss.NewStyle().Foreground(th.BG()).Background(th.Accent()).Bold(true)
	off := lipgloss.NewStyle().Foreground(th.FG())
	dim := lipgloss.NewStyle().Foreground(th.Muted())

	var out strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			out.WriteString(" ")
		}
		label := fmt.Sprintf(" %d ", i+1)
		switch {
		case i == selected:
			out.WriteString(on.Render(label))
		case i < len(used) && used[i]:
			out.WriteString(off.Render(label))
		default:
			out.WriteString(dim.Render(label))
		}
	}
	return out.String()
}

func labelWidth(labels []string) int {
	w := 0
	for _, l := range labels {
		w = max(w, lipgloss.Width(l))
	}
	return w
}
