package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BgStyle renders text segments on a fixed background color. Lipgloss resets
// the background after every styled segment, so separators and padding have
// to be rendered with the same background explicitly.
type BgStyle struct {
	bg   lipgloss.Color
	base lipgloss.Style
}

// NewBgStyle returns a BgStyle for the given background color.
func NewBgStyle(bg string) BgStyle {
	c := lipgloss.Color(bg)
	return BgStyle{bg: c, base: lipgloss.NewStyle().Background(c)}
}

// Render draws text with style on the background.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	return style.Background(b.bg).Render(text)
}

// Space returns a single background-colored space.
func (b BgStyle) Space() string {
	return b.base.Render(" ")
}

// Spaces returns n background-colored spaces.
func (b BgStyle) Spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return b.base.Render(strings.Repeat(" ", n))
}

// Sep renders a plain separator on the background.
func (b BgStyle) Sep(s string) string {
	return b.base.Render(s)
}

// Join concatenates parts with sep, skipping empty parts.
func (b BgStyle) Join(parts []string, sep string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// FillLine pads line with background-colored spaces up to width.
func (b BgStyle) FillLine(line string, width int) string {
	gap := width - lipgloss.Width(line)
	if gap <= 0 {
		return line
	}
	return line + b.Spaces(gap)
}
