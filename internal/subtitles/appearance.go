package subtitles

import "strings"

// Appearance controls how captions are drawn.
type Appearance struct {
	Color      string `toml:"color"`
	Background string `toml:"background"`
	Bold       bool   `toml:"bold"`
}

// DefaultAppearance is white text without a background.
func DefaultAppearance() Appearance {
	return Appearance{Color: "#FFFFFF"}
}

// Normalize fills an empty color with the default.
func (a Appearance) Normalize() Appearance {
	a.Color = strings.TrimSpace(a.Color)
	a.Background = strings.TrimSpace(a.Background)
	if a.Color == "" {
		a.Color = DefaultAppearance().Color
	}
	return a
}
