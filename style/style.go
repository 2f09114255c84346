// Package style provides a functional API for composing lipgloss styles in CLI output.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/streamscout/streamscout/color"
)

// New returns an empty lipgloss.Style.
func New() lipgloss.Style {
	return lipgloss.NewStyle()
}

// Fg returns a renderer applying the foreground color c.
func Fg(c lipgloss.Color) func(string) string {
	return func(s string) string { return New().Foreground(c).Render(s) }
}

// Tag returns a renderer that wraps a string in a padded colored block.
func Tag(fg, bg lipgloss.Color) func(string) string {
	return func(s string) string { return New().Foreground(fg).Background(bg).Padding(0, 1).Render(s) }
}

var (
	Faint  = func(s string) string { return New().Faint(true).Render(s) }
	Bold   = func(s string) string { return New().Bold(true).Render(s) }
	Italic = func(s string) string { return New().Italic(true).Render(s) }
)

// Language renders a language hint with a color per tag.
func Language(lang string) string {
	switch lang {
	case "VF":
		return Tag(color.New("0"), color.HiBlue)(lang)
	case "VOSTFR":
		return Tag(color.New("0"), color.HiYellow)(lang)
	case "":
		return ""
	default:
		return Tag(color.New("0"), color.Gray)(lang)
	}
}
