// Package ui provides terminal UI components.
//
// All output goes through a Printer whose color setting is fixed when it is
// constructed. Nothing in this package reads or writes a global color flag.
package ui

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// ColorMode is the user's color preference.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode parses a color mode; empty means auto.
func ParseColorMode(s string) (ColorMode, bool) {
	switch ColorMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ColorAuto:
		return ColorAuto, true
	case ColorAlways:
		return ColorAlways, true
	case ColorNever:
		return ColorNever, true
	}
	return "", false
}

// ColorEnabled decides whether to emit color. Explicit modes win. In auto
// mode NO_COLOR disables color, FORCE_COLOR enables it, and otherwise color
// follows whether the output is a terminal.
func ColorEnabled(mode ColorMode, lookupEnv func(string) (string, bool), isTTY bool) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if _, ok := lookupEnv("NO_COLOR"); ok {
		return false
	}
	if v, ok := lookupEnv("FORCE_COLOR"); ok && v != "0" {
		return true
	}
	return isTTY
}

// Styles is the palette used by a Printer.
type Styles struct {
	Title   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
	Bold    lipgloss.Style
	Code    lipgloss.Style
	Accent  lipgloss.Style
	Logo    lipgloss.Style
}

// newRenderer returns a lipgloss renderer pinned to color or plain output
// regardless of what w is.
func newRenderer(w io.Writer, color bool) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return r
}

// NewStyles builds the palette for r.
func NewStyles(r *lipgloss.Renderer, color bool) Styles {
	if !color {
		plain := r.NewStyle()
		return Styles{
			Title:   plain,
			Success: plain,
			Error:   plain,
			Warning: plain,
			Info:    plain,
			Dim:     plain,
			Bold:    plain,
			Code:    plain,
			Accent:  plain,
			Logo:    plain,
		}
	}

	return Styles{
		Title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#9080a0")), // Dark muted purple
		Success: r.NewStyle().Foreground(lipgloss.Color("#6b8c6b")),            // Muted sage green
		Error:   r.NewStyle().Foreground(lipgloss.Color("#c87070")),            // Muted coral red
		Warning: r.NewStyle().Foreground(lipgloss.Color("#c9a866")),            // Muted gold
		Info:    r.NewStyle().Foreground(lipgloss.Color("#8a9fc9")),            // Muted steel blue
		Dim:     r.NewStyle().Foreground(lipgloss.Color("#6a6a74")),
		Bold:    r.NewStyle().Bold(true),
		Code: r.NewStyle().
			Background(lipgloss.Color("#2a2a30")).
			Foreground(lipgloss.Color("#c8c8d0")).
			Padding(0, 1),
		Accent: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#8a9fc9")),
		Logo:   r.NewStyle().Foreground(lipgloss.Color("#9080a0")),
	}
}

// LevelStyle picks the style for a risk label.
func (s Styles) LevelStyle(level string) lipgloss.Style {
	switch level {
	case "HIGH":
		return s.Error
	case "MEDIUM":
		return s.Warning
	default:
		return s.Success
	}
}
