package render

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	text     = lipgloss.Color("#cdd6f4")
	subtext  = lipgloss.Color("#a6adc8")
	surface  = lipgloss.Color("#45475a")
	lavender = lipgloss.Color("#b4befe")
	sapphire = lipgloss.Color("#74c7ec")
	green    = lipgloss.Color("#a6e3a1")
	peach    = lipgloss.Color("#fab387")
	red      = lipgloss.Color("#f38ba8")
)

// Theme holds the styles bound to one output. Colors are dropped when the
// output is not a terminal.
type Theme struct {
	Heading lipgloss.Style
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Active  lipgloss.Style
	Soon    lipgloss.Style
	Locked  lipgloss.Style
	Label   lipgloss.Style
	Card    lipgloss.Style
}

func NewTheme(w io.Writer) Theme {
	r := lipgloss.NewRenderer(w)
	return Theme{
		Heading: r.NewStyle().Foreground(sapphire).Bold(true),
		Title:   r.NewStyle().Foreground(text).Bold(true),
		Muted:   r.NewStyle().Foreground(subtext),
		Active:  r.NewStyle().Foreground(green).Bold(true),
		Soon:    r.NewStyle().Foreground(peach),
		Locked:  r.NewStyle().Foreground(red),
		Label:   r.NewStyle().Foreground(lavender).Width(14),
		Card: r.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(surface).
			Padding(0, 1),
	}
}
