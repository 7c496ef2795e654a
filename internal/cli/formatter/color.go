// Package formatter renders month reports as aligned terminal tables.
package formatter

import "github.com/charmbracelet/lipgloss"

var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorDim    = lipgloss.Color("#928374")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Styler holds the styles of one rendering. The plain styler leaves text
// untouched so piped output carries no escape sequences.
type Styler struct {
	Header lipgloss.Style
	Title  lipgloss.Style
	Dim    lipgloss.Style
	Good   lipgloss.Style
	Warn   lipgloss.Style
	Bad    lipgloss.Style
}

func NewStyler(color bool) Styler {
	if !color {
		plain := lipgloss.NewStyle()
		return Styler{Header: plain, Title: plain, Dim: plain, Good: plain, Warn: plain, Bad: plain}
	}
	return Styler{
		Header: lipgloss.NewStyle().Foreground(ColorHeader).Bold(true),
		Title:  lipgloss.NewStyle().Bold(true),
		Dim:    lipgloss.NewStyle().Foreground(ColorDim),
		Good:   lipgloss.NewStyle().Foreground(ColorGreen),
		Warn:   lipgloss.NewStyle().Foreground(ColorYellow),
		Bad:    lipgloss.NewStyle().Foreground(ColorRed),
	}
}

// Attendance colours a percentage: 90 and up is good, 75 and up a warning.
func (s Styler) Attendance(pct float64) lipgloss.Style {
	switch {
	case pct >= 90:
		return s.Good
	case pct >= 75:
		return s.Warn
	default:
		return s.Bad
	}
}
