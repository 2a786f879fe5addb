package output

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles used by commands.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
	StatusPending lipgloss.Style

	Critical lipgloss.Style
	Major    lipgloss.Style
	Minor    lipgloss.Style

	FilePath lipgloss.Style
}

// NewStyles creates styles bound to r's color profile.
func NewStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Header1: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2: r.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		Bold:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("8")),

		Success: r.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: r.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("9")),
		Info:    r.NewStyle().Foreground(lipgloss.Color("12")),

		StatusSuccess: r.NewStyle().Foreground(lipgloss.Color("10")).SetString("✓"),
		StatusFailed:  r.NewStyle().Foreground(lipgloss.Color("9")).SetString("✗"),
		StatusPending: r.NewStyle().Foreground(lipgloss.Color("8")).SetString("•"),

		Critical: r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		Major:    r.NewStyle().Foreground(lipgloss.Color("11")),
		Minor:    r.NewStyle().Foreground(lipgloss.Color("12")),

		FilePath: r.NewStyle().Foreground(lipgloss.Color("13")),
	}
}

// Severity returns the style for a severity name.
func (s *Styles) Severity(severity string) lipgloss.Style {
	switch severity {
	case "critical":
		return s.Critical
	case "major":
		return s.Major
	case "minor":
		return s.Minor
	default:
		return s.Muted
	}
}

// Score returns the style for a 0-100 score.
func (s *Styles) Score(score int) lipgloss.Style {
	switch {
	case score >= 90:
		return s.Success
	case score >= 70:
		return s.Warning
	default:
		return s.Error
	}
}
