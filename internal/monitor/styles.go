package monitor

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/s22625/ciwatch/internal/model"
)

// Color palette
var (
	colorGreen   = lipgloss.Color("42")
	colorYellow  = lipgloss.Color("214")
	colorRed     = lipgloss.Color("196")
	colorGray    = lipgloss.Color("245")
	colorMagenta = lipgloss.Color("165")
	colorWhite   = lipgloss.Color("255")
	colorBorder  = lipgloss.Color("240")
)

// Styles defines the visual styles for the dashboard
type Styles struct {
	Box       lipgloss.Style
	Title     lipgloss.Style
	Header    lipgloss.Style
	Text      lipgloss.Style
	Muted     lipgloss.Style
	Selected  lipgloss.Style
	Warning   lipgloss.Style
	Banner    lipgloss.Style
	Status    map[model.JobStatus]lipgloss.Style
	Indicator map[model.JobStatus]string
}

// DefaultStyles returns the default style configuration
func DefaultStyles() Styles {
	return Styles{
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorGray),

		Text: lipgloss.NewStyle().
			Foreground(colorWhite),

		Muted: lipgloss.NewStyle().
			Foreground(colorGray),

		Selected: lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.Color("236")).
			Foreground(colorWhite),

		Warning: lipgloss.NewStyle().
			Foreground(colorYellow),

		Banner: lipgloss.NewStyle().
			Bold(true),

		Status: map[model.JobStatus]lipgloss.Style{
			model.JobStatusOK:       lipgloss.NewStyle().Foreground(colorGreen),
			model.JobStatusFailing:  lipgloss.NewStyle().Foreground(colorRed),
			model.JobStatusDisabled: lipgloss.NewStyle().Foreground(colorGray),
			model.JobStatusUnknown:  lipgloss.NewStyle().Foreground(colorMagenta),
		},

		Indicator: map[model.JobStatus]string{
			model.JobStatusOK:       "✓",
			model.JobStatusFailing:  "✗",
			model.JobStatusDisabled: "○",
			model.JobStatusUnknown:  "?",
		},
	}
}

// StyleStatus renders a status with its indicator and colour.
func (s Styles) StyleStatus(status model.JobStatus) string {
	text := s.Indicator[status] + " " + status.String()
	if style, ok := s.Status[status]; ok {
		return style.Render(text)
	}
	return s.Text.Render(text)
}
