package render

import "github.com/charmbracelet/lipgloss"

var (
	colorBlue    = lipgloss.Color("12")
	colorCyan    = lipgloss.Color("14")
	colorGreen   = lipgloss.Color("10")
	colorMagenta = lipgloss.Color("13")
	colorRed     = lipgloss.Color("9")
	colorGrey    = lipgloss.Color("244")
	colorWhite   = lipgloss.Color("15")
)

type styles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	border  lipgloss.Style
	dim     lipgloss.Style
	summary lipgloss.Style
	panel   lipgloss.Style
	columns []lipgloss.Style
	labels  map[string]lipgloss.Style

	info    lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(colorCyan),
		header:  r.NewStyle().Bold(true).Foreground(colorMagenta).Padding(0, 1),
		border:  r.NewStyle().Foreground(colorBlue),
		dim:     r.NewStyle().Faint(true),
		summary: r.NewStyle().Bold(true).Foreground(colorGreen),
		panel: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBlue).
			Foreground(colorBlue).
			Padding(0, 1),
		columns: []lipgloss.Style{
			r.NewStyle().Foreground(colorCyan),
			r.NewStyle().Foreground(colorWhite),
			r.NewStyle().Foreground(colorGrey),
			r.NewStyle().Foreground(colorGreen),
			r.NewStyle().Foreground(colorMagenta),
		},
		labels: map[string]lipgloss.Style{
			"Informational":         r.NewStyle().Foreground(colorBlue),
			"Promotional/Marketing": r.NewStyle().Foreground(colorMagenta),
			"Personal":              r.NewStyle().Foreground(colorGreen).Bold(true),
			"Unknown":               r.NewStyle().Foreground(colorRed),
		},

		info:    r.NewStyle().Foreground(colorBlue),
		success: r.NewStyle().Foreground(colorGreen),
		failure: r.NewStyle().Foreground(colorRed).Bold(true),
	}
}
