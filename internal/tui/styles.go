package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorText     lipgloss.Color = "#cdd6f4"
	colorMuted    lipgloss.Color = "#a6adc8"
	colorBorder   lipgloss.Color = "#585b70"
	colorAccent   lipgloss.Color = "#89b4fa"
	colorSuccess  lipgloss.Color = "#a6e3a1"
	colorWarning  lipgloss.Color = "#f9e2af"
	colorError    lipgloss.Color = "#f38ba8"
	colorMantle   lipgloss.Color = "#181825"
	colorSurface0 lipgloss.Color = "#313244"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	textStyle     = lipgloss.NewStyle().Foreground(colorText)
	okStyle       = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(colorWarning)
	errStyle      = lipgloss.NewStyle().Foreground(colorError)
	keyStyle      = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	fieldStyle    = lipgloss.NewStyle().Foreground(colorMuted).Width(12)
	footerStyle   = lipgloss.NewStyle().Background(colorMantle)
	labelBarBg    = colorSurface0
	labelOkStyle  = lipgloss.NewStyle().Foreground(colorSuccess).Background(colorSurface0)
	labelErrStyle = lipgloss.NewStyle().Foreground(colorError).Background(colorSurface0)
)

// box draws the rounded pane used by every widget. Focused panes get the
// success border.
func box(title string, focused bool, width, height int, body string) string {
	border := colorBorder
	if focused {
		border = colorSuccess
	}
	if width < 4 {
		width = 4
	}
	if height < 3 {
		height = 3
	}
	head := titleStyle.Render(title)
	if focused {
		head = titleStyle.Render("● " + title)
	}
	inner := lipgloss.JoinVertical(lipgloss.Left, head, body)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(width - 2).
		Height(height - 2).
		MaxHeight(height).
		Render(inner)
}
