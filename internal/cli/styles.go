package cli

import "github.com/charmbracelet/lipgloss"

// Styles for terminal output. Plain text is used when stdout is not a
// terminal.
var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// render applies the style only when writing to a terminal so piped
// output stays free of escape sequences.
func render(style lipgloss.Style, s string, tty bool) string {
	if !tty {
		return s
	}
	return style.Render(s)
}
