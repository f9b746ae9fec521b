package report

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	colorKeep  = lipgloss.Color("76")  // Green
	colorPrune = lipgloss.Color("203") // Red
	colorMuted = lipgloss.Color("240") // Dark gray
	colorWarn  = lipgloss.Color("214") // Orange

	keepStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorKeep)

	pruneStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrune)

	timeStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	historyStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	summaryStyle = lipgloss.NewStyle().
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorWarn)
)

// IsTerminal reports whether w is a terminal file descriptor.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
