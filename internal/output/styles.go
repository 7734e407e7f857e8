package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette — named constants for the ANSI 256 colors used in the CLIs.
// These are the single source of truth; never use inline lipgloss.Color
// literals.
var (
	// colorCyan is used for identifiable nouns: paths, symbol names.
	colorCyan = lipgloss.Color("14")

	// colorYellow is used for notices that need user attention.
	colorYellow = lipgloss.Color("220")

	// colorGreenCheck is used for the completion checkmark.
	colorGreenCheck = lipgloss.Color("10")
)

// Semantic styles.
var (
	styleNoun = lipgloss.NewStyle().Foreground(colorCyan)
	styleDim  = lipgloss.NewStyle().Faint(true)
)

// StderrIsTerminal reports whether stderr is attached to a terminal.
// Styled notices degrade to plain text in pipelines.
func StderrIsTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// FormatCheckmark renders a green checkmark with a message.
func FormatCheckmark(msg string) string {
	if !StderrIsTerminal() {
		return msg
	}
	check := lipgloss.NewStyle().Foreground(colorGreenCheck).Render("✔")
	return check + " " + msg
}

// FormatNotice renders a yellow arrow with a message for action-required
// output.
func FormatNotice(msg string) string {
	if !StderrIsTerminal() {
		return msg
	}
	arrow := lipgloss.NewStyle().Foreground(colorYellow).Render("▶")
	return arrow + " " + msg
}

// FormatNoun styles an identifiable noun (a path or symbol name) for
// terminal notices.
func FormatNoun(s string) string {
	if !StderrIsTerminal() {
		return s
	}
	return styleNoun.Render(s)
}

// FormatDim styles structural chrome.
func FormatDim(s string) string {
	if !StderrIsTerminal() {
		return s
	}
	return styleDim.Render(s)
}
