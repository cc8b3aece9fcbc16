package tui

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

var (
	colorOutput = termenv.NewOutput(os.Stdout)
	colorMode   = "auto"
)

// SetColorMode sets the color policy: "always", "never", or "auto"
// (terminal detection). Unknown values fall back to auto.
func SetColorMode(mode string) {
	colorMode = mode
}

// colorEnabled reports whether stdout is a terminal that should receive
// colored output. NO_COLOR disables colors unconditionally in auto mode.
func colorEnabled() bool {
	switch colorMode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// ColorCommitID renders a commit id for terminal output.
func ColorCommitID(id string) string {
	if !colorEnabled() {
		return id
	}
	return colorOutput.String(id).Foreground(colorOutput.Color("3")).String()
}

// ColorDestination renders a destination commit id for terminal output.
func ColorDestination(id string) string {
	if !colorEnabled() {
		return id
	}
	return colorOutput.String(id).Foreground(colorOutput.Color("6")).Bold().String()
}

// ColorSkipped renders a skipped-entry annotation dimmed.
func ColorSkipped(text string) string {
	if !colorEnabled() {
		return text
	}
	return colorOutput.String(text).Faint().String()
}
