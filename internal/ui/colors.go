package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Output streams; tests swap them for buffers
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

// Color scheme for installer-intel
var (
	Success = color.New(color.FgGreen)
	Error   = color.New(color.FgRed, color.Bold)
	Warning = color.New(color.FgYellow)
	Info    = color.New(color.FgCyan)

	Highlight = color.New(color.FgHiCyan, color.Bold)
	Muted     = color.New(color.Faint)
	Bold      = color.New(color.Bold)

	CheckMark = color.GreenString("✓")
	CrossMark = color.RedString("✗")
	Arrow     = color.CyanString("→")
	Bullet    = color.HiBlackString("•")

	TypeMSI = color.New(color.FgCyan)
	TypeEXE = color.New(color.FgMagenta)

	ConfidenceHigh   = color.New(color.FgGreen, color.Bold)
	ConfidenceMedium = color.New(color.FgYellow)
	ConfidenceLow    = color.New(color.FgRed)
)

// InitColors applies a color mode ("auto", "always", "never") and the
// NO_COLOR / TERM=dumb conventions
func InitColors(mode string) {
	switch strings.ToLower(mode) {
	case "never":
		color.NoColor = true
		return
	case "always":
		color.NoColor = false
		return
	}

	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	if os.Getenv("TERM") == "dumb" {
		color.NoColor = true
	}
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	Success.Fprintf(Stdout, "%s %s\n", CheckMark, fmt.Sprintf(format, args...))
}

// PrintError prints an error message
func PrintError(format string, args ...interface{}) {
	Error.Fprintf(Stderr, "%s Error: %s\n", CrossMark, fmt.Sprintf(format, args...))
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...interface{}) {
	Warning.Fprintf(Stderr, "Warning: %s\n", fmt.Sprintf(format, args...))
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	Info.Fprintf(Stdout, "%s %s\n", Arrow, fmt.Sprintf(format, args...))
}

// PrintKeyValue prints a key-value pair with color
func PrintKeyValue(key, value string) {
	Bold.Fprintf(Stdout, "%s: ", key)
	fmt.Fprintln(Stdout, value)
}

// PrintHeader prints a section header
func PrintHeader(text string) {
	fmt.Fprintln(Stdout)
	Bold.Fprintln(Stdout, text)
	Muted.Fprintln(Stdout, "────────────────────────────────────────")
}

// PrintSubheader prints a subsection header
func PrintSubheader(text string) {
	fmt.Fprintln(Stdout)
	Highlight.Fprintln(Stdout, text)
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Fprintf(Stdout, "  %s %s\n", Bullet, item)
	}
}

// ColorizeFileType returns a colored file type string
func ColorizeFileType(fileType string) string {
	switch fileType {
	case "msi":
		return TypeMSI.Sprint(fileType)
	case "exe":
		return TypeEXE.Sprint(fileType)
	default:
		return fileType
	}
}

// ColorizeConfidence formats a confidence in [0,1] with two decimals,
// green from 0.80, yellow from 0.50, red below
func ColorizeConfidence(confidence float64) string {
	text := fmt.Sprintf("%.2f", confidence)
	switch {
	case confidence >= 0.80:
		return ConfidenceHigh.Sprint(text)
	case confidence >= 0.50:
		return ConfidenceMedium.Sprint(text)
	default:
		return ConfidenceLow.Sprint(text)
	}
}

// DisableColors disables all color output
func DisableColors() {
	color.NoColor = true
}

// EnableColors enables color output
func EnableColors() {
	color.NoColor = false
}

// AreColorsEnabled returns whether colors are currently enabled
func AreColorsEnabled() bool {
	return !color.NoColor
}
