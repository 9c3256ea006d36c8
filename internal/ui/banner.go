package ui

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Tagline shown under the logo
const Tagline = "Package Intelligence for Windows Installers"

const logo = `
 _           _        _ _                 _       _       _
(_)_ __  ___| |_ __ _| | | ___ _ __      (_)_ __ | |_ ___| |
| | '_ \/ __| __/ _' | | |/ _ \ '__|_____| | '_ \| __/ _ \ |
| | | | \__ \ || (_| | | |  __/ | |_____| | | | | ||  __/ |
|_|_| |_|___/\__\__,_|_|_|\___|_|       |_|_| |_|\__\___|_|
`

// ShouldShowBanner reports whether the banner belongs on out: only for an
// interactive terminal, outside CI, and when not silenced with --quiet
func ShouldShowBanner(out io.Writer, quiet bool) bool {
	if quiet || isCI() {
		return false
	}
	return IsTerminal(out)
}

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func isCI() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("CI"))) {
	case "", "0", "false", "no":
		return false
	default:
		return true
	}
}

// PrintBanner writes the logo, tagline and version to out
func PrintBanner(out io.Writer, version string) {
	Highlight.Fprint(out, strings.TrimPrefix(logo, "\n"))
	Muted.Fprintf(out, "%s  v%s\n\n", Tagline, strings.TrimPrefix(version, "v"))
}

// MaybePrintBanner prints the banner when ShouldShowBanner allows it
func MaybePrintBanner(out io.Writer, version string, quiet bool) {
	if ShouldShowBanner(out, quiet) {
		PrintBanner(out, version)
	}
}
