package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	accentColor = "#2ECC71" // court green
	infoColor   = "#808080"
)

// KINETIC wordmark (filled block style)
var kineticArt = []string{
	"  ██╗  ██╗ ██╗ ███╗   ██╗ ███████╗ ████████╗ ██╗  ██████╗",
	"  ██║ ██╔╝ ██║ ████╗  ██║ ██╔════╝ ╚══██╔══╝ ██║ ██╔════╝",
	"  █████╔╝  ██║ ██╔██╗ ██║ █████╗      ██║    ██║ ██║     ",
	"  ██╔═██╗  ██║ ██║╚██╗██║ ██╔══╝      ██║    ██║ ██║     ",
	"  ██║  ██╗ ██║ ██║ ╚████║ ███████╗    ██║    ██║ ╚██████╗",
	"  ╚═╝  ╚═╝ ╚═╝ ╚═╝  ╚═══╝ ╚══════╝    ╚═╝    ╚═╝  ╚═════╝",
}

// Print displays the KINETIC banner on stdout.
func Print() {
	PrintTo(os.Stdout)
}

// PrintTo displays the KINETIC banner to a custom writer.
func PrintTo(w io.Writer) {
	_, _ = fmt.Fprintln(w)

	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(accentColor)).
		Bold(true)

	for _, line := range kineticArt {
		_, _ = fmt.Fprintln(w, style.Render(line))
	}

	_, _ = fmt.Fprintln(w)
}

// PrintWithInfo displays the banner with version and model info.
func PrintWithInfo(version, model string) {
	Print()

	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(infoColor)).
		Italic(true)

	info := fmt.Sprintf("Versión: %s | Modelo: %s", version, model)
	fmt.Println(infoStyle.Render(info))
	fmt.Println()
}

// GetBannerString returns the banner as a plain string (for testing).
func GetBannerString() string {
	var sb strings.Builder
	for _, line := range kineticArt {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}
