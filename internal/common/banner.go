package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner displays the application startup banner to stderr.
func PrintBanner(config *Config, logger *Logger) {
	version := GetVersion()
	build := GetBuild()
	serviceURL := fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)

	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	width := 70
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	art := []string{
		` 88888888888 888    888 8888888888 .d8888b.  8888888 .d8888b.`,
		`     888     888    888 888       d88P  Y88b   888  d88P  Y88b`,
		`     888     888    888 888       Y88b.        888  Y88b.`,
		`     888     8888888888 8888888    "Y888b.     888   "Y888b.`,
		`     888     888    888 888           "Y88b.   888      "Y88b.`,
		`     888     888    888 888             "888   888        "888`,
		`     888     888    888 888       Y88b  d88P   888  Y88b  d88P`,
		`     888     888    888 8888888888 "Y8888P"  8888888 "Y8888P"`,
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "%s\n", hr)
	fmt.Fprintf(os.Stderr, "\n")
	for _, line := range art {
		fmt.Fprintf(os.Stderr, "%s%s%s\n", textColor, line, banner.ColorReset)
	}
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Investment thesis report generator\n")
	fmt.Fprintf(os.Stderr, "  Version : %s (build %s)\n", version, build)
	fmt.Fprintf(os.Stderr, "  Service : %s\n", serviceURL)
	fmt.Fprintf(os.Stderr, "  Env     : %s\n", config.Environment)
	fmt.Fprintf(os.Stderr, "  Output  : %s\n", config.OutputDir)
	fmt.Fprintf(os.Stderr, "%s\n", hr)
	fmt.Fprintf(os.Stderr, "\n")
}
