package tui

import (
	"fmt"
	"strings"
)

// PrintBanner outputs the ASCII art banner with the library version.
func PrintBanner(version string) {
	p := profile()
	// gradient running teal to blue
	lines := []struct {
		text  string
		color string
	}{
		{` _       _   _   _`, "#2dd4bf"},
		{`| | __ _| |_| |_(_) ___ ___`, "#22d3ee"},
		{`| |/ _' | __| __| |/ __/ _ \`, "#38bdf8"},
		{`| | (_| | |_| |_| | (_|  __/`, "#60a5fa"},
		{`|_|\__,_|\__|\__|_|\___\___|`, "#818cf8"},
	}

	fmt.Println()
	for _, l := range lines {
		fmt.Println("  " + colorize(p, l.text, l.color))
	}
	fmt.Printf("\n  %s\n\n", colorize(p, "v"+strings.TrimSpace(version), "#64748b"))
}
