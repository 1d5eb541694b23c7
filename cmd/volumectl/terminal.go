package main

import (
	"os"

	"golang.org/x/term"
)

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// terminalWidth returns the stdout width, or 0 when stdout is not a terminal
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return width
}

// truncateMiddle shortens s to width runes by eliding its middle.
// A width below 8 leaves s alone.
func truncateMiddle(s string, width int) string {
	runes := []rune(s)
	if width < 8 || len(runes) <= width {
		return s
	}
	keep := width - 3
	head := keep / 2
	tail := keep - head
	return string(runes[:head]) + "..." + string(runes[len(runes)-tail:])
}
