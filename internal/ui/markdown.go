// Package ui renders agent responses for the terminal.
package ui

import (
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/groblegark/seance/internal/style"
)

// RenderMarkdown renders an agent response with glamour styling, wrapped to
// the terminal width. Degrades to plain wrapped text when colors are off,
// and to the raw input if the renderer fails — a response must never be
// lost to a rendering problem.
func RenderMarkdown(markdown string) string {
	width := terminalWidth()

	if !style.ShouldUseColor() {
		return WrapText(markdown, width)
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return markdown
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}

// WrapText wraps at word boundaries within maxWidth, preserving existing
// line breaks.
func WrapText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		maxWidth = 80
	}
	var out strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(wrapLine(line, maxWidth))
	}
	return out.String()
}

func wrapLine(line string, maxWidth int) string {
	if utf8.RuneCountInString(line) <= maxWidth {
		return line
	}
	var out strings.Builder
	width := 0
	for _, word := range strings.Fields(line) {
		wl := utf8.RuneCountInString(word)
		switch {
		case width == 0:
			out.WriteString(word)
			width = wl
		case width+1+wl <= maxWidth:
			out.WriteString(" ")
			out.WriteString(word)
			width += 1 + wl
		default:
			out.WriteString("\n")
			out.WriteString(word)
			width = wl
		}
	}
	return out.String()
}

// terminalWidth caps at 100 columns for readability and falls back to 80
// when stdout isn't a terminal.
func terminalWidth() int {
	const (
		defaultWidth = 80
		maxWidth     = 100
	)
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return defaultWidth
	}
	if width > maxWidth {
		return maxWidth
	}
	return width
}
