// Package term models terminal output as lines of styled spans and provides
// the readers that produce them: raw screen capture, styled screen capture,
// and structured log tailing. All pattern matching in the rest of the system
// happens against these lines, never against raw escape-laden capture text.
package term

import (
	"strings"

	"github.com/groblegark/seance/internal/ansi"
)

// ContentKind tags what a line represents when the reader can tell.
// Screen readers always produce KindText; the log reader distinguishes
// assistant text, extended thinking, and compact tool-call summaries.
type ContentKind int

const (
	KindText ContentKind = iota
	KindThinking
	KindTool
)

// String returns the kind name used in diagnostics and stream prefixes.
func (k ContentKind) String() string {
	switch k {
	case KindThinking:
		return "thinking"
	case KindTool:
		return "tool"
	default:
		return "text"
	}
}

// Line is the common unit produced by every reader. Raw is always the
// style-stripped concatenation of Spans and is the single ground truth for
// pattern matching; Spans carry styling when the reader could supply it.
type Line struct {
	Spans []ansi.Span
	Raw   string
	Kind  ContentKind
}

// PlainLine wraps already-stripped text in an unstyled Line.
func PlainLine(raw string) Line {
	return Line{Spans: []ansi.Span{{Text: raw}}, Raw: raw}
}

// StyledLine parses a capture line containing SGR sequences into spans.
func StyledLine(captured string) Line {
	spans := ansi.ParseLine(captured)
	var raw strings.Builder
	for _, sp := range spans {
		raw.WriteString(sp.Text)
	}
	return Line{Spans: spans, Raw: raw.String()}
}

// HasStyle reports whether any span in the line carries style metadata.
func (l Line) HasStyle() bool {
	for _, sp := range l.Spans {
		if sp.Style != nil {
			return true
		}
	}
	return false
}
