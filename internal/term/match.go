package term

import (
	"regexp"
	"strings"

	"github.com/groblegark/seance/internal/ansi"
)

// MatchQuery describes a line to look for. Exactly one of Text or Regex
// should be set; Style, when non-nil, narrows the match to lines where some
// span satisfies both the text pattern and every requested attribute.
type MatchQuery struct {
	Text  string
	Regex *regexp.Regexp
	Style *ansi.Style
}

// MatchResult reports the first matching line and its index, if any.
type MatchResult struct {
	Matched bool
	Line    Line
	Index   int
}

// Match scans lines in order and returns the first one satisfying the query.
//
// The style filter is advisory: when the matching line carries no span
// styling at all (the raw reader never supplies any), the filter is skipped
// rather than producing a false negative. A reader that cannot report style
// must not be able to veto a match.
func Match(lines []Line, q MatchQuery) MatchResult {
	for i, line := range lines {
		if !textMatches(line.Raw, q) {
			continue
		}
		if q.Style != nil && line.HasStyle() && !spanSatisfies(line, q) {
			continue
		}
		return MatchResult{Matched: true, Line: line, Index: i}
	}
	return MatchResult{}
}

func textMatches(raw string, q MatchQuery) bool {
	if q.Regex != nil {
		return q.Regex.MatchString(raw)
	}
	return q.Text != "" && strings.Contains(raw, q.Text)
}

// spanSatisfies reports whether some span contains the text pattern and
// carries every attribute requested in q.Style.
func spanSatisfies(line Line, q MatchQuery) bool {
	for _, sp := range line.Spans {
		if sp.Style == nil {
			continue
		}
		if !textMatches(sp.Text, q) {
			continue
		}
		if styleCovers(*sp.Style, *q.Style) {
			return true
		}
	}
	return false
}

// styleCovers reports whether got carries every attribute set in want.
// Unset attributes in want are not constraints.
func styleCovers(got, want ansi.Style) bool {
	if want.Bold && !got.Bold {
		return false
	}
	if want.Dim && !got.Dim {
		return false
	}
	if want.Italic && !got.Italic {
		return false
	}
	if want.Underline && !got.Underline {
		return false
	}
	if want.Foreground != "" && got.Foreground != want.Foreground {
		return false
	}
	if want.Background != "" && got.Background != want.Background {
		return false
	}
	return true
}
