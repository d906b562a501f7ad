// Package response pulls the last assistant reply out of a screen capture.
//
// The screen is the only universally available source: the structured log
// may be missing or rotated, but a finished turn always left its text in
// the pane. Extraction is heuristic by necessity — the capture interleaves
// the reply with UI chrome the backend draws around it.
package response

import (
	"strings"

	"github.com/groblegark/seance/internal/backend"
)

// ExtractLast returns the text of the most recent assistant response on the
// screen, chrome-stripped and trimmed. An empty string means no response
// block was found; callers treat that as "nothing to show", not an error.
func ExtractLast(screen string, p *backend.Profile) string {
	lines := strings.Split(screen, "\n")

	start := -1
	for i, line := range lines {
		if strings.Contains(line, p.ResponseMarker) {
			start = i
		}
	}
	if start == -1 {
		return ""
	}

	block := stripChrome(lines[start:], p)
	if len(block) == 0 {
		return ""
	}
	block[0] = trimMarker(block[0], p.ResponseMarker)
	if block[0] == "" {
		block = block[1:]
	}

	for len(block) > 0 && strings.TrimSpace(block[0]) == "" {
		block = block[1:]
	}
	for len(block) > 0 && strings.TrimSpace(block[len(block)-1]) == "" {
		block = block[:len(block)-1]
	}
	return strings.Join(block, "\n")
}

// stripChrome drops lines matching any of the profile's chrome patterns:
// box borders, keyboard hints, empty prompt rows.
func stripChrome(lines []string, p *backend.Profile) []string {
	var out []string
	for _, line := range lines {
		if isChrome(line, p) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func isChrome(line string, p *backend.Profile) bool {
	for _, re := range p.Chrome {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// trimMarker removes the response marker (and any leading decoration before
// it) from the block's first line. A line that was nothing but the marker
// becomes empty and is dropped by the caller.
func trimMarker(line, marker string) string {
	idx := strings.Index(line, marker)
	if idx == -1 {
		return line
	}
	rest := line[idx+len(marker):]
	return strings.TrimLeft(rest, " ")
}
