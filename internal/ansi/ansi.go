// Package ansi parses SGR escape sequences into ordered, styled text spans.
//
// Terminal UIs emit styling (bold prompts, colored spinners) as inline
// escape sequences. The styled screen reader needs that styling back as
// structured data so detection code can ask questions like "does the ready
// glyph appear in a bold span?" without ever matching against raw escapes.
package ansi

import "strings"

// Style is a sparse set of recognized SGR attributes. The zero value means
// "unstyled/inherit" and is never attached to a span.
type Style struct {
	Foreground string
	Background string
	Bold       bool
	Dim        bool
	Italic     bool
	Underline  bool
}

// IsZero reports whether no attribute is set.
func (s Style) IsZero() bool {
	return s == Style{}
}

// Span is a run of text carrying a single style. Style is nil for unstyled
// text rather than a pointer to the zero Style.
type Span struct {
	Text  string
	Style *Style
}

// Named colors for the 8 standard and 8 bright SGR color codes.
var colorNames = [8]string{
	"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white",
}

// ParseLine splits one line into ordered spans. Text accumulates under the
// current style; each SGR sequence flushes the pending text with the style
// that was in effect *before* the sequence, then updates the running style.
// Concatenating the returned spans' Text reproduces the line with all escape
// sequences removed.
func ParseLine(line string) []Span {
	var (
		spans []Span
		text  strings.Builder
		cur   Style
	)

	flush := func() {
		if text.Len() == 0 {
			return
		}
		sp := Span{Text: text.String()}
		if !cur.IsZero() {
			st := cur
			sp.Style = &st
		}
		spans = append(spans, sp)
		text.Reset()
	}

	i := 0
	for i < len(line) {
		c := line[i]
		if c != 0x1b {
			text.WriteByte(c)
			i++
			continue
		}

		seq, params, isSGR := scanEscape(line[i:])
		if isSGR {
			flush()
			applySGR(&cur, params)
		}
		// Non-SGR sequences (cursor movement, OSC titles) carry no style
		// information for us; they are dropped from the text either way.
		i += seq
	}
	flush()
	return spans
}

// Strip returns the line with all escape sequences removed.
func Strip(line string) string {
	if !strings.ContainsRune(line, 0x1b) {
		return line
	}
	var b strings.Builder
	b.Grow(len(line))
	i := 0
	for i < len(line) {
		if line[i] != 0x1b {
			b.WriteByte(line[i])
			i++
			continue
		}
		seq, _, _ := scanEscape(line[i:])
		i += seq
	}
	return b.String()
}

// scanEscape measures the escape sequence at the start of s. It returns the
// byte length consumed, the parsed numeric parameters when the sequence is a
// CSI ... 'm' (SGR), and whether it was SGR. Malformed or truncated sequences
// consume through end of string; the screen is redrawn constantly, so a torn
// sequence is not worth surfacing.
func scanEscape(s string) (length int, params []int, isSGR bool) {
	if len(s) < 2 {
		return len(s), nil, false
	}
	switch s[1] {
	case '[': // CSI
		j := 2
		start := j
		var nums []int
		n, hasNum := 0, false
		for j < len(s) {
			c := s[j]
			if c >= '0' && c <= '9' {
				n = n*10 + int(c-'0')
				hasNum = true
				j++
				continue
			}
			if c == ';' {
				nums = append(nums, n)
				n, hasNum = 0, false
				j++
				continue
			}
			// Final byte of the CSI sequence.
			if c >= 0x40 && c <= 0x7e {
				if hasNum || j > start {
					nums = append(nums, n)
				}
				if c == 'm' {
					if len(nums) == 0 {
						nums = []int{0} // ESC[m is a full reset
					}
					return j + 1, nums, true
				}
				return j + 1, nil, false
			}
			// Intermediate byte (e.g. '?' in private sequences): skip.
			j++
		}
		return len(s), nil, false
	case ']': // OSC, terminated by BEL or ST
		j := 2
		for j < len(s) {
			if s[j] == 0x07 {
				return j + 1, nil, false
			}
			if s[j] == 0x1b && j+1 < len(s) && s[j+1] == '\\' {
				return j + 2, nil, false
			}
			j++
		}
		return len(s), nil, false
	default:
		// Two-byte escape (ESC + single char).
		return 2, nil, false
	}
}

// applySGR folds one SGR parameter list into the running style. Unrecognized
// codes are ignored; extended color introducers (38/48) consume their color
// arguments so a palette index is never misread as a style code.
func applySGR(st *Style, params []int) {
	for i := 0; i < len(params); i++ {
		p := params[i]
		switch {
		case p == 0:
			*st = Style{}
		case p == 1:
			st.Bold = true
		case p == 2:
			st.Dim = true
		case p == 3:
			st.Italic = true
		case p == 4:
			st.Underline = true
		case p == 22:
			st.Bold, st.Dim = false, false
		case p == 23:
			st.Italic = false
		case p == 24:
			st.Underline = false
		case p >= 30 && p <= 37:
			st.Foreground = colorNames[p-30]
		case p == 39:
			st.Foreground = ""
		case p >= 40 && p <= 47:
			st.Background = colorNames[p-40]
		case p == 49:
			st.Background = ""
		case p >= 90 && p <= 97:
			st.Foreground = "bright-" + colorNames[p-90]
		case p >= 100 && p <= 107:
			st.Background = "bright-" + colorNames[p-100]
		case p == 38 || p == 48:
			// 256-color (5;n) and truecolor (2;r;g;b) forms. The detection
			// profiles only ever match named colors and bold, so the color
			// itself is dropped — but its arguments must be consumed.
			if i+1 < len(params) {
				switch params[i+1] {
				case 5:
					i += 2
				case 2:
					i += 4
				}
			}
		}
	}
}
