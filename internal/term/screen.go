package term

import "strings"

// Capturer supplies pane snapshots. The tmux wrapper implements it; tests
// use a scripted stand-in.
type Capturer interface {
	// CaptureVisible returns the entire currently visible pane content.
	CaptureVisible(session string) (string, error)
	// CaptureVisibleStyled is the same capture with escape sequences kept.
	CaptureVisibleStyled(session string) (string, error)
}

// ScreenReader reads the raw (style-stripped) visible pane. Every call
// captures the full visible buffer — the multiplexer has no incremental
// read, and the screen is a redrawn surface, not an append-only stream.
type ScreenReader struct {
	cap     Capturer
	session string
}

// NewScreenReader creates a raw screen reader for a session.
func NewScreenReader(cap Capturer, session string) *ScreenReader {
	return &ScreenReader{cap: cap, session: session}
}

// ReadNext captures the visible pane and returns its lines, newest last.
func (r *ScreenReader) ReadNext(opts ReadOptions) ([]Line, error) {
	out, err := r.cap.CaptureVisible(r.session)
	if err != nil {
		return nil, err
	}
	return tailLines(splitPlain(out), opts.Max), nil
}

// WaitForMatch polls ReadNext until the query matches or the timeout lapses.
func (r *ScreenReader) WaitForMatch(q MatchQuery, opts WaitOptions) (MatchResult, error) {
	return waitForMatch(r, q, opts)
}

// StyledScreenReader is the identical capture path in style-preserving form,
// with every line run through the SGR parser. Used only where real UI glyphs
// must be told apart from look-alike text in model output (the bold ready
// glyph check); the raw reader is cheaper everywhere else.
type StyledScreenReader struct {
	cap     Capturer
	session string
}

// NewStyledScreenReader creates a styled screen reader for a session.
func NewStyledScreenReader(cap Capturer, session string) *StyledScreenReader {
	return &StyledScreenReader{cap: cap, session: session}
}

// ReadNext captures the visible pane with styling and parses each line.
func (r *StyledScreenReader) ReadNext(opts ReadOptions) ([]Line, error) {
	out, err := r.cap.CaptureVisibleStyled(r.session)
	if err != nil {
		return nil, err
	}
	var lines []Line
	for _, raw := range strings.Split(out, "\n") {
		lines = append(lines, StyledLine(raw))
	}
	return tailLines(lines, opts.Max), nil
}

// WaitForMatch polls ReadNext until the query matches or the timeout lapses.
func (r *StyledScreenReader) WaitForMatch(q MatchQuery, opts WaitOptions) (MatchResult, error) {
	return waitForMatch(r, q, opts)
}

func splitPlain(out string) []Line {
	raw := strings.Split(out, "\n")
	lines := make([]Line, len(raw))
	for i, s := range raw {
		lines[i] = PlainLine(s)
	}
	return lines
}
