package term

import (
	"io"
	"os"
	"strings"

	"github.com/groblegark/seance/internal/ansi"
)

// Segment is one parsed piece of a structured log record. A single record
// can yield several segments (assistant text plus a tool call, say), and a
// segment's text can span multiple physical lines.
type Segment struct {
	Kind ContentKind
	Text string
}

// RecordParser turns one complete log line into zero or more segments.
// Schemas differ per backend, so the parser is supplied by the backend
// profile. Returning nil skips the line; parsers never report errors because
// foreign log formats drift and a bad line must not stop the tail.
type RecordParser func(line string) []Segment

// PathResolver returns the current log path for the session, or ok=false
// when none is known yet. The path can change over the session's lifetime —
// the agent rotates to a fresh log after a conversation reset — which is why
// the reader re-resolves on every read instead of holding a file open.
type PathResolver func() (path string, ok bool)

// LogReader tails an external append-only line-oriented log. It keeps a byte
// offset into the resolved path, reads only what was appended since the last
// call, and never parses a trailing line that has not been terminated yet.
type LogReader struct {
	resolve PathResolver
	parse   RecordParser

	// skipBacklog starts a newly resolved path at end-of-file instead of
	// replaying content that predates the reader.
	skipBacklog bool

	path    string
	offset  int64
	partial string
}

// NewLogReader creates a structured log reader.
func NewLogReader(resolve PathResolver, parse RecordParser, skipBacklog bool) *LogReader {
	return &LogReader{resolve: resolve, parse: parse, skipBacklog: skipBacklog}
}

// ReadNext returns lines parsed from bytes appended since the previous call.
func (r *LogReader) ReadNext(opts ReadOptions) ([]Line, error) {
	path, ok := r.resolve()
	if !ok {
		return nil, nil
	}
	if path != r.path {
		// Rotated to a new log: drop any partial from the old file and
		// restart the offset.
		r.path = path
		r.partial = ""
		r.offset = 0
		if r.skipBacklog {
			if fi, err := os.Stat(path); err == nil {
				r.offset = fi.Size()
			}
		}
	}

	f, err := os.Open(path)
	if err != nil {
		// The resolver can race the agent creating the file; treat as
		// "nothing appended yet".
		return nil, nil
	}
	defer f.Close()

	if _, err := f.Seek(r.offset, io.SeekStart); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	r.offset += int64(len(data))

	chunk := r.partial + string(data)
	records := strings.Split(chunk, "\n")
	// The final element is either "" (chunk ended on a newline) or an
	// incomplete record: hold it for the next read either way.
	r.partial = records[len(records)-1]
	records = records[:len(records)-1]

	var lines []Line
	for _, rec := range records {
		if strings.TrimSpace(rec) == "" {
			continue
		}
		for _, seg := range r.parse(rec) {
			for _, txt := range strings.Split(seg.Text, "\n") {
				lines = append(lines, Line{
					Spans: []ansi.Span{{Text: txt}},
					Raw:   txt,
					Kind:  seg.Kind,
				})
			}
		}
	}
	return tailLines(lines, opts.Max), nil
}

// WaitForMatch polls ReadNext until the query matches or the timeout lapses.
// Lines already consumed by earlier polls are gone, so the scan accumulates
// across reads within this call.
func (r *LogReader) WaitForMatch(q MatchQuery, opts WaitOptions) (MatchResult, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultWaitInterval
	}
	deadline := timeNow().Add(opts.Timeout)
	for {
		lines, err := r.ReadNext(ReadOptions{})
		if err == nil {
			if res := Match(lines, q); res.Matched {
				return res, nil
			}
		}
		if !timeNow().Add(interval).Before(deadline) {
			return MatchResult{}, nil
		}
		timeSleep(interval)
	}
}
