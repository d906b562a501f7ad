package term

import "time"

// DefaultWaitInterval is how often WaitForMatch re-reads between checks.
const DefaultWaitInterval = 100 * time.Millisecond

// ReadOptions controls a single ReadNext call.
type ReadOptions struct {
	// Max trims the result to the last N lines. Zero means no trim. Screen
	// readers interpret this with screen semantics: the newest content is
	// what matters.
	Max int
}

// WaitOptions bounds a WaitForMatch call.
type WaitOptions struct {
	Timeout  time.Duration
	Interval time.Duration // defaults to DefaultWaitInterval
}

// Reader is the single capability contract all three reader variants
// implement. Implementations are selected by backend and mode at
// construction time; callers never care which one they hold.
type Reader interface {
	ReadNext(opts ReadOptions) ([]Line, error)
	WaitForMatch(q MatchQuery, opts WaitOptions) (MatchResult, error)
}

// Clock hooks, swappable in tests so waits don't burn wall-clock time.
var (
	timeNow   = time.Now
	timeSleep = time.Sleep
)

// waitForMatch is the shared WaitForMatch loop: poll ReadNext on a fixed
// interval until the query matches or the timeout elapses. Timing out is not
// an error — it returns a non-matched result so callers branch on Matched.
func waitForMatch(r Reader, q MatchQuery, opts WaitOptions) (MatchResult, error) {
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
		// Capture failures degrade to "no lines yet": the pane may still be
		// starting up, and the deadline bounds how long we keep trying.
		if !timeNow().Add(interval).Before(deadline) {
			return MatchResult{}, nil
		}
		timeSleep(interval)
	}
}

// tailLines trims to the last max lines when max > 0.
func tailLines(lines []Line, max int) []Line {
	if max > 0 && len(lines) > max {
		return lines[len(lines)-max:]
	}
	return lines
}
