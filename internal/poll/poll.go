// Package poll drives a full agent turn: send input, repeatedly capture and
// classify the screen, and decide when the turn is actually done.
//
// "Done" is trickier than seeing the ready prompt once. Agent TUIs redraw
// their prompt mid-turn, re-render identical frames, and finish fast turns
// before a poll ever samples the busy state. The engine therefore accepts
// READY only after the screen has stopped changing for a settle window and
// there is evidence a turn actually ran (a THINKING sample) or a bounded
// grace period has passed.
package poll

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/groblegark/seance/internal/backend"
	"github.com/groblegark/seance/internal/detect"
	"github.com/groblegark/seance/internal/term"
)

// Terminal is the slice of the multiplexer the engine needs. *tmux.Tmux
// satisfies it; tests script it.
type Terminal interface {
	CaptureVisible(session string) (string, error)
	CaptureVisibleStyled(session string) (string, error)
	SendKeysRaw(session, keys string) error
}

// Timing bounds the engine's loop. Zero fields take the defaults.
type Timing struct {
	// Interval between capture+classify rounds.
	Interval time.Duration

	// Settle is how long the screen must stay unchanged before READY is
	// trusted. Shorter than the slowest redraw gap and the engine returns
	// mid-turn; the default is generous because agent TUIs pause between
	// tool calls with the prompt visible.
	Settle time.Duration

	// Grace bounds the wait for turns so fast no THINKING state was ever
	// sampled. After Grace, a settled READY screen is accepted as-is.
	Grace time.Duration

	// DismissPause is the pause after dismissing a feedback dialog before
	// the next capture.
	DismissPause time.Duration
}

const (
	DefaultInterval     = 1 * time.Second
	DefaultSettle       = 3 * time.Second
	DefaultGrace        = 15 * time.Second
	DefaultDismissPause = 500 * time.Millisecond
)

func (t Timing) withDefaults() Timing {
	if t.Interval <= 0 {
		t.Interval = DefaultInterval
	}
	if t.Settle <= 0 {
		t.Settle = DefaultSettle
	}
	if t.Grace <= 0 {
		t.Grace = DefaultGrace
	}
	if t.DismissPause <= 0 {
		t.DismissPause = DefaultDismissPause
	}
	return t
}

// Outcome is the result of every wait/poll operation. Screen is the
// snapshot that produced the classification, retained so callers can
// extract a response or diagnostic detail without a second capture.
type Outcome struct {
	State  detect.State
	Screen string
}

// Hooks observe the loop without steering it. Either field may be nil.
type Hooks struct {
	OnPoll        func(state detect.State, screen string)
	OnStateChange func(from, to detect.State)
}

// TimeoutError reports an exceeded wait. It always carries the session so
// a failure in a multi-session flow names its culprit.
type TimeoutError struct {
	Session string
	Timeout time.Duration
	State   detect.State // last state observed before giving up
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("session %s: timed out after %s (last state %s)", e.Session, e.Timeout, e.State)
}

// Poller runs the capture/classify loop for one backend.
type Poller struct {
	term    Terminal
	profile *backend.Profile
	timing  Timing

	// clock hooks, swapped in tests
	now   func() time.Time
	sleep func(time.Duration)
}

// New creates a Poller. Timing zero-values take defaults.
func New(t Terminal, p *backend.Profile, timing Timing) *Poller {
	return &Poller{
		term:    t,
		profile: p,
		timing:  timing.withDefaults(),
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

// State captures once and classifies. NO_SESSION is the caller's concern;
// a capture failure here reads as an empty screen, hence STARTING.
func (p *Poller) State(session string) Outcome {
	screen, err := p.term.CaptureVisible(session)
	if err != nil {
		screen = ""
	}
	return Outcome{State: p.detect(session, screen), Screen: screen}
}

func (p *Poller) detect(session, screen string) detect.State {
	return detect.Detect(screen, p.profile, p.styledTail(session))
}

// styledTail adapts the styled capture into the detector's verification
// hook. Unavailability (capture error) reports ok=false so the detector
// falls back to accepting ready.
func (p *Poller) styledTail(session string) detect.StyledTail {
	return func() ([]term.Line, bool) {
		raw, err := p.term.CaptureVisibleStyled(session)
		if err != nil {
			return nil, false
		}
		all := strings.Split(raw, "\n")
		const tail = 8
		if len(all) > tail {
			all = all[len(all)-tail:]
		}
		lines := make([]term.Line, 0, len(all))
		for _, l := range all {
			lines = append(lines, term.StyledLine(l))
		}
		return lines, true
	}
}

// PollForResponse waits for the session's current turn to finish. It
// returns on READY (settled), CONFIRMING, or RATE_LIMITED; FEEDBACK_MODAL
// is dismissed and the loop continues. Exceeding timeout returns a
// *TimeoutError, never a silent result.
func (p *Poller) PollForResponse(session string, timeout time.Duration, hooks *Hooks) (Outcome, error) {
	return p.loop(session, timeout, hooks, nil)
}

// StreamResponse is PollForResponse plus live output: on every round it
// drains reader and writes new lines to w. Backends re-emit some log
// records, so non-tool lines are deduplicated against a bounded sliding
// window; tool-call summaries are exempt because running the same command
// twice is real.
func (p *Poller) StreamResponse(session string, timeout time.Duration, reader term.Reader, w io.Writer, hooks *Hooks) (Outcome, error) {
	dedup := newDedupWindow(dedupWindowSize)
	drain := func() {
		lines, err := reader.ReadNext(term.ReadOptions{})
		if err != nil {
			return
		}
		for _, line := range lines {
			if line.Kind != term.KindTool && dedup.seen(line.Raw) {
				continue
			}
			fmt.Fprintln(w, line.Raw)
		}
	}
	out, err := p.loop(session, timeout, hooks, drain)
	drain() // records written between the last poll and the final state
	return out, err
}

func (p *Poller) loop(session string, timeout time.Duration, hooks *Hooks, onRound func()) (Outcome, error) {
	start := p.now()
	deadline := start.Add(timeout)

	var (
		firstScreen  string
		firstCapture = true
		lastScreen   string
		lastChange   = start
		lastState    = detect.State("")
		becameActive bool
		sawThinking  bool
	)

	for {
		now := p.now()
		screen, err := p.term.CaptureVisible(session)
		if err != nil {
			screen = ""
		}
		if firstCapture {
			firstCapture = false
			firstScreen = screen
			lastScreen = screen
		} else if screen != lastScreen {
			lastScreen = screen
			lastChange = now
		}
		if !becameActive && screen != firstScreen {
			becameActive = true
		}

		state := p.detect(session, screen)
		if hooks != nil {
			if hooks.OnStateChange != nil && state != lastState {
				hooks.OnStateChange(lastState, state)
			}
			if hooks.OnPoll != nil {
				hooks.OnPoll(state, screen)
			}
		}
		lastState = state
		if onRound != nil {
			onRound()
		}

		switch state {
		case detect.StateRateLimited, detect.StateConfirming:
			return Outcome{State: state, Screen: screen}, nil

		case detect.StateFeedbackModal:
			_ = p.term.SendKeysRaw(session, p.profile.DismissKeys)
			p.sleep(p.timing.DismissPause)

		case detect.StateThinking:
			sawThinking = true

		case detect.StateReady:
			settled := now.Sub(lastChange) >= p.timing.Settle
			evidence := (becameActive && sawThinking) || now.Sub(start) >= p.timing.Grace
			if settled && evidence {
				return Outcome{State: state, Screen: screen}, nil
			}
		}

		if p.now().Add(p.timing.Interval).After(deadline) {
			return Outcome{State: state, Screen: screen},
				&TimeoutError{Session: session, Timeout: timeout, State: state}
		}
		p.sleep(p.timing.Interval)
	}
}

// approvePause is the wait after sending the approve key before re-polling,
// giving the TUI time to replace the dialog.
const approvePause = 300 * time.Millisecond

// WaitFunc is any wait shape AutoApprove can compose — PollForResponse or a
// StreamResponse closure.
type WaitFunc func(session string, timeout time.Duration) (Outcome, error)

// AutoApprove repeatedly satisfies confirmation prompts until the turn
// actually finishes. Yolo-mode sessions never reach CONFIRMING, so the loop
// degenerates to a single wait. RATE_LIMITED still returns immediately:
// approving can't fix it.
func (p *Poller) AutoApprove(session string, timeout time.Duration, wait WaitFunc) (Outcome, error) {
	deadline := p.now().Add(timeout)
	for {
		remaining := deadline.Sub(p.now())
		if remaining <= 0 {
			return Outcome{State: detect.StateConfirming},
				&TimeoutError{Session: session, Timeout: timeout, State: detect.StateConfirming}
		}
		out, err := wait(session, remaining)
		if err != nil {
			return out, err
		}
		if out.State != detect.StateConfirming {
			return out, nil
		}
		if err := p.term.SendKeysRaw(session, p.profile.ApproveKeys); err != nil {
			return out, fmt.Errorf("approve %s: %w", session, err)
		}
		p.sleep(approvePause)
	}
}

// dedupWindowSize bounds stream dedup memory; beyond this many distinct
// lines, the oldest fall out and may print again. In practice re-emission
// happens within a handful of records.
const dedupWindowSize = 100

type dedupWindow struct {
	cap   int
	order []string
	set   map[string]struct{}
}

func newDedupWindow(capacity int) *dedupWindow {
	return &dedupWindow{cap: capacity, set: make(map[string]struct{}, capacity)}
}

// seen records the line and reports whether it was already in the window.
func (d *dedupWindow) seen(line string) bool {
	if _, ok := d.set[line]; ok {
		return true
	}
	d.set[line] = struct{}{}
	d.order = append(d.order, line)
	if len(d.order) > d.cap {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.set, oldest)
	}
	return false
}
