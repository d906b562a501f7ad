// Package detect classifies a screen capture into an agent state.
//
// Detection is a pure function of the freshest capture plus the backend
// profile. Nothing here remembers previous screens; the polling engine owns
// history (settle windows, activity tracking), the detector owns a single
// instant. That split keeps classification deterministic and testable
// against captured fixtures.
package detect

import (
	"strings"

	"github.com/groblegark/seance/internal/backend"
	"github.com/groblegark/seance/internal/term"
)

// State is the detected condition of an agent session.
type State string

const (
	// StateStarting covers both genuine startup and any screen too
	// ambiguous to classify. It is the detector's fallback, never an error.
	StateStarting State = "starting"

	// StateReady means the tool is at its input prompt, idle.
	StateReady State = "ready"

	// StateThinking means the tool is working on a turn.
	StateThinking State = "thinking"

	// StateConfirming means a permission/confirmation dialog is pending.
	StateConfirming State = "confirming"

	// StateRateLimited means the tool reported a rate/usage limit.
	StateRateLimited State = "rate_limited"

	// StateUpdatePrompt means the tool is asking about a self-update.
	StateUpdatePrompt State = "update_prompt"

	// StateFeedbackModal is the numbered-dismiss feedback dialog. The
	// engine treats it as an obstruction to dismiss, not an outcome.
	StateFeedbackModal State = "feedback_modal"

	// StateNoSession is assigned by callers when no pane exists at all.
	// The detector itself never produces it — no pane means no screen to
	// classify.
	StateNoSession State = "no_session"
)

// Terminal reports whether a polling loop should stop on this state.
func (s State) Terminal() bool {
	return s == StateReady || s == StateConfirming || s == StateRateLimited
}

// Trailing window sizes, in lines. The tail holds the live prompt area;
// recent additionally catches dialogs tall enough to push their opening
// line above the tail.
const (
	tailWindow   = 8
	recentWindow = 15
)

// StyledTail supplies a styled re-capture of the prompt area when the
// profile demands bold verification of the ready glyph. ok=false means the
// capability is unavailable, in which case ready is accepted unverified —
// a missing capability must never deadlock a session at "starting".
type StyledTail func() (lines []term.Line, ok bool)

// Detect classifies a screen capture. The checks run in a fixed priority
// order; once one fires, later checks never run. Order matters everywhere:
// a rate-limit notice outranks the prompt drawn under it, and a pending
// confirmation outranks the transient "running" text it coexists with.
func Detect(screen string, p *backend.Profile, styled StyledTail) State {
	lines := screenLines(screen)
	if len(lines) == 0 {
		return StateStarting
	}

	tail := window(lines, tailWindow)
	recent := window(lines, recentWindow)

	// 1. Rate limit.
	for _, line := range recent {
		if p.RateLimit != nil && p.RateLimit.MatchString(line) {
			return StateRateLimited
		}
	}

	// 2. Feedback dialog: recognized only when every numbered option is
	// on screen, so ordinary numbered lists don't trip it.
	if len(p.FeedbackOptions) > 0 && containsAll(recent, p.FeedbackOptions) {
		return StateFeedbackModal
	}

	// 3. Confirmation, tail first then recent. Before the busy checks
	// because a pending dialog can coexist with leftover "running" text.
	for _, pat := range p.Confirm {
		if pat.MatchAny(tail) || pat.MatchAny(recent) {
			return StateConfirming
		}
	}

	// 4. Active-work overrides: still working even if the prompt shows.
	for _, pat := range p.ActiveWork {
		if pat.MatchAny(tail) {
			return StateThinking
		}
	}

	// 5. Ready glyph, with optional bold cross-check.
	if containsAny(tail, p.ReadyPrompt) {
		if !p.RequireStyledPrompt {
			return StateReady
		}
		if styledLines, ok := styledOrNothing(styled); !ok {
			return StateReady
		} else if readyGlyphIsBold(styledLines, p.ReadyPrompt) {
			return StateReady
		}
		// Glyph present but not as a bold span: likely quoted in model
		// output. Fall through to the remaining checks.
	}

	// 6. Busy spinner.
	for _, glyph := range p.BusyGlyphs {
		if containsAny(tail, glyph) {
			return StateThinking
		}
	}

	// 7. Thinking text.
	for _, pat := range p.Thinking {
		if pat.MatchAny(tail) {
			return StateThinking
		}
	}

	// 8. Update prompt: screen-wide and tail conditions must both hold.
	if p.Update.Screen != "" && p.Update.Tail != "" &&
		strings.Contains(screen, p.Update.Screen) && containsAny(tail, p.Update.Tail) {
		return StateUpdatePrompt
	}

	// 9. Ambiguous or transitional.
	return StateStarting
}

// screenLines splits a capture and drops trailing blank lines; tmux pads
// the bottom of the pane and the padding would push real content out of
// the windows.
func screenLines(screen string) []string {
	if strings.TrimSpace(screen) == "" {
		return nil
	}
	lines := strings.Split(screen, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func window(lines []string, n int) []string {
	if len(lines) > n {
		return lines[len(lines)-n:]
	}
	return lines
}

func containsAny(lines []string, substr string) bool {
	for _, line := range lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func containsAll(lines []string, substrs []string) bool {
	for _, s := range substrs {
		if !containsAny(lines, s) {
			return false
		}
	}
	return true
}

func styledOrNothing(styled StyledTail) ([]term.Line, bool) {
	if styled == nil {
		return nil, false
	}
	return styled()
}

// readyGlyphIsBold checks the styled re-capture for the glyph in a bold
// span. The genuine prompt is drawn bold; the same character quoted in
// model output is not, so the match engine's advisory style handling is
// deliberately not used here.
func readyGlyphIsBold(lines []term.Line, glyph string) bool {
	for _, line := range lines {
		for _, span := range line.Spans {
			if span.Style != nil && span.Style.Bold && strings.Contains(span.Text, glyph) {
				return true
			}
		}
	}
	return false
}
