package detect

import (
	"strings"
	"testing"

	"github.com/groblegark/seance/internal/backend"
	"github.com/groblegark/seance/internal/term"
)

func claude(t *testing.T) *backend.Profile {
	t.Helper()
	p, err := backend.ByTool("claude")
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func codex(t *testing.T) *backend.Profile {
	t.Helper()
	p, err := backend.ByTool("codex")
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// styledAccept fakes a styled re-capture where the prompt glyph is bold.
func styledAccept(glyph string) StyledTail {
	return func() ([]term.Line, bool) {
		return []term.Line{term.StyledLine("\x1b[1m" + glyph + "\x1b[0m ")}, true
	}
}

// styledReject fakes a styled re-capture where the glyph appears unstyled.
func styledReject(glyph string) StyledTail {
	return func() ([]term.Line, bool) {
		return []term.Line{term.PlainLine("he typed " + glyph + " and left")}, true
	}
}

func styledUnavailable() ([]term.Line, bool) { return nil, false }

// ---------------------------------------------------------------------------
// fallback
// ---------------------------------------------------------------------------

func TestEmptyScreenIsStarting(t *testing.T) {
	for _, screen := range []string{"", "   ", "\n\n\n"} {
		if got := Detect(screen, claude(t), nil); got != StateStarting {
			t.Errorf("Detect(%q) = %v, want starting", screen, got)
		}
	}
}

func TestUnrecognizedContentIsStarting(t *testing.T) {
	screen := "Welcome to Claude Code\n\nLoading model configuration..."
	if got := Detect(screen, claude(t), nil); got != StateStarting {
		t.Errorf("got %v, want starting", got)
	}
}

// ---------------------------------------------------------------------------
// ready
// ---------------------------------------------------------------------------

func TestTrailingPromptIsReady(t *testing.T) {
	screen := "⏺ Done. The tests pass.\n\n❯ \n"
	if got := Detect(screen, claude(t), styledAccept("❯")); got != StateReady {
		t.Errorf("got %v, want ready", got)
	}
}

func TestCodexPromptIsReadyWithoutStyledCheck(t *testing.T) {
	screen := "codex\nAll done here.\n\n› "
	if got := Detect(screen, codex(t), nil); got != StateReady {
		t.Errorf("got %v, want ready", got)
	}
}

func TestStyledCheckRejectsQuotedGlyph(t *testing.T) {
	// The arrow is on screen only as quoted text. The styled re-capture
	// shows it unbolded, so the ready claim is refused.
	screen := "⏺ The shell prompt ❯ means it is waiting.\nmore output"
	if got := Detect(screen, claude(t), styledReject("❯")); got == StateReady {
		t.Error("unstyled glyph accepted as ready")
	}
}

func TestStyledCheckUnavailableAcceptsReady(t *testing.T) {
	screen := "⏺ Done.\n\n❯ "
	if got := Detect(screen, claude(t), styledUnavailable); got != StateReady {
		t.Errorf("got %v, want ready when styled capture is unavailable", got)
	}
}

func TestNilStyledTailAcceptsReady(t *testing.T) {
	screen := "⏺ Done.\n\n❯ "
	if got := Detect(screen, claude(t), nil); got != StateReady {
		t.Errorf("got %v, want ready", got)
	}
}

func TestPromptAboveTailWindowNotReady(t *testing.T) {
	var b strings.Builder
	b.WriteString("❯ \n")
	for i := 0; i < tailWindow+2; i++ {
		b.WriteString("output line\n")
	}
	if got := Detect(b.String(), claude(t), styledAccept("❯")); got == StateReady {
		t.Error("glyph outside the tail window reported ready")
	}
}

// ---------------------------------------------------------------------------
// thinking
// ---------------------------------------------------------------------------

func TestSpinnerIsThinking(t *testing.T) {
	screen := "⏺ Editing files\n✻ Pondering… (esc to interrupt)\n"
	if got := Detect(screen, claude(t), nil); got != StateThinking {
		t.Errorf("got %v, want thinking", got)
	}
}

func TestActiveWorkBeatsReadyPrompt(t *testing.T) {
	// Claude redraws its input box while still working.
	screen := "✻ Running tests… (esc to interrupt)\n\n❯ \n"
	if got := Detect(screen, claude(t), styledAccept("❯")); got != StateThinking {
		t.Errorf("got %v, want thinking while work is in flight", got)
	}
}

func TestRunningToolIsThinking(t *testing.T) {
	screen := "⏺ Bash(go test ./...)\n  ⎿  Running…\n"
	if got := Detect(screen, claude(t), nil); got != StateThinking {
		t.Errorf("got %v, want thinking", got)
	}
}

func TestCodexWorkingIsThinking(t *testing.T) {
	screen := "• Working (12s • esc to interrupt)\n"
	if got := Detect(screen, codex(t), nil); got != StateThinking {
		t.Errorf("got %v, want thinking", got)
	}
}

// ---------------------------------------------------------------------------
// confirming
// ---------------------------------------------------------------------------

func TestConfirmDialog(t *testing.T) {
	screen := "Bash(rm -rf build)\n\nDo you want to proceed?\n❯ 1. Yes\n  2. No\n"
	if got := Detect(screen, claude(t), nil); got != StateConfirming {
		t.Errorf("got %v, want confirming", got)
	}
}

func TestConfirmBeatsSpinner(t *testing.T) {
	// A leftover spinner above the dialog must not mask it.
	screen := "✻ Pondering… (esc to interrupt)\n\nDo you want to proceed?\n❯ 1. Yes\n"
	if got := Detect(screen, claude(t), nil); got != StateConfirming {
		t.Errorf("got %v, want confirming", got)
	}
}

func TestConfirmBeatsReady(t *testing.T) {
	screen := "Do you want to proceed?\n❯ "
	if got := Detect(screen, claude(t), styledAccept("❯")); got != StateConfirming {
		t.Errorf("got %v, want confirming", got)
	}
}

func TestTallDialogCaughtByRecentWindow(t *testing.T) {
	// The question scrolled past the tail but stays inside recent.
	var b strings.Builder
	b.WriteString("Do you want to proceed?\n")
	for i := 0; i < tailWindow+1; i++ {
		b.WriteString("  option detail\n")
	}
	if got := Detect(b.String(), claude(t), nil); got != StateConfirming {
		t.Errorf("got %v, want confirming via recent window", got)
	}
}

func TestCodexApprovalMenu(t *testing.T) {
	screen := "Allow command?\n› 1. Yes, run it\n  2. No\n"
	if got := Detect(screen, codex(t), nil); got != StateConfirming {
		t.Errorf("got %v, want confirming", got)
	}
}

// ---------------------------------------------------------------------------
// rate limited
// ---------------------------------------------------------------------------

func TestRateLimitBeatsReady(t *testing.T) {
	screen := "■ Usage limit exceeded. Please try again at 3:00 PM\n› "
	if got := Detect(screen, codex(t), nil); got != StateRateLimited {
		t.Errorf("got %v, want rate_limited", got)
	}
}

func TestClaudeUsageLimit(t *testing.T) {
	screen := "Usage limit reached. Your limit resets at 7pm.\n\n❯ "
	if got := Detect(screen, claude(t), styledAccept("❯")); got != StateRateLimited {
		t.Errorf("got %v, want rate_limited", got)
	}
}

func TestOldRateLimitOutsideRecentIgnored(t *testing.T) {
	var b strings.Builder
	b.WriteString("rate limit reached earlier\n")
	for i := 0; i < recentWindow+1; i++ {
		b.WriteString("recovered output\n")
	}
	b.WriteString("❯ ")
	if got := Detect(b.String(), claude(t), styledAccept("❯")); got != StateReady {
		t.Errorf("got %v, want ready once the notice scrolled away", got)
	}
}

// ---------------------------------------------------------------------------
// update prompt and feedback modal
// ---------------------------------------------------------------------------

func TestUpdatePromptNeedsBothParts(t *testing.T) {
	p := claude(t)

	both := "Auto-update installed\n\nPress Enter to restart\n"
	if got := Detect(both, p, nil); got != StateUpdatePrompt {
		t.Errorf("got %v, want update_prompt", got)
	}

	// Screen text alone, e.g. mentioned in scrollback.
	screenOnly := "Auto-update installed earlier today\n\nnormal output\n"
	if got := Detect(screenOnly, p, nil); got == StateUpdatePrompt {
		t.Error("screen marker alone reported update_prompt")
	}
}

func TestFeedbackModalNeedsAllOptions(t *testing.T) {
	p := claude(t)

	modal := "How is Claude doing?\n1. Great\n2. Good\n3. Bad\n4. Dismiss\n"
	if got := Detect(modal, p, nil); got != StateFeedbackModal {
		t.Errorf("got %v, want feedback_modal", got)
	}

	partial := "Steps:\n1. build\n2. test\n\n❯ "
	if got := Detect(partial, p, styledAccept("❯")); got == StateFeedbackModal {
		t.Error("ordinary numbered list reported feedback_modal")
	}
}

// ---------------------------------------------------------------------------
// state helpers
// ---------------------------------------------------------------------------

func TestTerminalStates(t *testing.T) {
	terminal := []State{StateReady, StateConfirming, StateRateLimited}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%v should be terminal", s)
		}
	}
	for _, s := range []State{StateStarting, StateThinking, StateUpdatePrompt, StateFeedbackModal, StateNoSession} {
		if s.Terminal() {
			t.Errorf("%v should not be terminal", s)
		}
	}
}
