package backend

import (
	"strings"
	"testing"

	"github.com/groblegark/seance/internal/term"
)

// ---------------------------------------------------------------------------
// registry
// ---------------------------------------------------------------------------

func TestByTool(t *testing.T) {
	for _, tool := range []string{"claude", "codex"} {
		p, err := ByTool(tool)
		if err != nil {
			t.Fatalf("ByTool(%q): %v", tool, err)
		}
		if p.Tool != tool {
			t.Errorf("profile tool = %q", p.Tool)
		}
		if p.ReadyPrompt == "" || len(p.BusyGlyphs) == 0 || p.RateLimit == nil {
			t.Errorf("%s profile is missing required fields", tool)
		}
	}
	if _, err := ByTool("gemini"); err == nil {
		t.Error("unknown tool should error")
	}
}

func TestToolsSorted(t *testing.T) {
	tools := Tools()
	if len(tools) != 2 || tools[0] != "claude" || tools[1] != "codex" {
		t.Errorf("Tools() = %v", tools)
	}
}

// ---------------------------------------------------------------------------
// Pattern
// ---------------------------------------------------------------------------

func TestPatternVariants(t *testing.T) {
	lit := Pattern{Literal: "esc to interrupt"}
	if !lit.Match("✻ Pondering… (esc to interrupt)") {
		t.Error("literal pattern failed")
	}
	pred := Pattern{Predicate: numberedMenuChoice}
	if !pred.Match(" ❯ 1. Yes") {
		t.Error("predicate pattern failed")
	}
	if pred.Match("items: 1. first 2. second") {
		t.Error("predicate matched a non-menu line")
	}
}

// ---------------------------------------------------------------------------
// LaunchCommand
// ---------------------------------------------------------------------------

func TestLaunchCommandYolo(t *testing.T) {
	p, _ := ByTool("claude")
	cmd := p.LaunchCommand(true, nil)
	if cmd != "claude --dangerously-skip-permissions" {
		t.Errorf("yolo command = %q", cmd)
	}
}

func TestLaunchCommandDefaultAllowList(t *testing.T) {
	p, _ := ByTool("claude")
	cmd := p.LaunchCommand(false, nil)
	if !strings.Contains(cmd, "--allowedTools") || !strings.Contains(cmd, "Read") {
		t.Errorf("default command = %q, want read-only allow-list", cmd)
	}
}

func TestLaunchCommandCustomAllowListSorted(t *testing.T) {
	p, _ := ByTool("claude")
	a := p.LaunchCommand(false, []string{"Write", "Bash"})
	b := p.LaunchCommand(false, []string{"Bash", "Write"})
	if a != b {
		t.Errorf("order-sensitive launch command: %q vs %q", a, b)
	}
	if !strings.Contains(a, "Bash Write") {
		t.Errorf("allow-list not sorted: %q", a)
	}
}

// ---------------------------------------------------------------------------
// Claude log parsing
// ---------------------------------------------------------------------------

func TestParseClaudeLogLineAssistantText(t *testing.T) {
	line := `{"type":"assistant","message":{"content":[{"type":"text","text":"done"},{"type":"thinking","thinking":"hmm"}]}}`
	segs := parseClaudeLogLine(line)
	if len(segs) != 2 {
		t.Fatalf("got %d segments", len(segs))
	}
	if segs[0].Kind != term.KindText || segs[0].Text != "done" {
		t.Errorf("segment 0 = %+v", segs[0])
	}
	if segs[1].Kind != term.KindThinking || segs[1].Text != "hmm" {
		t.Errorf("segment 1 = %+v", segs[1])
	}
}

func TestParseClaudeLogLineToolUse(t *testing.T) {
	line := `{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Bash","input":{"command":"git status"}}]}}`
	segs := parseClaudeLogLine(line)
	if len(segs) != 1 || segs[0].Kind != term.KindTool {
		t.Fatalf("got %+v", segs)
	}
	if segs[0].Text != "⏺ Bash(git status)" {
		t.Errorf("tool summary = %q", segs[0].Text)
	}
}

func TestParseClaudeLogLineSkipsOtherRecords(t *testing.T) {
	for _, line := range []string{
		`{"type":"user","message":{"content":[{"type":"text","text":"hi"}]}}`,
		`{"type":"summary"}`,
		`not json`,
	} {
		if segs := parseClaudeLogLine(line); len(segs) != 0 {
			t.Errorf("line %q produced %+v", line, segs)
		}
	}
}

// ---------------------------------------------------------------------------
// Codex log parsing
// ---------------------------------------------------------------------------

func TestParseCodexLogLineMessage(t *testing.T) {
	line := `{"type":"response_item","payload":{"type":"message","role":"assistant","content":[{"type":"output_text","text":"hello"}]}}`
	segs := parseCodexLogLine(line)
	if len(segs) != 1 || segs[0].Kind != term.KindText || segs[0].Text != "hello" {
		t.Fatalf("got %+v", segs)
	}
}

func TestParseCodexLogLineFunctionCall(t *testing.T) {
	line := `{"type":"response_item","payload":{"type":"function_call","name":"shell","arguments":"{\"command\":[\"ls\",\"-la\"]}"}}`
	segs := parseCodexLogLine(line)
	if len(segs) != 1 || segs[0].Kind != term.KindTool {
		t.Fatalf("got %+v", segs)
	}
	if segs[0].Text != "⏺ shell(ls -la)" {
		t.Errorf("call summary = %q", segs[0].Text)
	}
}

func TestParseCodexLogLineUserMessageSkipped(t *testing.T) {
	line := `{"type":"response_item","payload":{"type":"message","role":"user","content":[{"type":"output_text","text":"hi"}]}}`
	if segs := parseCodexLogLine(line); len(segs) != 0 {
		t.Errorf("user message produced %+v", segs)
	}
}
