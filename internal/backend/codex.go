package backend

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/groblegark/seance/internal/term"
)

// Codex. Its prompt chevron is plain enough that a styled cross-check has
// never been needed, but its working state redraws intermittently, which is
// why the engine's settle window matters more here than for Claude.
var codexProfile = &Profile{
	Tool:        "codex",
	Executable:  "codex",
	ReadyPrompt: "›",

	BusyGlyphs: []string{"•", "◦"},

	RateLimit: regexp.MustCompile(`(?i)usage limit exceeded|rate limit|too many requests|please try again at`),

	Thinking: []Pattern{
		{Regex: regexp.MustCompile(`\(\s*(?:\d+h\s+)?(?:\d+m\s+)?\d+s\s*[•·]\s*esc to interrupt\)`)},
		{Literal: "Thinking"},
		{Regex: regexp.MustCompile(`(?i)^\s*working\b`)},
	},

	ActiveWork: []Pattern{
		{Literal: "esc to interrupt"},
	},

	Confirm: []Pattern{
		{Regex: regexp.MustCompile(`(?i)press enter to confirm`)},
		{Regex: regexp.MustCompile(`(?i)(?:approve|allow|proceed)\?`)},
		{Predicate: codexMenuChoice},
	},

	FeedbackOptions: []string{"1.", "2.", "3.", "4."},

	Update: UpdatePrompt{
		Screen: "A new version of Codex is available",
		Tail:   "Update now",
	},

	Chrome: []*regexp.Regexp{
		regexp.MustCompile(`^[\s─━]+$`),
		regexp.MustCompile(`(?i)send\s+.*newline.*transcript`),
		regexp.MustCompile(`^─\s*Worked for .+─+$`),
		regexp.MustCompile(`^\s*›\s*$`),
	},

	ResponseMarker: "codex",

	ApproveKeys: "Enter",
	RejectKeys:  "Escape",
	DismissKeys: "Escape",

	YoloFlag:  "--dangerously-bypass-approvals-and-sandbox",
	AllowFlag: "--sandbox",
	AllowJoin: ",",

	DefaultAllow: []string{"read-only"},

	ParseLogLine: parseCodexLogLine,
}

func init() { register(codexProfile) }

// codexMenuChoice recognizes the selected numbered option of an approval
// menu ("› 1. Yes, run it").
var codexMenuRe = regexp.MustCompile(`^\s*›\s*\d+\.\s`)

func codexMenuChoice(line string) bool {
	return codexMenuRe.MatchString(line)
}

// codexLogRecord is the subset of Codex's rollout JSONL we consume. Items
// are wrapped in a response_item envelope.
type codexLogRecord struct {
	Type    string `json:"type"`
	Payload struct {
		Type    string `json:"type"`
		Role    string `json:"role"`
		Name    string `json:"name"`
		Args    string `json:"arguments"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Summary []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"summary"`
	} `json:"payload"`
}

func parseCodexLogLine(line string) []term.Segment {
	var rec codexLogRecord
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return nil
	}
	if rec.Type != "response_item" {
		return nil
	}
	var segs []term.Segment
	switch rec.Payload.Type {
	case "message":
		if rec.Payload.Role != "assistant" {
			return nil
		}
		for _, c := range rec.Payload.Content {
			if c.Type == "output_text" && c.Text != "" {
				segs = append(segs, term.Segment{Kind: term.KindText, Text: c.Text})
			}
		}
	case "reasoning":
		for _, s := range rec.Payload.Summary {
			if s.Text != "" {
				segs = append(segs, term.Segment{Kind: term.KindThinking, Text: s.Text})
			}
		}
	case "function_call":
		segs = append(segs, term.Segment{
			Kind: term.KindTool,
			Text: codexCallSummary(rec.Payload.Name, rec.Payload.Args),
		})
	}
	return segs
}

// codexCallSummary renders a compact tool call line, e.g. "⏺ shell(ls -la)".
func codexCallSummary(name, rawArgs string) string {
	var args struct {
		Command []string `json:"command"`
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err == nil && len(args.Command) > 0 {
		cmd := strings.Join(args.Command, " ")
		const maxArg = 80
		if len(cmd) > maxArg {
			cmd = cmd[:maxArg-1] + "…"
		}
		return fmt.Sprintf("⏺ %s(%s)", name, cmd)
	}
	return fmt.Sprintf("⏺ %s", name)
}
