package backend

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/groblegark/seance/internal/term"
)

// Claude Code. The ready prompt arrow is also a character models love to
// echo in their own output, hence RequireStyledPrompt: the genuine prompt is
// always drawn bold, quoted occurrences never are.
var claudeProfile = &Profile{
	Tool:                "claude",
	Executable:          "claude",
	ReadyPrompt:         "❯",
	RequireStyledPrompt: true,

	BusyGlyphs: []string{"✻", "✽", "✶", "✳", "✢", "·"},

	RateLimit: regexp.MustCompile(`(?i)usage limit reached|rate.?limit|too many requests|overloaded|429`),

	Thinking: []Pattern{
		{Regex: regexp.MustCompile(`…\s*\((?:esc|ctrl\+c) to interrupt\)`)},
		{Literal: "Thinking…"},
		{Regex: regexp.MustCompile(`⎿\s+Running`)},
	},

	ActiveWork: []Pattern{
		{Literal: "esc to interrupt"},
		{Literal: "ctrl+c to interrupt"},
	},

	Confirm: []Pattern{
		{Literal: "Do you want to proceed?"},
		{Regex: regexp.MustCompile(`(?i)do you want to (?:make this edit|create|delete|run)`)},
		{Literal: "accept edits"},
		{Predicate: numberedMenuChoice},
	},

	FeedbackOptions: []string{"1.", "2.", "3.", "4."},

	Update: UpdatePrompt{
		Screen: "Auto-update installed",
		Tail:   "restart",
	},

	Chrome: []*regexp.Regexp{
		regexp.MustCompile(`^[\s─━╭╮╰╯│]+$`),
		regexp.MustCompile(`^\s*│.*│\s*$`), // input box rows
		regexp.MustCompile(`\? for shortcuts`),
		regexp.MustCompile(`(?i)bypassing permissions`),
		regexp.MustCompile(`^\s*❯\s*$`),
	},

	ResponseMarker: "⏺",

	ApproveKeys: "Enter",
	RejectKeys:  "Escape",
	DismissKeys: "Escape",

	YoloFlag:  "--dangerously-skip-permissions",
	AllowFlag: "--allowedTools",
	AllowJoin: " ",

	DefaultAllow: []string{"Read", "Grep", "Glob", "LS", "NotebookRead"},

	ParseLogLine: parseClaudeLogLine,
}

func init() { register(claudeProfile) }

// numberedMenuChoice recognizes the selected row of a confirmation menu:
// an arrow, then a numbered option ("❯ 1. Yes"). The feedback dialog also
// draws numbered rows, but the detector checks for it first.
var numberedMenuRe = regexp.MustCompile(`^\s*❯\s*\d+\.\s`)

func numberedMenuChoice(line string) bool {
	return numberedMenuRe.MatchString(line)
}

// claudeLogRecord is the subset of Claude Code's session JSONL we consume.
// Content blocks arrive in the assistant message envelope.
type claudeLogRecord struct {
	Type    string `json:"type"`
	Message struct {
		Content []struct {
			Type     string          `json:"type"`
			Text     string          `json:"text"`
			Thinking string          `json:"thinking"`
			Name     string          `json:"name"`
			Input    json.RawMessage `json:"input"`
		} `json:"content"`
	} `json:"message"`
}

// parseClaudeLogLine parses one session-log line into segments. Anything
// that doesn't decode, or isn't an assistant record, yields nothing — the
// log format is Claude's, not ours, and it drifts.
func parseClaudeLogLine(line string) []term.Segment {
	var rec claudeLogRecord
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return nil
	}
	if rec.Type != "assistant" {
		return nil
	}
	var segs []term.Segment
	for _, block := range rec.Message.Content {
		switch block.Type {
		case "text":
			if block.Text != "" {
				segs = append(segs, term.Segment{Kind: term.KindText, Text: block.Text})
			}
		case "thinking":
			if block.Thinking != "" {
				segs = append(segs, term.Segment{Kind: term.KindThinking, Text: block.Thinking})
			}
		case "tool_use":
			segs = append(segs, term.Segment{
				Kind: term.KindTool,
				Text: toolSummary(block.Name, block.Input),
			})
		}
	}
	return segs
}

// toolSummary renders a compact one-line tool call, e.g. "⏺ Bash(git status)".
func toolSummary(name string, input json.RawMessage) string {
	arg := primaryToolArg(input)
	if arg == "" {
		return fmt.Sprintf("⏺ %s", name)
	}
	const maxArg = 80
	if len(arg) > maxArg {
		arg = arg[:maxArg-1] + "…"
	}
	return fmt.Sprintf("⏺ %s(%s)", name, arg)
}

// primaryToolArg picks the most descriptive string field out of a tool
// input. Tool schemas differ; these cover the common ones.
func primaryToolArg(input json.RawMessage) string {
	if len(input) == 0 {
		return ""
	}
	var fields map[string]any
	if err := json.Unmarshal(input, &fields); err != nil {
		return ""
	}
	for _, key := range []string{"command", "file_path", "pattern", "path", "url", "query"} {
		if v, ok := fields[key].(string); ok && v != "" {
			return strings.ReplaceAll(v, "\n", " ")
		}
	}
	return ""
}
