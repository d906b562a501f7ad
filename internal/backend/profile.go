// Package backend holds the per-tool profiles that teach the rest of the
// system how each agent CLI draws its terminal UI: what "ready" looks like,
// what "busy" looks like, how confirmation prompts phrase themselves, and
// how the tool's structured log is parsed.
//
// Profiles are immutable data. Everything that varies between Claude Code
// and Codex lives here; the detector and polling engine are backend-blind.
package backend

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/groblegark/seance/internal/term"
)

// Pattern matches a single screen line. Exactly one of Literal, Regex, or
// Predicate is set. Predicates cover the cases a substring can't express,
// like "a numbered option under a question".
type Pattern struct {
	Literal   string
	Regex     *regexp.Regexp
	Predicate func(line string) bool
}

// Match reports whether the line satisfies the pattern.
func (p Pattern) Match(line string) bool {
	switch {
	case p.Predicate != nil:
		return p.Predicate(line)
	case p.Regex != nil:
		return p.Regex.MatchString(line)
	default:
		return p.Literal != "" && strings.Contains(line, p.Literal)
	}
}

// MatchAny reports whether any line satisfies the pattern.
func (p Pattern) MatchAny(lines []string) bool {
	for _, line := range lines {
		if p.Match(line) {
			return true
		}
	}
	return false
}

// UpdatePrompt is the two-part update dialog signature: Screen must appear
// anywhere in the capture and Tail must appear in the trailing window.
// Requiring both keeps release-notes chatter in scrollback from being
// mistaken for a live dialog.
type UpdatePrompt struct {
	Screen string
	Tail   string
}

// Profile describes one supported agent tool.
type Profile struct {
	// Tool is the identifier used in session names ("claude", "codex").
	Tool string

	// Executable is the agent binary launched inside a new pane.
	Executable string

	// ReadyPrompt is the glyph the tool shows at its input prompt.
	ReadyPrompt string

	// RequireStyledPrompt demands that the ready glyph be found in a bold
	// span of a styled re-capture before READY is trusted. Claude's prompt
	// arrow also shows up as plain text in model output; Codex's doesn't,
	// so this stays per-profile data rather than a global rule.
	RequireStyledPrompt bool

	// BusyGlyphs are the spinner characters shown while the tool works.
	BusyGlyphs []string

	// RateLimit matches the tool's rate limit / usage cap messages.
	RateLimit *regexp.Regexp

	// Thinking matches transient status text shown while working.
	Thinking []Pattern

	// ActiveWork matches phrases meaning "still working" that can appear
	// even while the ready glyph is visible. Checked before the ready
	// check for exactly that reason.
	ActiveWork []Pattern

	// Confirm matches pending permission/confirmation dialogs.
	Confirm []Pattern

	// FeedbackOptions is the numbered-dismiss feedback dialog signature:
	// the dialog is recognized only when every marker is present in the
	// recent window.
	FeedbackOptions []string

	// Update is the two-part update prompt signature.
	Update UpdatePrompt

	// Chrome matches cosmetic UI lines (borders, hints, branding) stripped
	// before extracting response text.
	Chrome []*regexp.Regexp

	// ResponseMarker introduces an assistant response block on screen.
	ResponseMarker string

	// Key names (tmux send-keys syntax) for resolving dialogs.
	ApproveKeys string
	RejectKeys  string
	DismissKeys string

	// YoloFlag disables all confirmation prompts at launch.
	YoloFlag string

	// AllowFlag and AllowJoin render a custom allow-list into launch args.
	AllowFlag string
	AllowJoin string

	// DefaultAllow is the fixed read-only allow-list applied when a
	// session is created in default (safe) permission mode.
	DefaultAllow []string

	// ParseLogLine parses one line of the tool's structured log into
	// content segments. Nil when the tool has no usable log.
	ParseLogLine term.RecordParser
}

// LaunchCommand builds the shell command that starts the agent for the
// given permission mode. A nil allow list means default mode.
func (p *Profile) LaunchCommand(yolo bool, allow []string) string {
	if yolo {
		return p.Executable + " " + p.YoloFlag
	}
	list := allow
	if list == nil {
		list = p.DefaultAllow
	}
	if len(list) == 0 || p.AllowFlag == "" {
		return p.Executable
	}
	sorted := append([]string(nil), list...)
	sort.Strings(sorted)
	return fmt.Sprintf("%s %s %q", p.Executable, p.AllowFlag, strings.Join(sorted, p.AllowJoin))
}

var registry = map[string]*Profile{}

func register(p *Profile) {
	registry[p.Tool] = p
}

// ByTool returns the profile for a tool name.
func ByTool(tool string) (*Profile, error) {
	p, ok := registry[tool]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q (supported: %s)", tool, strings.Join(Tools(), ", "))
	}
	return p, nil
}

// Tools returns the supported tool names, sorted.
func Tools() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
