// Package tmux wraps the tmux operations seance needs via subprocess.
//
// Sessions hold one pane each, running one agent process. Everything the
// rest of the system knows about a live agent it learns through this
// package: capture the visible pane, send keys, check liveness.
package tmux

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// Common errors
var (
	ErrNoServer           = errors.New("no tmux server running")
	ErrSessionExists      = errors.New("session already exists")
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidSessionName = errors.New("invalid session name")
)

// validSessionNameRe validates session names to prevent shell injection and
// the cryptic failures tmux produces for names containing dots or colons.
var validSessionNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func validateSessionName(name string) error {
	if name == "" || !validSessionNameRe.MatchString(name) {
		return fmt.Errorf("%w %q: must match %s", ErrInvalidSessionName, name, validSessionNameRe.String())
	}
	return nil
}

// DefaultDebounceMs is the pause between pasting text and sending Enter.
// Agent TUIs drop the Enter when it arrives before the paste is processed.
const DefaultDebounceMs = 100

// Tmux wraps tmux operations.
type Tmux struct{}

// NewTmux creates a new Tmux wrapper.
func NewTmux() *Tmux {
	return &Tmux{}
}

// run executes a tmux command and returns stdout. All commands include the
// -u flag so UTF-8 glyphs (spinners, prompt arrows) survive regardless of
// locale settings.
func (t *Tmux) run(args ...string) (string, error) {
	allArgs := append([]string{"-u"}, args...)
	cmd := exec.Command("tmux", allArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", t.wrapError(err, stderr.String(), args)
	}
	return strings.TrimRight(stdout.String(), "\n"), nil
}

// wrapError maps tmux stderr to the sentinel errors callers branch on.
func (t *Tmux) wrapError(err error, stderr string, args []string) error {
	stderr = strings.TrimSpace(stderr)

	if strings.Contains(stderr, "no server running") ||
		strings.Contains(stderr, "error connecting to") ||
		strings.Contains(stderr, "no current target") ||
		strings.Contains(stderr, "server exited unexpectedly") {
		return ErrNoServer
	}
	if strings.Contains(stderr, "duplicate session") {
		return ErrSessionExists
	}
	if strings.Contains(stderr, "session not found") ||
		strings.Contains(stderr, "can't find session") {
		return ErrSessionNotFound
	}

	if stderr != "" {
		return fmt.Errorf("tmux %s: %s", args[0], stderr)
	}
	return fmt.Errorf("tmux %s: %w", args[0], err)
}

// IsAvailable checks if tmux is installed and can be invoked.
func (t *Tmux) IsAvailable() bool {
	return exec.Command("tmux", "-V").Run() == nil
}

// --- Session lifecycle ---

// NewSessionWithCommand creates a detached session whose pane immediately
// runs command as its initial process. Launching the agent this way avoids
// the race where keys arrive before a shell prompt exists.
func (t *Tmux) NewSessionWithCommand(name, workDir, command string) error {
	if err := validateSessionName(name); err != nil {
		return err
	}
	args := []string{"new-session", "-d", "-s", name}
	if workDir != "" {
		args = append(args, "-c", workDir)
	}
	args = append(args, command)
	_, err := t.run(args...)
	return err
}

// KillSession terminates a session.
func (t *Tmux) KillSession(name string) error {
	_, err := t.run("kill-session", "-t", "="+name)
	return err
}

// killGracePeriod is how long to wait after SIGTERM before SIGKILL when
// tearing down a session's processes.
const killGracePeriod = 2 * time.Second

// KillSessionWithProcesses kills the pane's process tree before terminating
// the session. Agent processes ignore SIGHUP, so a bare kill-session leaves
// orphans behind.
func (t *Tmux) KillSessionWithProcesses(name string) error {
	pid, err := t.GetPanePID(name)
	if err != nil {
		killErr := t.KillSession(name)
		if killErr == nil || errors.Is(killErr, ErrSessionNotFound) || errors.Is(killErr, ErrNoServer) {
			return nil
		}
		return killErr
	}

	if pid != "" {
		// Deepest-first so killing a parent never orphans grandchildren
		// before their own SIGTERM arrives.
		descendants := getAllDescendants(pid)
		for _, dpid := range descendants {
			_ = exec.Command("kill", "-TERM", dpid).Run()
		}
		time.Sleep(killGracePeriod)
		for _, dpid := range descendants {
			_ = exec.Command("kill", "-KILL", dpid).Run()
		}
		_ = exec.Command("kill", "-TERM", pid).Run()
		time.Sleep(killGracePeriod)
		_ = exec.Command("kill", "-KILL", pid).Run()
	}

	// Killing the pane process may already have destroyed the session.
	err = t.KillSession(name)
	if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrNoServer) {
		return nil
	}
	return err
}

// getAllDescendants recursively finds descendant PIDs, deepest first.
func getAllDescendants(pid string) []string {
	var result []string
	out, err := exec.Command("pgrep", "-P", pid).Output()
	if err != nil {
		return result
	}
	for _, child := range strings.Fields(strings.TrimSpace(string(out))) {
		result = append(result, getAllDescendants(child)...)
		result = append(result, child)
	}
	return result
}

// --- Session queries ---

// HasSession checks if a session exists. The "=" prefix forces exact
// matching so "claude-partner-a" never answers for "claude-partner-a2".
func (t *Tmux) HasSession(name string) (bool, error) {
	_, err := t.run("has-session", "-t", "="+name)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrNoServer) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListSessions returns all session names.
func (t *Tmux) ListSessions() ([]string, error) {
	out, err := t.run("list-sessions", "-F", "#{session_name}")
	if err != nil {
		if errors.Is(err, ErrNoServer) {
			return nil, nil // no server = no sessions
		}
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// GetPanePID returns the PID of the pane's main process.
func (t *Tmux) GetPanePID(target string) (string, error) {
	out, err := t.run("display-message", "-t", "="+target, "-p", "#{pane_pid}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// IsPaneDead reports whether the pane's process has exited.
func (t *Tmux) IsPaneDead(target string) (bool, error) {
	out, err := t.run("display-message", "-t", "="+target, "-p", "#{pane_dead}")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) == "1", nil
}

// IsSessionAttached returns true if any client is attached to the session.
func (t *Tmux) IsSessionAttached(target string) bool {
	attached, err := t.run("display-message", "-t", "="+target, "-p", "#{session_attached}")
	return err == nil && attached == "1"
}

// --- Key sending ---

// SendKeys sends text to a session and presses Enter, with the default
// debounce between paste and Enter.
func (t *Tmux) SendKeys(session, keys string) error {
	return t.SendKeysDebounced(session, keys, DefaultDebounceMs)
}

// SendKeysDebounced sends text in literal mode, waits debounceMs, then sends
// Enter as a separate command. The separate Enter is deliberate: appending
// it to the paste is unreliable against agent TUIs.
func (t *Tmux) SendKeysDebounced(session, keys string, debounceMs int) error {
	if _, err := t.run("send-keys", "-t", "="+session, "-l", keys); err != nil {
		return err
	}
	if debounceMs > 0 {
		time.Sleep(time.Duration(debounceMs) * time.Millisecond)
	}
	_, err := t.run("send-keys", "-t", "="+session, "Enter")
	return err
}

// SendKeysRaw sends key names (e.g. "Enter", "Escape", "1") without
// literal-mode quoting and without appending Enter.
func (t *Tmux) SendKeysRaw(session, keys string) error {
	_, err := t.run("send-keys", "-t", "="+session, keys)
	return err
}

// --- Capture ---

// CaptureVisible returns the entire currently visible pane content with
// escape sequences stripped by tmux itself.
func (t *Tmux) CaptureVisible(session string) (string, error) {
	return t.run("capture-pane", "-p", "-t", "="+session)
}

// CaptureVisibleStyled is the same capture with -e, preserving SGR escape
// sequences for the styled reader.
func (t *Tmux) CaptureVisibleStyled(session string) (string, error) {
	return t.run("capture-pane", "-p", "-e", "-t", "="+session)
}

// CaptureLines captures the last N lines of the pane, including scrollback
// when the visible screen is shorter than n.
func (t *Tmux) CaptureLines(session string, n int) ([]string, error) {
	out, err := t.run("capture-pane", "-p", "-t", "="+session, "-S", fmt.Sprintf("-%d", n))
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// --- Wake ---

// WakePane triggers a SIGWINCH by resizing the pane down one row and back.
// A detached agent TUI may not process stdin until a terminal event occurs;
// the resize dance simulates the event attaching would deliver.
func (t *Tmux) WakePane(target string) {
	_, _ = t.run("resize-pane", "-t", "="+target, "-y", "-1")
	time.Sleep(50 * time.Millisecond)
	_, _ = t.run("resize-pane", "-t", "="+target, "-y", "+1")
}

// WakePaneIfDetached wakes only detached sessions; attached ones already
// receive terminal events.
func (t *Tmux) WakePaneIfDetached(target string) {
	if t.IsSessionAttached(target) {
		return
	}
	t.WakePane(target)
}

// --- Attach ---

// AttachSession attaches the current terminal to the session (foreground).
func (t *Tmux) AttachSession(session string) error {
	cmd := exec.Command("tmux", "-u", "attach-session", "-t", "="+session)
	return cmd.Run()
}

// --- Appearance ---

// ApplyTheme colors a session's status bar so seance-owned sessions are
// recognizable when a user attaches.
func (t *Tmux) ApplyTheme(session string, theme Theme) error {
	_, err := t.run("set-option", "-t", "="+session, "status-style",
		fmt.Sprintf("bg=%s,fg=%s", theme.BG, theme.FG))
	return err
}
