// Package cmd implements the seance command-line surface.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/groblegark/seance/internal/backend"
	"github.com/groblegark/seance/internal/config"
	"github.com/groblegark/seance/internal/detect"
	"github.com/groblegark/seance/internal/lock"
	"github.com/groblegark/seance/internal/poll"
	"github.com/groblegark/seance/internal/session"
	"github.com/groblegark/seance/internal/sessionid"
	"github.com/groblegark/seance/internal/tmux"
	"github.com/groblegark/seance/internal/util"
)

// Command groups.
const (
	GroupSessions = "sessions"
	GroupTurns    = "turns"
	GroupWatch    = "watch"
)

var rootCmd = &cobra.Command{
	Use:   "seance",
	Short: "Drive interactive AI agents inside tmux",
	Long: `seance runs coding agents (Claude Code, Codex) inside tmux sessions and
talks to them the way a human would: send a prompt, watch the screen,
wait for the turn to finish, pull out the answer.

Sessions are named so their backend, role, and permission mode survive
in the name itself. Partial names resolve against the live set.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupSessions, Title: "Session Commands:"},
		&cobra.Group{ID: GroupTurns, Title: "Turn Commands:"},
		&cobra.Group{ID: GroupWatch, Title: "Watch Commands:"},
	)
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "seance: %v\n", err)
		os.Exit(1)
	}
}

func requireSubcommand(cmd *cobra.Command, args []string) error {
	return cmd.Help()
}

// --- shared wiring ---

func loadConfig() (*config.Config, error) {
	return config.LoadDefault()
}

func newManager() (*session.Manager, *tmux.Tmux, error) {
	t := tmux.NewTmux()
	if !t.IsAvailable() {
		return nil, nil, fmt.Errorf("tmux is not installed or not on PATH")
	}
	return session.NewManager(t), t, nil
}

// pollerFor builds a polling engine for the backend a session name encodes.
func pollerFor(t *tmux.Tmux, cfg *config.Config, name string) (*poll.Poller, *backend.Profile, error) {
	id, err := sessionid.Decode(name)
	if err != nil {
		return nil, nil, fmt.Errorf("session %q is not seance-managed: %w", name, err)
	}
	profile, err := backend.ByTool(id.Tool)
	if err != nil {
		return nil, nil, err
	}
	return poll.New(t, profile, cfg.PollTiming()), profile, nil
}

// profileFor returns the backend profile a session name encodes.
func profileFor(name string) (*backend.Profile, error) {
	id, err := sessionid.Decode(name)
	if err != nil {
		return nil, fmt.Errorf("session %q is not seance-managed: %w", name, err)
	}
	return backend.ByTool(id.Tool)
}

// debugHooks traces state transitions to stderr under SEANCE_DEBUG.
func debugHooks() *poll.Hooks {
	return &poll.Hooks{
		OnStateChange: func(from, to detect.State) {
			util.Debugf("state %s -> %s", from, to)
		},
	}
}

// withSessionLock runs fn holding the session's advisory lock, so a turn
// from this process can't interleave with a watcher's turn on the same
// session.
func withSessionLock(name string, timeout time.Duration, fn func() error) error {
	l, err := lock.ForSession(name)
	if err != nil {
		return err
	}
	if err := l.Acquire(timeout); err != nil {
		return err
	}
	defer l.Release()
	return fn()
}
