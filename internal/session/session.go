// Package session manages agent session lifecycle: spawning a backend
// inside a fresh pane, resolving user-supplied identifiers, sending turns,
// and tearing sessions down. It is the seam between the name grammar and
// the live multiplexer.
package session

import (
	"errors"
	"fmt"

	"github.com/groblegark/seance/internal/backend"
	"github.com/groblegark/seance/internal/sessionid"
	"github.com/groblegark/seance/internal/tmux"
)

// ErrNoSession means the identifier resolved to nothing alive.
var ErrNoSession = errors.New("no such session")

// Multiplexer is the slice of the tmux wrapper the manager needs.
// *tmux.Tmux satisfies it.
type Multiplexer interface {
	NewSessionWithCommand(name, workDir, command string) error
	KillSessionWithProcesses(name string) error
	HasSession(name string) (bool, error)
	ListSessions() ([]string, error)
	SendKeys(session, keys string) error
	WakePaneIfDetached(target string)
	IsSessionAttached(target string) bool
	ApplyTheme(session string, theme tmux.Theme) error
}

// Info describes one live seance session.
type Info struct {
	Name     string
	Identity sessionid.Identity
	Attached bool
}

// Manager drives session lifecycle against one multiplexer.
type Manager struct {
	mux Multiplexer
}

// NewManager creates a Manager.
func NewManager(mux Multiplexer) *Manager {
	return &Manager{mux: mux}
}

// Spawn launches the identity's backend in a new detached session and
// returns the session name. Spawning an identity whose session already
// exists reuses it — the name encodes everything that matters, so an
// existing session with that name is the session the caller asked for.
func (m *Manager) Spawn(id sessionid.Identity, workDir string, allow []string) (string, error) {
	profile, err := backend.ByTool(id.Tool)
	if err != nil {
		return "", err
	}
	name := id.String()

	if exists, err := m.mux.HasSession(name); err != nil {
		return "", fmt.Errorf("checking session %s: %w", name, err)
	} else if exists {
		return name, nil
	}

	cmd := profile.LaunchCommand(id.Mode == sessionid.ModeYolo, allow)
	if err := m.mux.NewSessionWithCommand(name, workDir, cmd); err != nil {
		return "", fmt.Errorf("spawning %s: %w", name, err)
	}

	theme := tmux.ThemeForTool(id.Tool)
	if id.Kind == sessionid.KindArchangel {
		theme = tmux.ArchangelTheme()
	}
	// Cosmetic; a failure here is not worth failing the spawn.
	_ = m.mux.ApplyTheme(name, theme)

	return name, nil
}

// List returns the live sessions that parse under the name grammar.
// Foreign tmux sessions are invisible here.
func (m *Manager) List() ([]Info, error) {
	names, err := m.mux.ListSessions()
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	var out []Info
	for _, name := range names {
		id, err := sessionid.Decode(name)
		if err != nil {
			continue
		}
		out = append(out, Info{
			Name:     name,
			Identity: id,
			Attached: m.mux.IsSessionAttached(name),
		})
	}
	return out, nil
}

// Resolve maps a partial identifier to a live session name. Ambiguity
// surfaces as the codec's error; an identifier matching nothing alive is
// ErrNoSession.
func (m *Manager) Resolve(input string) (string, error) {
	names, err := m.mux.ListSessions()
	if err != nil {
		return "", fmt.Errorf("listing sessions: %w", err)
	}
	resolved, err := sessionid.Resolve(input, names)
	if err != nil {
		return "", err
	}
	for _, name := range names {
		if name == resolved {
			return resolved, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoSession, input)
}

// Send delivers one prompt to a session, waking a detached pane first so
// the TUI actually processes the keys.
func (m *Manager) Send(session, text string) error {
	m.mux.WakePaneIfDetached(session)
	if err := m.mux.SendKeys(session, text); err != nil {
		return fmt.Errorf("sending to %s: %w", session, err)
	}
	return nil
}

// Kill tears down a session including its process tree.
func (m *Manager) Kill(session string) error {
	if err := m.mux.KillSessionWithProcesses(session); err != nil {
		return fmt.Errorf("killing %s: %w", session, err)
	}
	return nil
}
