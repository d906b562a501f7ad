package session

import (
	"errors"
	"strings"
	"testing"

	"github.com/groblegark/seance/internal/sessionid"
	"github.com/groblegark/seance/internal/tmux"
)

// fakeMux records calls; sessions is the live set.
type fakeMux struct {
	sessions []string
	attached map[string]bool

	spawned []string // "name|workdir|command"
	sent    []string // "session|keys"
	killed  []string
	woken   []string
	themed  []string
}

func newFakeMux(sessions ...string) *fakeMux {
	return &fakeMux{sessions: sessions, attached: map[string]bool{}}
}

func (f *fakeMux) NewSessionWithCommand(name, workDir, command string) error {
	f.spawned = append(f.spawned, name+"|"+workDir+"|"+command)
	f.sessions = append(f.sessions, name)
	return nil
}

func (f *fakeMux) KillSessionWithProcesses(name string) error {
	f.killed = append(f.killed, name)
	return nil
}

func (f *fakeMux) HasSession(name string) (bool, error) {
	for _, s := range f.sessions {
		if s == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMux) ListSessions() ([]string, error) { return f.sessions, nil }

func (f *fakeMux) SendKeys(session, keys string) error {
	f.sent = append(f.sent, session+"|"+keys)
	return nil
}

func (f *fakeMux) WakePaneIfDetached(target string) { f.woken = append(f.woken, target) }

func (f *fakeMux) IsSessionAttached(target string) bool { return f.attached[target] }

func (f *fakeMux) ApplyTheme(session string, theme tmux.Theme) error {
	f.themed = append(f.themed, session+"|"+theme.Name)
	return nil
}

const liveUUID = "aaaa1111-0000-4000-8000-000000000001"

func TestSpawnDefaultMode(t *testing.T) {
	mux := newFakeMux()
	m := NewManager(mux)

	id := sessionid.Identity{Tool: "claude", Kind: sessionid.KindPartner, UUID: liveUUID, Mode: sessionid.ModeDefault}
	name, err := m.Spawn(id, "/work", nil)
	if err != nil {
		t.Fatal(err)
	}
	if name != id.String() {
		t.Errorf("name = %q", name)
	}
	if len(mux.spawned) != 1 {
		t.Fatalf("spawned = %v", mux.spawned)
	}
	if !strings.Contains(mux.spawned[0], "/work") {
		t.Errorf("workdir missing: %q", mux.spawned[0])
	}
	if !strings.Contains(mux.spawned[0], "--allowedTools") {
		t.Errorf("default mode should pass the read-only allow-list: %q", mux.spawned[0])
	}
	if len(mux.themed) != 1 || !strings.Contains(mux.themed[0], "claude") {
		t.Errorf("themed = %v", mux.themed)
	}
}

func TestSpawnYoloMode(t *testing.T) {
	mux := newFakeMux()
	m := NewManager(mux)
	id := sessionid.Identity{Tool: "claude", Kind: sessionid.KindPartner, UUID: liveUUID, Mode: sessionid.ModeYolo}
	if _, err := m.Spawn(id, "", nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(mux.spawned[0], "--dangerously-skip-permissions") {
		t.Errorf("yolo flag missing: %q", mux.spawned[0])
	}
}

func TestSpawnReusesExisting(t *testing.T) {
	id := sessionid.Identity{Tool: "claude", Kind: sessionid.KindPartner, UUID: liveUUID, Mode: sessionid.ModeDefault}
	mux := newFakeMux(id.String())
	m := NewManager(mux)
	name, err := m.Spawn(id, "/work", nil)
	if err != nil {
		t.Fatal(err)
	}
	if name != id.String() {
		t.Errorf("name = %q", name)
	}
	if len(mux.spawned) != 0 {
		t.Errorf("respawned an existing session: %v", mux.spawned)
	}
}

func TestSpawnUnknownTool(t *testing.T) {
	m := NewManager(newFakeMux())
	id := sessionid.Identity{Tool: "gemini", Kind: sessionid.KindPartner, UUID: liveUUID}
	if _, err := m.Spawn(id, "", nil); err == nil {
		t.Error("unknown tool accepted")
	}
}

func TestSpawnArchangelTheme(t *testing.T) {
	mux := newFakeMux()
	m := NewManager(mux)
	id := sessionid.Identity{Tool: "claude", Kind: sessionid.KindArchangel, Name: "gabriel", UUID: liveUUID, Mode: sessionid.ModeDefault}
	if _, err := m.Spawn(id, "", nil); err != nil {
		t.Fatal(err)
	}
	if len(mux.themed) != 1 || !strings.Contains(mux.themed[0], "archangel") {
		t.Errorf("themed = %v", mux.themed)
	}
}

func TestListFiltersForeignSessions(t *testing.T) {
	mux := newFakeMux(
		"claude-partner-"+liveUUID,
		"scratch",
		"codex-archangel-gabriel-"+liveUUID,
	)
	mux.attached["claude-partner-"+liveUUID] = true
	m := NewManager(mux)

	infos, err := m.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 2 {
		t.Fatalf("infos = %+v", infos)
	}
	if !infos[0].Attached || infos[1].Attached {
		t.Errorf("attached flags wrong: %+v", infos)
	}
	if infos[1].Identity.Name != "gabriel" {
		t.Errorf("identity = %+v", infos[1].Identity)
	}
}

func TestResolve(t *testing.T) {
	live := "claude-partner-" + liveUUID
	m := NewManager(newFakeMux(live, "scratch"))

	got, err := m.Resolve("aaaa1111")
	if err != nil || got != live {
		t.Errorf("got %q, %v", got, err)
	}

	if _, err := m.Resolve("nothing-here"); !errors.Is(err, ErrNoSession) {
		t.Errorf("err = %v, want ErrNoSession", err)
	}
}

func TestSendWakesDetachedFirst(t *testing.T) {
	mux := newFakeMux()
	m := NewManager(mux)
	if err := m.Send("claude-partner-x", "hello there"); err != nil {
		t.Fatal(err)
	}
	if len(mux.woken) != 1 || len(mux.sent) != 1 {
		t.Fatalf("woken=%v sent=%v", mux.woken, mux.sent)
	}
	if mux.sent[0] != "claude-partner-x|hello there" {
		t.Errorf("sent = %v", mux.sent)
	}
}

func TestKill(t *testing.T) {
	mux := newFakeMux()
	m := NewManager(mux)
	if err := m.Kill("claude-partner-x"); err != nil {
		t.Fatal(err)
	}
	if len(mux.killed) != 1 {
		t.Errorf("killed = %v", mux.killed)
	}
}
