package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// rules file
// ---------------------------------------------------------------------------

func writeRules(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archangels.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadRules(t *testing.T) {
	path := writeRules(t, `
archangels:
  - name: gabriel
    tool: claude
    paths: ["src/**/*.go"]
    prompt: "Review the latest changes."
    interval_sec: 10
  - name: uriel
    every_sec: 3600
    prompt: "Summarize open work."
    yolo: true
`)
	rules, err := LoadRules(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(rules) != 2 {
		t.Fatalf("rules = %+v", rules)
	}
	if rules[0].Name != "gabriel" || rules[0].Interval() != 10*time.Second {
		t.Errorf("rule 0 = %+v", rules[0])
	}
	if rules[1].Every() != time.Hour || !rules[1].Yolo {
		t.Errorf("rule 1 = %+v", rules[1])
	}
	// Unset interval takes the default.
	if rules[1].Interval() != defaultIntervalSec*time.Second {
		t.Errorf("default interval = %s", rules[1].Interval())
	}
}

func TestLoadRulesValidation(t *testing.T) {
	cases := map[string]string{
		"missing name": `
archangels:
  - prompt: "x"
    every_sec: 60
`,
		"missing prompt": `
archangels:
  - name: gabriel
    every_sec: 60
`,
		"nothing to trigger": `
archangels:
  - name: gabriel
    prompt: "x"
`,
		"duplicate name": `
archangels:
  - name: gabriel
    prompt: "x"
    every_sec: 60
  - name: gabriel
    prompt: "y"
    every_sec: 60
`,
		"unknown key": `
archangels:
  - name: gabriel
    prompt: "x"
    every_sec: 60
    promt: "typo"
`,
	}
	for label, doc := range cases {
		if _, err := LoadRules(writeRules(t, doc)); err == nil {
			t.Errorf("%s: accepted", label)
		}
	}
}

// ---------------------------------------------------------------------------
// snapshot / diff
// ---------------------------------------------------------------------------

func TestDiff(t *testing.T) {
	t0 := time.Now()
	t1 := t0.Add(time.Second)
	old := map[string]time.Time{"a": t0, "b": t0, "c": t0}
	cur := map[string]time.Time{"a": t0, "b": t1, "d": t0}

	got := diff(old, cur)
	want := []string{"b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("diff = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("diff = %v, want %v", got, want)
		}
	}
}

func TestSnapshotGlobs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.go", "b.go", "c.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	snap := snapshot([]string{filepath.Join(dir, "*.go")})
	if len(snap) != 2 {
		t.Errorf("snapshot = %v", snap)
	}
}

// ---------------------------------------------------------------------------
// runner
// ---------------------------------------------------------------------------

func TestRunnerFiresOnChange(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "watched.txt")
	if err := os.WriteFile(watched, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	var (
		mu    sync.Mutex
		fires [][]string
	)
	fire := func(rule Rule, changed []string) error {
		mu.Lock()
		defer mu.Unlock()
		fires = append(fires, changed)
		return nil
	}

	rule := Rule{Name: "gabriel", Prompt: "look", Paths: []string{watched}, IntervalSec: 1}
	r := NewRunner([]Rule{rule}, fire)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { r.Run(ctx); close(done) }()

	// Touch the file with a future mtime so the next tick sees a change.
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(watched, future, future); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		mu.Lock()
		n := len(fires)
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("runner never fired on a change")
		case <-time.After(50 * time.Millisecond):
		}
	}
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(fires[0]) != 1 || fires[0][0] != watched {
		t.Errorf("fired with %v", fires[0])
	}
}

func TestRunnerStopsOnCancel(t *testing.T) {
	rule := Rule{Name: "uriel", Prompt: "x", EverySec: 3600, IntervalSec: 1}
	r := NewRunner([]Rule{rule}, func(Rule, []string) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { r.Run(ctx); close(done) }()
	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("runner did not stop on cancel")
	}
}

func TestRunnerReportsFireErrors(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "w.txt")
	if err := os.WriteFile(watched, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	var (
		mu     sync.Mutex
		errors int
	)
	rule := Rule{Name: "gabriel", Prompt: "x", Paths: []string{watched}, IntervalSec: 1}
	r := NewRunner([]Rule{rule}, func(Rule, []string) error { return os.ErrPermission })
	r.OnError = func(Rule, error) {
		mu.Lock()
		errors++
		mu.Unlock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { r.Run(ctx); close(done) }()

	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(watched, future, future); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		mu.Lock()
		n := errors
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("OnError never called")
		case <-time.After(50 * time.Millisecond):
		}
	}
	cancel()
	<-done
}
