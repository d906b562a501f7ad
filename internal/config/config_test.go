package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultTool != "claude" {
		t.Errorf("default tool = %q", cfg.DefaultTool)
	}
	if cfg.Timeout() != 300*time.Second {
		t.Errorf("timeout = %s", cfg.Timeout())
	}
	if cfg.MailRetention() != 72*time.Hour {
		t.Errorf("retention = %s", cfg.MailRetention())
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	doc := `
default_tool = "codex"
default_timeout_sec = 60

[timing]
interval_ms = 500
settle_ms = 2000

[allow_lists]
review = ["Read", "Grep", "Glob"]

[mail]
retain_hours = 24
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultTool != "codex" {
		t.Errorf("tool = %q", cfg.DefaultTool)
	}
	timing := cfg.PollTiming()
	if timing.Interval != 500*time.Millisecond || timing.Settle != 2*time.Second {
		t.Errorf("timing = %+v", timing)
	}
	if timing.Grace != 0 {
		t.Errorf("unset grace = %s, want zero (engine default)", timing.Grace)
	}
	if got := cfg.AllowLists["review"]; len(got) != 3 || got[0] != "Read" {
		t.Errorf("allow list = %v", got)
	}
	if cfg.MailRetention() != 24*time.Hour {
		t.Errorf("retention = %s", cfg.MailRetention())
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("defualt_tool = \"claude\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("typo'd key accepted silently")
	}
}

func TestLoadRejectsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("default_tool = \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed file accepted")
	}
}
