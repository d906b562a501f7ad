// Package watcher runs archangels: named background rules that watch files
// and fire prompts into their own recurring session when something changes.
package watcher

import (
	"fmt"
	"os"
	"time"

	yaml "go.yaml.in/yaml/v2"
)

// Rule is one archangel definition from the rules file.
type Rule struct {
	// Name is the archangel name, embedded in the session name.
	Name string `yaml:"name"`

	// Tool selects the backend profile. Empty means the configured default.
	Tool string `yaml:"tool"`

	// Paths are the watched files or globs.
	Paths []string `yaml:"paths"`

	// Prompt is sent when the rule fires; the changed file list is
	// appended so the agent knows what to look at.
	Prompt string `yaml:"prompt"`

	// IntervalSec is the modification-check cadence.
	IntervalSec int `yaml:"interval_sec"`

	// EverySec optionally fires the prompt on a fixed period even without
	// changes. Zero disables periodic firing.
	EverySec int `yaml:"every_sec"`

	// WorkDir is where the session runs.
	WorkDir string `yaml:"workdir"`

	// Permission mode for the session.
	Yolo  bool     `yaml:"yolo"`
	Allow []string `yaml:"allow"`
}

const defaultIntervalSec = 30

// Interval returns the check cadence with the default applied.
func (r Rule) Interval() time.Duration {
	if r.IntervalSec <= 0 {
		return defaultIntervalSec * time.Second
	}
	return time.Duration(r.IntervalSec) * time.Second
}

// Every returns the periodic-fire period, zero when disabled.
func (r Rule) Every() time.Duration {
	if r.EverySec <= 0 {
		return 0
	}
	return time.Duration(r.EverySec) * time.Second
}

// rulesFile is the YAML document shape.
type rulesFile struct {
	Archangels []Rule `yaml:"archangels"`
}

// LoadRules parses the rules file and validates every rule. A rule without
// a name, prompt, or anything to trigger it is a configuration mistake
// worth failing loudly on at startup rather than silently never firing.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}
	var f rulesFile
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	seen := map[string]bool{}
	for i, r := range f.Archangels {
		if r.Name == "" {
			return nil, fmt.Errorf("%s: archangel %d has no name", path, i)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("%s: duplicate archangel %q", path, r.Name)
		}
		seen[r.Name] = true
		if r.Prompt == "" {
			return nil, fmt.Errorf("%s: archangel %q has no prompt", path, r.Name)
		}
		if len(r.Paths) == 0 && r.EverySec <= 0 {
			return nil, fmt.Errorf("%s: archangel %q watches nothing and has no period", path, r.Name)
		}
	}
	return f.Archangels, nil
}
