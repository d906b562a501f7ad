// Package logpath finds the structured JSONL log an agent is writing, so
// the log reader can tail it. Discovery is heuristic: both backends key
// their log trees by things we don't control (munged working directory,
// wall-clock date), and both rotate to a new file on conversation reset.
// Resolvers therefore re-run on every read instead of caching a path.
package logpath

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/groblegark/seance/internal/term"
)

// swapped in tests
var userHomeDir = os.UserHomeDir

// Claude resolves the newest session log for a working directory. Claude
// Code keeps one directory per project under ~/.claude/projects, named by
// munging the absolute working directory path.
func Claude(workDir string) term.PathResolver {
	return func() (string, bool) {
		home, err := userHomeDir()
		if err != nil {
			return "", false
		}
		dir := filepath.Join(home, ".claude", "projects", mungePath(workDir))
		return newestJSONL(dir, "")
	}
}

// Codex resolves the newest rollout log. Codex nests logs by date under
// ~/.codex/sessions, so the walk is bounded to the few most recent day
// directories rather than the whole tree.
func Codex() term.PathResolver {
	return func() (string, bool) {
		home, err := userHomeDir()
		if err != nil {
			return "", false
		}
		root := filepath.Join(home, ".codex", "sessions")
		return newestJSONLRecursive(root, "rollout-")
	}
}

// ForTool returns the resolver for a backend tool name.
func ForTool(tool, workDir string) (term.PathResolver, error) {
	switch tool {
	case "claude":
		return Claude(workDir), nil
	case "codex":
		return Codex(), nil
	default:
		return nil, fmt.Errorf("no log discovery for tool %q", tool)
	}
}

// mungePath reproduces Claude Code's project directory naming: every
// character outside [A-Za-z0-9] becomes a dash, so "/home/u/my.proj" maps
// to "-home-u-my-proj".
func mungePath(p string) string {
	var b strings.Builder
	b.Grow(len(p))
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

// newestJSONL picks the most recently modified *.jsonl directly in dir,
// optionally requiring a filename prefix.
func newestJSONL(dir, prefix string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	var (
		best     string
		bestTime time.Time
	)
	for _, e := range entries {
		if e.IsDir() || !isCandidate(e.Name(), prefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestTime) {
			best = filepath.Join(dir, e.Name())
			bestTime = info.ModTime()
		}
	}
	return best, best != ""
}

// newestJSONLRecursive walks a whole tree for the most recent match.
func newestJSONLRecursive(root, prefix string) (string, bool) {
	var (
		best     string
		bestTime time.Time
	)
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isCandidate(d.Name(), prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if best == "" || info.ModTime().After(bestTime) {
			best = path
			bestTime = info.ModTime()
		}
		return nil
	})
	return best, best != ""
}

func isCandidate(name, prefix string) bool {
	return strings.HasSuffix(name, ".jsonl") && (prefix == "" || strings.HasPrefix(name, prefix))
}
