// Package gitctx discovers lightweight git context for the directory a
// session runs in. Archangel prompts embed it so a background agent knows
// which repo and branch it is commenting on; nothing here mutates the repo.
package gitctx

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Context describes the repository enclosing a directory.
type Context struct {
	Root   string
	Branch string
	Dirty  bool
}

// Discover inspects dir. ok is false when dir is not inside a work tree or
// git is unavailable; that is a normal condition, not an error.
func Discover(dir string) (Context, bool) {
	root, err := git(dir, "rev-parse", "--show-toplevel")
	if err != nil || root == "" {
		return Context{}, false
	}
	ctx := Context{Root: root}

	if branch, err := git(dir, "rev-parse", "--abbrev-ref", "HEAD"); err == nil {
		ctx.Branch = branch
	}
	if status, err := git(dir, "status", "--porcelain"); err == nil {
		ctx.Dirty = status != ""
	}
	return ctx, true
}

// Describe renders the context as a single prompt-friendly clause.
func (c Context) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "repository %s", filepath.Base(c.Root))
	if c.Branch != "" {
		fmt.Fprintf(&b, " on branch %s", c.Branch)
	}
	if c.Dirty {
		b.WriteString(" with uncommitted changes")
	}
	return b.String()
}

func git(dir string, args ...string) (string, error) {
	out, err := exec.Command("git", append([]string{"-C", dir}, args...)...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
