package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FireFunc delivers one watcher turn: spawn-or-reuse the rule's session,
// send the prompt, wait it out. Supplied by the CLI layer so the runner
// stays free of multiplexer wiring.
type FireFunc func(rule Rule, changed []string) error

// Runner drives a set of rules, one goroutine each. Rules share nothing:
// each has its own session, its own snapshot, its own timer.
type Runner struct {
	rules []Rule
	fire  FireFunc

	// OnError observes a failed fire; the rule keeps running. Nil is fine.
	OnError func(rule Rule, err error)
}

// NewRunner creates a Runner.
func NewRunner(rules []Rule, fire FireFunc) *Runner {
	return &Runner{rules: rules, fire: fire}
}

// Run watches until ctx is canceled.
func (r *Runner) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, rule := range r.rules {
		wg.Add(1)
		go func(rule Rule) {
			defer wg.Done()
			r.runRule(ctx, rule)
		}(rule)
	}
	wg.Wait()
}

func (r *Runner) runRule(ctx context.Context, rule Rule) {
	last := snapshot(rule.Paths)
	lastFire := time.Now()

	ticker := time.NewTicker(rule.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		cur := snapshot(rule.Paths)
		changed := diff(last, cur)
		last = cur

		periodic := rule.Every() > 0 && time.Since(lastFire) >= rule.Every()
		if len(changed) == 0 && !periodic {
			continue
		}
		if err := r.fire(rule, changed); err != nil {
			if r.OnError != nil {
				r.OnError(rule, err)
			}
			continue
		}
		lastFire = time.Now()
	}
}

// snapshot maps every file matching the rule's globs to its mtime.
func snapshot(patterns []string) map[string]time.Time {
	out := map[string]time.Time{}
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		for _, path := range matches {
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
			out[path] = info.ModTime()
		}
	}
	return out
}

// diff returns the sorted paths that appeared, disappeared, or changed
// mtime between two snapshots.
func diff(old, cur map[string]time.Time) []string {
	var changed []string
	for path, mtime := range cur {
		if prev, ok := old[path]; !ok || !prev.Equal(mtime) {
			changed = append(changed, path)
		}
	}
	for path := range old {
		if _, ok := cur[path]; !ok {
			changed = append(changed, path)
		}
	}
	sort.Strings(changed)
	return changed
}
