package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/groblegark/seance/internal/config"
	"github.com/groblegark/seance/internal/detect"
	"github.com/groblegark/seance/internal/gitctx"
	"github.com/groblegark/seance/internal/mail"
	"github.com/groblegark/seance/internal/response"
	"github.com/groblegark/seance/internal/session"
	"github.com/groblegark/seance/internal/sessionid"
	"github.com/groblegark/seance/internal/style"
	"github.com/groblegark/seance/internal/tmux"
	"github.com/groblegark/seance/internal/tui"
	"github.com/groblegark/seance/internal/watcher"
)

var watchRulesPath string

var watchCmd = &cobra.Command{
	Use:     "watch",
	GroupID: GroupWatch,
	Short:   "Live dashboard of every session",
	Long: `Live dashboard of every session and its detected state.

Refreshes every couple of seconds. Press q to quit, r to refresh now.

Examples:
  seance watch
  seance watch run --rules archangels.yaml`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var watchRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run archangel rules in the foreground",
	Long: `Run archangel rules in the foreground.

Each rule watches its globs and fires its prompt into a dedicated
archangel session when something changes (or on its period). Outcomes
land in the mailbox; read them with "seance mail list". Stops on
Ctrl-C.

Examples:
  seance watch run --rules archangels.yaml`,
	Args: cobra.NoArgs,
	RunE: runWatchRun,
}

func init() {
	watchRunCmd.Flags().StringVar(&watchRulesPath, "rules", "", "Path to the archangel rules file (default from config)")
	watchCmd.AddCommand(watchRunCmd)
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mgr, t, err := newManager()
	if err != nil {
		return err
	}

	list := func() ([]tui.Row, error) {
		infos, err := mgr.List()
		if err != nil {
			return nil, err
		}
		rows := make([]tui.Row, 0, len(infos))
		for _, info := range infos {
			state := string(detect.StateNoSession)
			if poller, _, err := pollerFor(t, cfg, info.Name); err == nil {
				state = string(poller.State(info.Name).State)
			}
			kind := string(info.Identity.Kind)
			if info.Identity.Kind == sessionid.KindArchangel {
				kind = "archangel:" + info.Identity.Name
			}
			rows = append(rows, tui.Row{
				Name:     info.Name,
				Tool:     info.Identity.Tool,
				Kind:     kind,
				State:    state,
				Attached: info.Attached,
			})
		}
		return rows, nil
	}

	_, err = tea.NewProgram(tui.New(list, tui.DefaultRefresh)).Run()
	return err
}

func runWatchRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rulesPath := watchRulesPath
	if rulesPath == "" {
		rulesPath = cfg.Watch.Rules
	}
	if rulesPath == "" {
		return fmt.Errorf("no rules file: pass --rules or set watch.rules in the config")
	}
	rules, err := watcher.LoadRules(rulesPath)
	if err != nil {
		return err
	}

	mgr, t, err := newManager()
	if err != nil {
		return err
	}
	box, err := openMailbox(cfg)
	if err != nil {
		return err
	}

	runner := watcher.NewRunner(rules, fireRule(cfg, mgr, t, box))
	runner.OnError = func(rule watcher.Rule, err error) {
		fmt.Fprintln(os.Stderr, style.Error.Render(fmt.Sprintf("archangel %s: %v", rule.Name, err)))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println(style.Muted.Render(fmt.Sprintf("watching %d rule(s), Ctrl-C to stop", len(rules))))
	runner.Run(ctx)
	return nil
}

// fireRule builds the watcher's turn delivery: find or spawn the rule's
// archangel session, send the prompt with git and change context attached,
// wait for the turn, and drop the outcome in the mailbox.
func fireRule(cfg *config.Config, mgr *session.Manager, t *tmux.Tmux, box *mail.Box) watcher.FireFunc {
	return func(rule watcher.Rule, changed []string) error {
		tool := rule.Tool
		if tool == "" {
			tool = cfg.DefaultTool
		}
		workDir := rule.WorkDir
		if workDir == "" {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			workDir = wd
		}

		name, err := archangelSession(mgr, rule, tool, workDir)
		if err != nil {
			return err
		}

		prompt := archangelPrompt(rule, workDir, changed)
		timeout := cfg.Timeout()

		err = withSessionLock(name, timeout, func() error {
			if err := mgr.Send(name, prompt); err != nil {
				return err
			}
			poller, profile, err := pollerFor(t, cfg, name)
			if err != nil {
				return err
			}
			out, err := poller.PollForResponse(name, timeout, nil)
			if err != nil {
				return err
			}
			switch out.State {
			case detect.StateConfirming:
				return box.Append(mail.Message{
					Session: name,
					Kind:    mail.KindConfirm,
					Text:    fmt.Sprintf("archangel %s is waiting on a confirmation", rule.Name),
				})
			case detect.StateRateLimited:
				return box.Append(mail.Message{
					Session: name,
					Kind:    mail.KindRateLimit,
					Text:    fmt.Sprintf("archangel %s hit a rate limit", rule.Name),
				})
			}
			return box.Append(mail.Message{
				Session: name,
				Kind:    mail.KindResponse,
				Text:    summarize(response.ExtractLast(out.Screen, profile)),
			})
		})
		if err != nil {
			// Best effort; the fire error is the one worth surfacing.
			_ = box.Append(mail.Message{
				Session: name,
				Kind:    mail.KindError,
				Text:    fmt.Sprintf("archangel %s: %v", rule.Name, err),
			})
			return err
		}
		return nil
	}
}

// archangelSession returns the rule's live session, spawning one when the
// archangel has no session yet. An existing session is matched by its
// embedded archangel name, whatever its UUID.
func archangelSession(mgr *session.Manager, rule watcher.Rule, tool, workDir string) (string, error) {
	infos, err := mgr.List()
	if err != nil {
		return "", err
	}
	for _, info := range infos {
		if info.Identity.Kind == sessionid.KindArchangel && info.Identity.Name == rule.Name {
			return info.Name, nil
		}
	}

	id := sessionid.NewArchangel(tool, rule.Name)
	if rule.Yolo {
		id = id.WithYolo()
	} else if len(rule.Allow) > 0 {
		id = id.WithAllowList(rule.Allow)
	}
	return mgr.Spawn(id, workDir, rule.Allow)
}

// archangelPrompt renders the prompt the agent actually receives: the
// rule's text plus whatever context the watcher knows.
func archangelPrompt(rule watcher.Rule, workDir string, changed []string) string {
	var b strings.Builder
	b.WriteString(rule.Prompt)
	if gc, ok := gitctx.Discover(workDir); ok {
		b.WriteString("\nContext: ")
		b.WriteString(gc.Describe())
		b.WriteString(".")
	}
	if len(changed) > 0 {
		b.WriteString("\nChanged files: ")
		b.WriteString(strings.Join(changed, ", "))
	}
	return b.String()
}

// summarize trims a response for a one-line mailbox entry.
func summarize(text string) string {
	if text == "" {
		return "turn finished (no response text found)"
	}
	line := text
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	const max = 200
	if len(line) > max {
		line = line[:max] + "..."
	}
	return line
}
