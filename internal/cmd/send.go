package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/groblegark/seance/internal/detect"
	"github.com/groblegark/seance/internal/logpath"
	"github.com/groblegark/seance/internal/poll"
	"github.com/groblegark/seance/internal/response"
	"github.com/groblegark/seance/internal/sessionid"
	"github.com/groblegark/seance/internal/style"
	"github.com/groblegark/seance/internal/term"
	"github.com/groblegark/seance/internal/ui"
)

// Flags for the send command.
var (
	sendTimeoutSec int
	sendStream     bool
	sendApprove    bool
	sendNoWait     bool
	sendMarkdown   bool
)

var sendCmd = &cobra.Command{
	Use:     "send <session> <prompt>",
	GroupID: GroupTurns,
	Short:   "Send a prompt and wait for the answer",
	Long: `Send a prompt to a session and wait for the turn to finish.

The session may be a partial identifier: an archangel name, a name
prefix, or a UUID prefix, as long as it is unambiguous.

The turn ends at READY (answer printed), CONFIRMING (a permission
dialog is pending), or RATE_LIMITED. With --approve, confirmations are
auto-approved until the turn truly finishes.

Examples:
  seance send aaaa1111 "what does internal/poll do?"
  seance send gabriel "summarize the diff" --stream
  seance send aaaa1111 "run the tests" --approve --timeout 600`,
	Args: cobra.ExactArgs(2),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().IntVar(&sendTimeoutSec, "timeout", 0, "Turn timeout in seconds (default from config)")
	sendCmd.Flags().BoolVar(&sendStream, "stream", false, "Stream the agent's log output live")
	sendCmd.Flags().BoolVar(&sendApprove, "approve", false, "Auto-approve confirmation prompts")
	sendCmd.Flags().BoolVar(&sendNoWait, "no-wait", false, "Send and return without waiting")
	sendCmd.Flags().BoolVarP(&sendMarkdown, "markdown", "m", false, "Render the answer as markdown")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mgr, t, err := newManager()
	if err != nil {
		return err
	}
	name, err := mgr.Resolve(args[0])
	if err != nil {
		return err
	}
	prompt := args[1]

	timeout := cfg.Timeout()
	if sendTimeoutSec > 0 {
		timeout = time.Duration(sendTimeoutSec) * time.Second
	}

	return withSessionLock(name, timeout, func() error {
		if err := mgr.Send(name, prompt); err != nil {
			return err
		}
		if sendNoWait {
			return nil
		}

		poller, profile, err := pollerFor(t, cfg, name)
		if err != nil {
			return err
		}

		wait := func(session string, budget time.Duration) (poll.Outcome, error) {
			if !sendStream {
				return poller.PollForResponse(session, budget, debugHooks())
			}
			reader, err := streamReader(name)
			if err != nil {
				// No discoverable log; fall back to the silent wait.
				return poller.PollForResponse(session, budget, debugHooks())
			}
			return poller.StreamResponse(session, budget, reader, os.Stdout, debugHooks())
		}

		var out poll.Outcome
		if sendApprove {
			out, err = poller.AutoApprove(name, timeout, wait)
		} else {
			out, err = wait(name, timeout)
		}
		if err != nil {
			return err
		}

		switch out.State {
		case detect.StateConfirming:
			fmt.Println(style.Warning.Render("confirmation pending; run `seance approve " + name + "`"))
			return nil
		case detect.StateRateLimited:
			fmt.Println(style.Error.Render("rate limited"))
			return nil
		}

		if sendStream {
			return nil // the answer already streamed
		}
		answer := response.ExtractLast(out.Screen, profile)
		if answer == "" {
			fmt.Println(style.Muted.Render("(no response text found on screen)"))
			return nil
		}
		if sendMarkdown {
			fmt.Print(ui.RenderMarkdown(answer))
			return nil
		}
		fmt.Println(answer)
		return nil
	})
}

// streamReader builds a log-backed reader for the session, skipping the
// backlog so only this turn's records stream.
func streamReader(name string) (term.Reader, error) {
	id, err := sessionid.Decode(name)
	if err != nil {
		return nil, err
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	resolver, err := logpath.ForTool(id.Tool, wd)
	if err != nil {
		return nil, err
	}
	if _, ok := resolver(); !ok {
		return nil, fmt.Errorf("no structured log found for %s", name)
	}
	profile, err := profileFor(name)
	if err != nil {
		return nil, err
	}
	return term.NewLogReader(resolver, profile.ParseLogLine, true), nil
}
