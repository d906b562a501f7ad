package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/groblegark/seance/internal/detect"
	"github.com/groblegark/seance/internal/poll"
	"github.com/groblegark/seance/internal/response"
	"github.com/groblegark/seance/internal/style"
	"github.com/groblegark/seance/internal/ui"
)

// Flags for the wait command.
var (
	waitTimeoutSec int
	waitStream     bool
	waitMarkdown   bool
)

var waitCmd = &cobra.Command{
	Use:     "wait <session>",
	GroupID: GroupTurns,
	Short:   "Wait for an in-flight turn to finish",
	Long: `Wait for an in-flight turn to finish and print the answer.

Pairs with "seance send --no-wait": the prompt went in earlier, this
picks up the result. Waiting on an idle session returns its answer as
soon as the screen settles.

Examples:
  seance wait gabriel
  seance wait aaaa1111 --stream
  seance wait aaaa1111 --timeout 600 --markdown`,
	Args: cobra.ExactArgs(1),
	RunE: runWait,
}

func init() {
	waitCmd.Flags().IntVar(&waitTimeoutSec, "timeout", 0, "Turn timeout in seconds (default from config)")
	waitCmd.Flags().BoolVar(&waitStream, "stream", false, "Stream the agent's log output live")
	waitCmd.Flags().BoolVarP(&waitMarkdown, "markdown", "m", false, "Render the answer as markdown")
	rootCmd.AddCommand(waitCmd)
}

func runWait(cmd *cobra.Command, args []string) error {
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

	timeout := cfg.Timeout()
	if waitTimeoutSec > 0 {
		timeout = time.Duration(waitTimeoutSec) * time.Second
	}

	poller, profile, err := pollerFor(t, cfg, name)
	if err != nil {
		return err
	}

	var out poll.Outcome
	if waitStream {
		reader, rerr := streamReader(name)
		if rerr != nil {
			out, err = poller.PollForResponse(name, timeout, debugHooks())
		} else {
			out, err = poller.StreamResponse(name, timeout, reader, os.Stdout, debugHooks())
		}
	} else {
		out, err = poller.PollForResponse(name, timeout, debugHooks())
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

	if waitStream {
		return nil
	}
	answer := response.ExtractLast(out.Screen, profile)
	if answer == "" {
		fmt.Println(style.Muted.Render("(no response text found on screen)"))
		return nil
	}
	if waitMarkdown {
		fmt.Print(ui.RenderMarkdown(answer))
		return nil
	}
	fmt.Println(answer)
	return nil
}
