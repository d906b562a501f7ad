package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/groblegark/seance/internal/detect"
	"github.com/groblegark/seance/internal/poll"
	"github.com/groblegark/seance/internal/style"
)

// Flags for the approve command.
var (
	approveAuto       bool
	approveReject     bool
	approveTimeoutSec int
)

var approveCmd = &cobra.Command{
	Use:     "approve <session>",
	GroupID: GroupTurns,
	Short:   "Resolve a pending confirmation dialog",
	Long: `Resolve a pending confirmation dialog.

Plain approve answers the one dialog currently on screen. With --auto,
keeps approving until the turn finishes. With --reject, dismisses the
dialog instead.

Examples:
  seance approve gabriel
  seance approve aaaa1111 --auto
  seance approve aaaa1111 --reject`,
	Args: cobra.ExactArgs(1),
	RunE: runApprove,
}

func init() {
	approveCmd.Flags().BoolVar(&approveAuto, "auto", false, "Keep approving until the turn finishes")
	approveCmd.Flags().BoolVar(&approveReject, "reject", false, "Reject instead of approving")
	approveCmd.Flags().IntVar(&approveTimeoutSec, "timeout", 0, "Timeout in seconds for --auto (default from config)")
	rootCmd.AddCommand(approveCmd)
}

func runApprove(cmd *cobra.Command, args []string) error {
	if approveAuto && approveReject {
		return fmt.Errorf("--auto and --reject are mutually exclusive")
	}
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
	poller, profile, err := pollerFor(t, cfg, name)
	if err != nil {
		return err
	}

	out := poller.State(name)
	if out.State != detect.StateConfirming {
		return fmt.Errorf("session %s is %s, not awaiting confirmation", name, out.State)
	}

	if approveReject {
		if err := t.SendKeysRaw(name, profile.RejectKeys); err != nil {
			return err
		}
		fmt.Println(style.Muted.Render("rejected"))
		return nil
	}

	if !approveAuto {
		if err := t.SendKeysRaw(name, profile.ApproveKeys); err != nil {
			return err
		}
		fmt.Println(style.Muted.Render("approved"))
		return nil
	}

	timeout := cfg.Timeout()
	if approveTimeoutSec > 0 {
		timeout = time.Duration(approveTimeoutSec) * time.Second
	}
	return withSessionLock(name, timeout, func() error {
		wait := func(session string, budget time.Duration) (poll.Outcome, error) {
			return poller.PollForResponse(session, budget, nil)
		}
		final, err := poller.AutoApprove(name, timeout, wait)
		if err != nil {
			return err
		}
		fmt.Println(style.State(string(final.State)).Render(string(final.State)))
		return nil
	})
}
