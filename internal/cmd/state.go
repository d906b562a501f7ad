package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/groblegark/seance/internal/style"
)

var stateCmd = &cobra.Command{
	Use:     "state <session>",
	GroupID: GroupTurns,
	Short:   "Show a session's detected state",
	Long: `Show a session's detected state: starting, ready, thinking,
confirming, rate_limited, update_prompt, or feedback_modal.

Examples:
  seance state gabriel
  seance state aaaa1111`,
	Args: cobra.ExactArgs(1),
	RunE: runState,
}

func init() {
	rootCmd.AddCommand(stateCmd)
}

func runState(cmd *cobra.Command, args []string) error {
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
	poller, _, err := pollerFor(t, cfg, name)
	if err != nil {
		return err
	}
	state := string(poller.State(name).State)
	fmt.Println(style.State(state).Render(state))
	return nil
}
