package cmd

import (
	"github.com/spf13/cobra"
)

var attachCmd = &cobra.Command{
	Use:     "attach <session>",
	GroupID: GroupSessions,
	Short:   "Attach the terminal to a session",
	Long: `Attach the terminal to a session's tmux pane.

Detach with the usual tmux prefix (C-b d); the agent keeps running.

Examples:
  seance attach gabriel`,
	Args: cobra.ExactArgs(1),
	RunE: runAttach,
}

func init() {
	rootCmd.AddCommand(attachCmd)
}

func runAttach(cmd *cobra.Command, args []string) error {
	mgr, t, err := newManager()
	if err != nil {
		return err
	}
	name, err := mgr.Resolve(args[0])
	if err != nil {
		return err
	}
	return t.AttachSession(name)
}
