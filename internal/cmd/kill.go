package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/groblegark/seance/internal/style"
)

var killAll bool

var killCmd = &cobra.Command{
	Use:     "kill [session]",
	GroupID: GroupSessions,
	Short:   "Terminate a session and its process tree",
	Long: `Terminate a session and its process tree.

Agent processes ignore the hangup a bare pane kill delivers, so the
whole tree is torn down explicitly.

Examples:
  seance kill gabriel
  seance kill --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runKill,
}

func init() {
	killCmd.Flags().BoolVar(&killAll, "all", false, "Kill every seance session")
	rootCmd.AddCommand(killCmd)
}

func runKill(cmd *cobra.Command, args []string) error {
	mgr, _, err := newManager()
	if err != nil {
		return err
	}

	if killAll {
		if len(args) > 0 {
			return fmt.Errorf("--all takes no session argument")
		}
		infos, err := mgr.List()
		if err != nil {
			return err
		}
		for _, info := range infos {
			if err := mgr.Kill(info.Name); err != nil {
				return err
			}
			fmt.Println(style.Muted.Render("killed " + info.Name))
		}
		return nil
	}

	if len(args) != 1 {
		return fmt.Errorf("a session argument or --all is required")
	}
	name, err := mgr.Resolve(args[0])
	if err != nil {
		return err
	}
	if err := mgr.Kill(name); err != nil {
		return err
	}
	fmt.Println(style.Muted.Render("killed " + name))
	return nil
}
