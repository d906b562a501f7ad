package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:     "resolve <partial>",
	GroupID: GroupSessions,
	Short:   "Resolve a partial identifier to a full session name",
	Long: `Resolve a partial identifier to a full session name.

Tried in order: exact name, unique archangel name, unique name prefix,
unique UUID prefix. An ambiguous identifier lists every candidate.

Examples:
  seance resolve gabriel
  seance resolve aaaa1111`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	mgr, _, err := newManager()
	if err != nil {
		return err
	}
	name, err := mgr.Resolve(args[0])
	if err != nil {
		return err
	}
	fmt.Println(name)
	return nil
}
