package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/groblegark/seance/internal/response"
	"github.com/groblegark/seance/internal/style"
	"github.com/groblegark/seance/internal/ui"
)

// Flags for the peek command.
var (
	peekRaw      bool
	peekMarkdown bool
)

var peekCmd = &cobra.Command{
	Use:     "peek <session>",
	GroupID: GroupTurns,
	Short:   "Show a session's last response without sending anything",
	Long: `Show a session's last response without sending anything.

The text comes from the visible screen; --raw dumps the whole capture
instead of the extracted response.

Examples:
  seance peek gabriel
  seance peek aaaa1111 --markdown
  seance peek aaaa1111 --raw`,
	Args: cobra.ExactArgs(1),
	RunE: runPeek,
}

func init() {
	peekCmd.Flags().BoolVar(&peekRaw, "raw", false, "Print the full screen capture")
	peekCmd.Flags().BoolVarP(&peekMarkdown, "markdown", "m", false, "Render as markdown")
	rootCmd.AddCommand(peekCmd)
}

func runPeek(cmd *cobra.Command, args []string) error {
	mgr, t, err := newManager()
	if err != nil {
		return err
	}
	name, err := mgr.Resolve(args[0])
	if err != nil {
		return err
	}

	screen, err := t.CaptureVisible(name)
	if err != nil {
		return err
	}
	if peekRaw {
		fmt.Println(screen)
		return nil
	}

	profile, err := profileFor(name)
	if err != nil {
		return err
	}
	answer := response.ExtractLast(screen, profile)
	if answer == "" {
		fmt.Println(style.Muted.Render("(no response text found on screen)"))
		return nil
	}
	if peekMarkdown {
		fmt.Print(ui.RenderMarkdown(answer))
		return nil
	}
	fmt.Println(answer)
	return nil
}
