package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/groblegark/seance/internal/style"
)

var sessionsJSON bool

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	GroupID: GroupSessions,
	Short:   "List live agent sessions with their detected state",
	Long: `List live agent sessions with their detected state.

Each session's state is detected fresh from its screen. Foreign tmux
sessions are not shown.

Examples:
  seance sessions
  seance sessions --json`,
	Args: cobra.NoArgs,
	RunE: runSessions,
}

func init() {
	sessionsCmd.Flags().BoolVar(&sessionsJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(sessionsCmd)
}

// sessionRow is the JSON shape for one session.
type sessionRow struct {
	Name     string `json:"name"`
	Tool     string `json:"tool"`
	Kind     string `json:"kind"`
	Mode     string `json:"mode"`
	State    string `json:"state"`
	Attached bool   `json:"attached"`
}

func runSessions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mgr, t, err := newManager()
	if err != nil {
		return err
	}
	infos, err := mgr.List()
	if err != nil {
		return err
	}

	rows := make([]sessionRow, 0, len(infos))
	for _, info := range infos {
		state := "no_session"
		if poller, _, err := pollerFor(t, cfg, info.Name); err == nil {
			state = string(poller.State(info.Name).State)
		}
		kind := string(info.Identity.Kind)
		if info.Identity.Kind == "archangel" {
			kind = "archangel:" + info.Identity.Name
		}
		rows = append(rows, sessionRow{
			Name:     info.Name,
			Tool:     info.Identity.Tool,
			Kind:     kind,
			Mode:     string(info.Identity.Mode),
			State:    state,
			Attached: info.Attached,
		})
	}

	if sessionsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Println(style.Muted.Render("no sessions"))
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tTOOL\tKIND\tMODE\tSTATE\tATTACHED")
	for _, r := range rows {
		attached := ""
		if r.Attached {
			attached = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Name, r.Tool, r.Kind, r.Mode, style.State(r.State).Render(r.State), attached)
	}
	return w.Flush()
}
