package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/groblegark/seance/internal/sessionid"
	"github.com/groblegark/seance/internal/style"
)

// Flags for the spawn command.
var (
	spawnTool      string
	spawnWorkDir   string
	spawnYolo      bool
	spawnAllow     []string
	spawnAllowList string
	spawnAttach    bool
)

var spawnCmd = &cobra.Command{
	Use:     "spawn",
	GroupID: GroupSessions,
	Short:   "Start a new agent session",
	Long: `Start a new agent session in a detached tmux pane.

Permission mode is part of the session's identity:
  default        only the backend's read-only tools are allowed
  --allow ...    a custom allow-list (hashed into the session name)
  --yolo         all confirmations bypassed at launch

Examples:
  seance spawn
  seance spawn --tool codex --workdir ~/src/proj
  seance spawn --allow Read --allow Bash
  seance spawn --allow-list review
  seance spawn --yolo --attach`,
	Args: cobra.NoArgs,
	RunE: runSpawn,
}

func init() {
	spawnCmd.Flags().StringVarP(&spawnTool, "tool", "t", "", "Backend tool (default from config)")
	spawnCmd.Flags().StringVarP(&spawnWorkDir, "workdir", "d", "", "Working directory for the session")
	spawnCmd.Flags().BoolVar(&spawnYolo, "yolo", false, "Bypass all confirmation prompts")
	spawnCmd.Flags().StringArrayVar(&spawnAllow, "allow", nil, "Tool to auto-approve (repeatable)")
	spawnCmd.Flags().StringVar(&spawnAllowList, "allow-list", "", "Named allow-list from config")
	spawnCmd.Flags().BoolVarP(&spawnAttach, "attach", "a", false, "Attach to the session after spawning")
	rootCmd.AddCommand(spawnCmd)
}

func runSpawn(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mgr, t, err := newManager()
	if err != nil {
		return err
	}

	tool := spawnTool
	if tool == "" {
		tool = cfg.DefaultTool
	}

	allow := spawnAllow
	if spawnAllowList != "" {
		if len(allow) > 0 {
			return fmt.Errorf("--allow and --allow-list are mutually exclusive")
		}
		named, ok := cfg.AllowLists[spawnAllowList]
		if !ok {
			return fmt.Errorf("no allow-list %q in config", spawnAllowList)
		}
		allow = named
	}
	if spawnYolo && len(allow) > 0 {
		return fmt.Errorf("--yolo and --allow are mutually exclusive")
	}

	workDir := spawnWorkDir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return err
		}
	}

	id := sessionid.NewPartner(tool)
	switch {
	case spawnYolo:
		id = id.WithYolo()
	case len(allow) > 0:
		id = id.WithAllowList(allow)
	}

	name, err := mgr.Spawn(id, workDir, allow)
	if err != nil {
		return err
	}
	fmt.Println(style.Session.Render(name))

	if spawnAttach {
		return t.AttachSession(name)
	}
	return nil
}
