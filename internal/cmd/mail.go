package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/groblegark/seance/internal/config"
	"github.com/groblegark/seance/internal/mail"
	"github.com/groblegark/seance/internal/style"
	"github.com/groblegark/seance/internal/util"
)

var mailAll bool

var mailCmd = &cobra.Command{
	Use:     "mail",
	GroupID: GroupWatch,
	Short:   "Read notifications left by background watchers",
	RunE:    requireSubcommand,
}

var mailListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show unread notifications and mark them read",
	Long: `Show unread notifications and mark them read.

Watchers append a message when a background turn finishes, stalls on a
confirmation, or hits a rate limit. Reading advances a cursor so each
message shows once; --all ignores the cursor.

Examples:
  seance mail list
  seance mail list --all`,
	Args: cobra.NoArgs,
	RunE: runMailList,
}

var mailGCCmd = &cobra.Command{
	Use:   "gc",
	Short: "Drop notifications older than the retention window",
	Args:  cobra.NoArgs,
	RunE:  runMailGC,
}

func init() {
	mailListCmd.Flags().BoolVar(&mailAll, "all", false, "Show every message, read or not")
	mailCmd.AddCommand(mailListCmd)
	mailCmd.AddCommand(mailGCCmd)
	rootCmd.AddCommand(mailCmd)
}

func openMailbox(cfg *config.Config) (*mail.Box, error) {
	path := cfg.Mail.Path
	if path == "" {
		var err error
		path, err = mail.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return mail.Open(path)
}

// cursorPath is where the read cursor lives, next to the config.
func cursorPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".seance", "mail.cursor"), nil
}

func readCursor(path string) int64 {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func runMailList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	box, err := openMailbox(cfg)
	if err != nil {
		return err
	}

	cpath, err := cursorPath()
	if err != nil {
		return err
	}
	offset := int64(0)
	if !mailAll {
		offset = readCursor(cpath)
	}

	msgs, next, err := box.ReadSince(offset)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		fmt.Println(style.Muted.Render("no mail"))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, m := range msgs {
		stamp := m.Time.Format("Jan 2 15:04")
		kind := m.Kind
		switch m.Kind {
		case mail.KindConfirm:
			kind = style.Warning.Render(kind)
		case mail.KindRateLimit, mail.KindError:
			kind = style.Error.Render(kind)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", stamp, style.Session.Render(m.Session), kind, m.Text)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !mailAll {
		if err := util.AtomicWriteFile(cpath, []byte(strconv.FormatInt(next, 10)), 0o644); err != nil {
			return fmt.Errorf("advancing mail cursor: %w", err)
		}
	}
	return nil
}

func runMailGC(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	box, err := openMailbox(cfg)
	if err != nil {
		return err
	}
	removed, err := box.GC(cfg.MailRetention())
	if err != nil {
		return err
	}
	fmt.Printf("removed %d message(s)\n", removed)
	return nil
}
