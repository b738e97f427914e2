package cli

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/marksafe/internal/history"
	"github.com/mrz1836/marksafe/internal/output"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List and manage past backups",
	Long:  `The history keeps the most recent backups, newest first, up to keepBackupCount.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List past backups",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one backup",
	Long: `Show one backup. With --data the stored content is printed as is, which only
works for backups taken in extension storage mode.

Example:
  marksafe history show 1704186000000
  marksafe history show 1704186000000 --data > bookmarks.json`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryShow,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove one backup from history",
	Long:  `Remove one backup from history. Files already written to disk are left alone.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every backup from history",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var historyVerifyCmd = &cobra.Command{
	Use:   "verify <id>",
	Short: "Check a backup against its recorded checksum",
	Long: `Check a backup against the SHA-256 checksum recorded when it was taken.
Content kept in history is checked directly; otherwise the file at its recorded
location is read, and decrypted first when it was encrypted.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryVerify,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	historyShowData bool
	historyClearYes bool
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	historyCmd.GroupID = groupFiles
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDeleteCmd, historyClearCmd, historyVerifyCmd)

	historyShowCmd.Flags().BoolVar(&historyShowData, "data", false, "print the stored backup content")
	historyClearCmd.Flags().BoolVarP(&historyClearYes, "yes", "y", false, "do not ask for confirmation")
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	a, err := app()
	if err != nil {
		return err
	}
	items, err := a.Service.History()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if formatter.IsJSON() {
		// Content can be large; list shows metadata only.
		for i := range items {
			items[i].Data = ""
		}
		return writeJSON(w, items)
	}

	if len(items) == 0 {
		outln(w, "No backups yet. Run 'marksafe backup now' to take one.")
		return nil
	}

	now := a.Clock.Now()
	tbl := output.NewTable("ID", "TAKEN", "BOOKMARKS", "FORMAT", "SIZE", "WHERE").
		AlignRight(2, 4).
		MaxWidth(5, 48)
	for _, item := range items {
		tbl.AddRow(
			item.ID,
			output.Relative(item.Timestamp, now),
			output.Count(item.BookmarkCount),
			item.Format,
			output.Size(item.Size),
			where(item),
		)
	}
	return tbl.Render(w)
}

func where(item history.Item) string {
	switch {
	case item.HasData():
		return "history"
	case item.Location != "":
		return item.Location
	default:
		return "-"
	}
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	a, err := app()
	if err != nil {
		return err
	}
	item, err := a.Service.HistoryItem(args[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if historyShowData {
		if !item.HasData() {
			return noDataError(item)
		}
		_, err := io.WriteString(w, item.Data)
		return err
	}

	if formatter.IsJSON() {
		item.Data = ""
		return writeJSON(w, item)
	}
	displayHistoryItem(w, item, a.Clock.Now())
	return nil
}

func displayHistoryItem(w io.Writer, item history.Item, now time.Time) {
	out(w, "ID:        %s\n", item.ID)
	out(w, "Taken:     %s\n", output.When(item.Timestamp, now))
	out(w, "File:      %s\n", item.Filename)
	out(w, "Bookmarks: %s\n", output.Count(item.BookmarkCount))
	out(w, "Format:    %s\n", item.Format)
	out(w, "Size:      %s\n", output.Size(item.Size))
	out(w, "Stored:    %s\n", where(item))
	if item.Encrypted {
		out(w, "Encrypted: yes\n")
	}
	if item.Checksum != "" {
		out(w, "SHA-256:   %s\n", item.Checksum)
	}
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	a, err := app()
	if err != nil {
		return err
	}
	if err := a.Service.DeleteHistoryItem(args[0]); err != nil {
		return err
	}
	return output.FormatSuccess(cmd.OutOrStdout(), "Removed "+args[0]+" from history", formatter.Format())
}

func runHistoryClear(cmd *cobra.Command, _ []string) error {
	if !historyClearYes && !promptConfirmFn("Remove every backup from history?") {
		outln(cmd.OutOrStdout(), "Cancelled.")
		return nil
	}
	a, err := app()
	if err != nil {
		return err
	}
	if err := a.Service.ClearHistory(); err != nil {
		return err
	}
	return output.FormatSuccess(cmd.OutOrStdout(), "History cleared", formatter.Format())
}

func runHistoryVerify(cmd *cobra.Command, args []string) error {
	a, err := app()
	if err != nil {
		return err
	}
	if err := a.Service.Verify(cmd.Context(), args[0]); err != nil {
		return err
	}
	return output.FormatSuccess(cmd.OutOrStdout(), "Backup "+args[0]+" matches its checksum", formatter.Format())
}
