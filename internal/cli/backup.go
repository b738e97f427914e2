package cli

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/marksafe/internal/backup"
	"github.com/mrz1836/marksafe/internal/metrics"
	"github.com/mrz1836/marksafe/internal/output"
	"github.com/mrz1836/marksafe/internal/storage"
)

// backupCmd is the parent command for on-demand backups.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Run backups on demand",
	Long:  `Take a backup right now, outside the schedule.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var backupNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Back up bookmarks immediately",
	Long: `Read the bookmark tree, serialize it in the configured format and store it
according to the storage settings. The schedule is re-armed afterwards.

Example:
  marksafe backup now
  marksafe backup now -o json`,
	Args: cobra.NoArgs,
	RunE: runBackupNow,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	backupCmd.GroupID = groupBackups
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupNowCmd)
}

func runBackupNow(cmd *cobra.Command, _ []string) error {
	a, err := app()
	if err != nil {
		return err
	}

	result := a.Service.PerformBackup(cmd.Context())

	w := cmd.OutOrStdout()
	if formatter.IsJSON() {
		if err := writeJSON(w, result); err != nil {
			return err
		}
	} else if result.Success {
		displayBackupResult(w, cmd.ErrOrStderr(), result, a.Clock.Now())
	}

	if cfg.Output.Verbose && !formatter.IsJSON() {
		displayMetrics(w, metrics.Global.Snapshot())
	}
	if !result.Success {
		return result.Err
	}
	return nil
}

func displayBackupResult(w, errW io.Writer, r backup.Result, now time.Time) {
	item := r.HistoryItem
	output.Successf(w, "Backed up %s bookmarks (%s, %s)", output.Count(item.BookmarkCount), item.Format, output.Size(item.Size))
	out(w, "  ID:        %s\n", item.ID)
	switch r.Backend {
	case storage.BackendExtension:
		out(w, "  Stored:    in history (%s)\n", item.Filename)
	case storage.BackendNone:
		out(w, "  Stored:    metadata only, automatic downloads are off\n")
	default:
		out(w, "  Saved to:  %s\n", item.Location)
	}
	if item.Encrypted {
		out(w, "  Encrypted: yes\n")
	}
	if r.FellBack {
		output.Warnf(errW, "the custom directory could not be used; the backup went to the downloads folder")
	}
	if r.NextBackup != 0 {
		out(w, "  Next:      %s\n", output.When(r.NextBackup, now))
	}
}

func displayMetrics(w io.Writer, s metrics.Snapshot) {
	outln(w)
	outln(w, "Metrics (this process):")
	out(w, "  runs: %d, failures: %d, joined: %d, fallbacks: %d\n", s.RunsTotal, s.RunFailures, s.RunJoins, s.Fallbacks)
	out(w, "  files written: %d (%s), sealed: %d\n", s.FilesWritten, output.Size(int(s.BytesWritten)), s.SealedWritten)
	out(w, "  last run: %s\n", time.Duration(s.LastRunNanos).Round(time.Millisecond))
}
