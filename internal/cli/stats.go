package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/marksafe/internal/output"
)

// statsTimeout bounds reading the bookmark file.
const statsTimeout = 30 * time.Second

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show bookmark count and backup times",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	statsCmd.GroupID = groupBackups
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	a, err := app()
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, statsTimeout)
	defer cancel()

	stats, err := a.Service.Stats(ctx)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if formatter.IsJSON() {
		return writeJSON(w, stats)
	}

	now := a.Clock.Now()
	out(w, "Bookmarks:   %s\n", output.Count(stats.TotalBookmarks))
	out(w, "Last backup: %s\n", output.When(stats.LastBackup, now))
	if stats.Enabled {
		out(w, "Next backup: %s\n", output.When(stats.NextBackup, now))
	} else {
		out(w, "Next backup: disabled\n")
	}
	out(w, "History:     %d backups\n", stats.HistoryCount)
	return nil
}
