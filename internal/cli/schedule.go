package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/marksafe/internal/output"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Inspect and recompute the backup schedule",
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var scheduleShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show when the next backup is due",
	Args:  cobra.NoArgs,
	RunE:  runScheduleShow,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var scheduleUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Recompute the next backup time from the settings",
	Long: `Recompute the next backup time from the current settings and record it.
A running scheduler picks the change up on its own.`,
	Args: cobra.NoArgs,
	RunE: runScheduleUpdate,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	scheduleCmd.GroupID = groupBackups
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.AddCommand(scheduleShowCmd, scheduleUpdateCmd)
}

type scheduleView struct {
	Enabled    bool   `json:"enabled"`
	Schedule   string `json:"schedule"`
	LastBackup int64  `json:"lastBackup,omitempty"`
	NextBackup int64  `json:"nextBackup,omitempty"`
}

func runScheduleShow(cmd *cobra.Command, _ []string) error {
	a, err := app()
	if err != nil {
		return err
	}
	st, err := a.Service.Settings()
	if err != nil {
		return err
	}

	view := scheduleView{Enabled: st.Enabled, Schedule: describeSchedule(st), LastBackup: st.LastBackup, NextBackup: st.NextBackup}
	w := cmd.OutOrStdout()
	if formatter.IsJSON() {
		return writeJSON(w, view)
	}
	now := a.Clock.Now()
	out(w, "Schedule:    %s\n", view.Schedule)
	out(w, "Last backup: %s\n", output.When(view.LastBackup, now))
	out(w, "Next backup: %s\n", output.When(view.NextBackup, now))
	return nil
}

func runScheduleUpdate(cmd *cobra.Command, _ []string) error {
	a, err := app()
	if err != nil {
		return err
	}
	next, err := a.Service.UpdateSchedule(cmd.Context())
	if err != nil {
		return err
	}

	var nextMs int64
	if !next.IsZero() {
		nextMs = next.UnixMilli()
	}
	w := cmd.OutOrStdout()
	if formatter.IsJSON() {
		return writeJSON(w, map[string]int64{"nextBackup": nextMs})
	}
	if nextMs == 0 {
		outln(w, "Backups are disabled; nothing scheduled.")
		return nil
	}
	out(w, "Next backup: %s\n", output.When(nextMs, a.Clock.Now()))
	return nil
}
