package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/marksafe/internal/output"
	"github.com/mrz1836/marksafe/internal/settings"
	mserr "github.com/mrz1836/marksafe/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "View and change backup settings",
	Long:  `Backup settings control when backups run, their format and where they are kept.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current backup settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var settingsSetCmd = &cobra.Command{
	Use:   "set [key value]",
	Short: "Change one or more settings",
	Long: `Change a setting by key, or several at once with flags.

Keys: enabled, frequency, customIntervalDays, backupTime, backupDay, format,
storageMode, autoDownload, downloadFolder, useCustomDirectory,
customDirectoryName, keepBackupCount.

backupDay is 0-6 (0 = Sunday) for weekly schedules and 1-31 for monthly ones;
a day past the end of a short month runs on its last day. Switching frequency
resets a day that does not fit the new one to Sunday or the 1st.

The schedule is re-armed after every change.

Example:
  marksafe settings set frequency weekly
  marksafe settings set backupDay 1
  marksafe settings set --frequency monthly --format html`,
	Args: func(_ *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return mserr.WithSuggestion(mserr.ErrInvalidInput, "pass a key and a value, or use flags")
		}
		return nil
	},
	RunE: runSettingsSet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default settings",
	Long: `Restore the default settings. The time of the last backup is kept.

Example:
  marksafe settings reset --yes`,
	Args: cobra.NoArgs,
	RunE: runSettingsReset,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	setFrequency   settings.Frequency
	setFormat      settings.Format
	setStorageMode settings.StorageMode
	resetYes       bool
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	settingsCmd.GroupID = groupSetup
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsResetCmd)

	settingsSetCmd.Flags().Var(&setFrequency, "frequency", "daily, weekly, monthly or custom")
	settingsSetCmd.Flags().Var(&setFormat, "format", "json or html")
	settingsSetCmd.Flags().Var(&setStorageMode, "storage-mode", "extension or download")
	settingsResetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "do not ask for confirmation")

	noFiles := cobra.ShellCompDirectiveNoFileComp
	_ = settingsSetCmd.RegisterFlagCompletionFunc("frequency", cobra.FixedCompletions([]string{
		string(settings.FrequencyDaily), string(settings.FrequencyWeekly),
		string(settings.FrequencyMonthly), string(settings.FrequencyCustom),
	}, noFiles))
	_ = settingsSetCmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions([]string{
		string(settings.FormatJSON), string(settings.FormatHTML),
	}, noFiles))
	_ = settingsSetCmd.RegisterFlagCompletionFunc("storage-mode", cobra.FixedCompletions([]string{
		string(settings.StorageExtension), string(settings.StorageDownload),
	}, noFiles))
	settingsSetCmd.ValidArgsFunction = func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return settings.Keys(), noFiles
		}
		return nil, noFiles
	}
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	a, err := app()
	if err != nil {
		return err
	}
	st, err := a.Service.Settings()
	if err != nil {
		return err
	}
	return displaySettings(cmd.OutOrStdout(), st, a.Clock.Now())
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if len(args) == 0 && !flags.Changed("frequency") && !flags.Changed("format") && !flags.Changed("storage-mode") {
		return mserr.WithSuggestion(mserr.ErrInvalidInput, "nothing to change; pass a key and a value, or use flags")
	}

	a, err := app()
	if err != nil {
		return err
	}
	st, err := a.Service.Settings()
	if err != nil {
		return err
	}

	// Flags first so a backupDay argument is checked against the new frequency.
	if flags.Changed("frequency") {
		st.Frequency = setFrequency
	}
	if flags.Changed("format") {
		st.Format = setFormat
	}
	if flags.Changed("storage-mode") {
		st.StorageMode = setStorageMode
	}
	if len(args) == 2 {
		if err := applySetting(&st, args[0], args[1]); err != nil {
			return err
		}
	}

	saved, err := a.Service.SaveSettings(st)
	if err != nil {
		return err
	}
	logger.Info("settings updated")
	return displaySettings(cmd.OutOrStdout(), saved, a.Clock.Now())
}

// applySetting sets key on st, suggesting the closest key for a typo.
func applySetting(st *settings.Settings, key, value string) error {
	if _, ok := settings.CanonicalKey(key); !ok {
		err := mserr.WithDetails(mserr.ErrUnknownSettingKey, map[string]string{"key": key})
		if suggestion := settings.SuggestKey(key); suggestion != "" {
			return mserr.WithSuggestion(err, fmt.Sprintf("did you mean %q?", suggestion))
		}
		return mserr.WithSuggestion(err, "run 'marksafe settings show' to list the keys")
	}
	if err := st.Set(key, value); err != nil {
		return mserr.WithCause(mserr.ErrSettingsInvalid, err)
	}
	return nil
}

func runSettingsReset(cmd *cobra.Command, _ []string) error {
	if !resetYes && !promptConfirmFn("Restore the default backup settings?") {
		outln(cmd.OutOrStdout(), "Cancelled.")
		return nil
	}

	a, err := app()
	if err != nil {
		return err
	}
	st, err := a.Service.ResetSettings()
	if err != nil {
		return err
	}
	logger.Info("settings reset to defaults")
	return displaySettings(cmd.OutOrStdout(), st, a.Clock.Now())
}

func displaySettings(w io.Writer, st settings.Settings, now time.Time) error {
	if formatter.IsJSON() {
		return writeJSON(w, st)
	}

	tbl := output.NewTable("KEY", "VALUE")
	for _, key := range settings.Keys() {
		value, _ := st.Get(key)
		tbl.AddRow(key, value)
	}
	tbl.AddRow("lastBackup", output.When(st.LastBackup, now))
	tbl.AddRow("nextBackup", output.When(st.NextBackup, now))
	if err := tbl.Render(w); err != nil {
		return err
	}
	outln(w)
	outln(w, "Schedule: "+describeSchedule(st))
	return nil
}

// describeSchedule renders the recurrence in words.
func describeSchedule(st settings.Settings) string {
	if !st.Enabled {
		return "disabled"
	}
	switch st.Frequency {
	case settings.FrequencyDaily:
		return "daily at " + st.BackupTime
	case settings.FrequencyWeekly:
		return fmt.Sprintf("weekly on %s at %s", time.Weekday(st.BackupDay%7), st.BackupTime)
	case settings.FrequencyMonthly:
		return fmt.Sprintf("monthly on day %d at %s", st.BackupDay, st.BackupTime)
	case settings.FrequencyCustom:
		if st.CustomIntervalDays == 1 {
			return "every day at " + st.BackupTime
		}
		return fmt.Sprintf("every %d days at %s", st.CustomIntervalDays, st.BackupTime)
	default:
		return string(st.Frequency)
	}
}
